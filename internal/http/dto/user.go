package dto

import "coursesynth.app/api/internal/model"

// ToUserResponse is the identity conversion: model.User's PasswordHash is
// already tagged json:"-", so the stored row is safe to serialize directly.
func ToUserResponse(u *model.User) *model.User {
	return u
}

type UpdateUserRequest struct {
	Name      string  `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	AvatarURL *string `json:"avatar_url,omitempty" binding:"omitempty,url,max=2048"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
