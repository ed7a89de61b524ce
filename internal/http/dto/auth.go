package dto

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	// Email holds either an email address or a username; AuthService.Login
	// looks it up by email first and falls back to the user's name.
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
