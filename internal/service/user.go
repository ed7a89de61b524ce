package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"coursesynth.app/api/core/config"
	"coursesynth.app/api/internal/model"
	"coursesynth.app/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrWeakPassword    = errors.New("password does not meet policy")
	ErrWrongOldPassword = errors.New("old password is incorrect")
)

type UserService struct {
	users  store.UserStore
	policy config.PasswordPolicy
}

func NewUserService(users store.UserStore, policy config.PasswordPolicy) *UserService {
	return &UserService{users: users, policy: policy}
}

func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// List is admin-only; callers authorize before calling.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Update applies a self-service profile edit. Only the requester (or an
// admin, enforced by the caller) may update a given id.
func (s *UserService) Update(ctx context.Context, id int64, name string, avatarURL *string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	user.AvatarURL = avatarURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongOldPassword
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = string(hash)
	return s.users.Update(ctx, user)
}

func (s *UserService) validatePassword(password string) error {
	return validatePassword(s.policy, password)
}

// validatePassword enforces config.PasswordPolicy,
// shared by UserService.ChangePassword and AuthService.SignUp.
func validatePassword(policy config.PasswordPolicy, password string) error {
	if len(password) < policy.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, policy.MinLength)
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~", r):
			hasSpecial = true
		}
	}
	if policy.RequireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrWeakPassword)
	}
	if policy.RequireLower && !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrWeakPassword)
	}
	if policy.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}
	if policy.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: must contain a special character", ErrWeakPassword)
	}
	return nil
}
