package dto

import (
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
)

// ErrorRes is the body of every error response.
type ErrorRes struct {
	Error string `json:"error"`
}

// MessageRes carries a human readable outcome.
type MessageRes struct {
	Message string `json:"message"`
}

// SendOTPRes echoes the code only in development mode.
type SendOTPRes struct {
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

// VerifyOTPRes is returned after a successful verification.
type VerifyOTPRes struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

// UserRes is the public view of a user. The password hash is never included.
type UserRes struct {
	ID            uint      `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuthRes is returned by register and login.
type AuthRes struct {
	Token string  `json:"token"`
	User  UserRes `json:"user"`
}

// ProfileRes wraps the current user.
type ProfileRes struct {
	User UserRes `json:"user"`
}

// UpdateProfileRes is returned after a profile update.
type UpdateProfileRes struct {
	Message string  `json:"message"`
	User    UserRes `json:"user"`
}

// NewUserRes converts an entity into its public view.
func NewUserRes(u *entity.User) UserRes {
	if u == nil {
		return UserRes{}
	}
	return UserRes{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
