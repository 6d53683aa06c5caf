package dto

import "github.com/spec-kit/tour-booking/internal/domain"

// UserRegisterRequest payload for new customers.
type UserRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for login and register.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

// UserResponse wraps a single profile.
type UserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// ProfileUpdateRequest payload for PUT profile.
type ProfileUpdateRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

// ChangePasswordRequest payload for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// StatusResponse is a bare acknowledgement.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
