package auth

import (
	"github.com/Abhijit5011/Electromart/internal/profiles"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the self-registration payload.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ResumeRequest carries the last token pair a client holds.
type ResumeRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionResponse is returned by every flow that establishes a session.
type SessionResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	Profile      *profiles.ProfileDTO `json:"profile"`
}
