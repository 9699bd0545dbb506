// AgriSahay | 2026
// dto.go

package auth

import (
	"time"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Phone    string `json:"phone"    validate:"required,min=10,max=16"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Language string `json:"language" validate:"omitempty,min=2,max=10"`
	Role     string `json:"role"     validate:"omitempty,oneof=farmer expert admin agent"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password"   validate:"required,max=128"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type VerifyPhoneRequest struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
	Code  string `json:"code"  validate:"required"`
}

// Profile is the outward projection of an account. The password hash is
// deliberately absent from it.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Language      string `json:"language"`
	Role          string `json:"role"`
	PhoneVerified bool   `json:"phone_verified"`
	EmailVerified bool   `json:"email_verified"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResponse struct {
	Token   TokenResponse `json:"token"`
	Profile Profile       `json:"profile"`

	// Farmer mirrors Profile for farmer accounts; older clients read the
	// profile from this key.
	Farmer *Profile `json:"farmer,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func ToProfile(a *AccountInfo) Profile {
	return Profile{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		Name:          a.Name,
		Phone:         a.Phone,
		Language:      a.Language,
		Role:          a.Role,
		PhoneVerified: a.PhoneVerified,
		EmailVerified: a.EmailVerified,
	}
}
