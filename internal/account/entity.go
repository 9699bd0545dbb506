// AgriSahay | 2026
// entity.go

package account

import (
	"time"
)

type Account struct {
	ID                        string     `db:"id"`
	Name                      string     `db:"name"`
	Username                  string     `db:"username"`
	Email                     string     `db:"email"`
	Phone                     string     `db:"phone"`
	PasswordHash              string     `db:"password_hash"`
	Role                      string     `db:"role"`
	Language                  string     `db:"language"`
	PhoneVerified             bool       `db:"phone_verified"`
	EmailVerified             bool       `db:"email_verified"`
	NationalIDVerified        bool       `db:"national_id_verified"`
	ResetTokenHash            *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt       *time.Time `db:"reset_token_expires_at"`
	EmailVerifyTokenHash      *string    `db:"email_verify_token_hash"`
	EmailVerifyTokenExpiresAt *time.Time `db:"email_verify_token_expires_at"`
	LastLoginAt               *time.Time `db:"last_login_at"`
	LoginCount                int        `db:"login_count"`
	CreatedAt                 time.Time  `db:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at"`
}

const (
	RoleFarmer = "farmer"
	RoleExpert = "expert"
	RoleAdmin  = "admin"
	RoleAgent  = "agent"
)

func ValidRole(role string) bool {
	switch role {
	case RoleFarmer, RoleExpert, RoleAdmin, RoleAgent:
		return true
	}
	return false
}
