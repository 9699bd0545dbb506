// AgriSahay | 2026
// dto.go

package account

import (
	"time"
)

// UpdateAccountRequest carries the only fields the owner may patch.
// Password, role, and email change through dedicated operations; absent
// from this shape, they are stripped by construction.
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,min=1,max=100"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Phone    *string `json:"phone,omitempty"    validate:"omitempty,min=10,max=16"`
	Language *string `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=farmer expert admin agent"`
}

type AccountResponse struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Phone              string     `json:"phone"`
	Language           string     `json:"language"`
	Role               string     `json:"role"`
	PhoneVerified      bool       `json:"phone_verified"`
	EmailVerified      bool       `json:"email_verified"`
	NationalIDVerified bool       `json:"national_id_verified"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	LoginCount         int        `json:"login_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type ListAccountsParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListAccountsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListAccountsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:                 a.ID,
		Username:           a.Username,
		Email:              a.Email,
		Name:               a.Name,
		Phone:              a.Phone,
		Language:           a.Language,
		Role:               a.Role,
		PhoneVerified:      a.PhoneVerified,
		EmailVerified:      a.EmailVerified,
		NationalIDVerified: a.NationalIDVerified,
		LastLoginAt:        a.LastLoginAt,
		LoginCount:         a.LoginCount,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func ToAccountResponseList(accounts []Account) []AccountResponse {
	responses := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		responses = append(responses, ToAccountResponse(&a))
	}
	return responses
}
