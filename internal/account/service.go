// AgriSahay | 2026
// service.go

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrisahay/identity-backend/internal/auth"
	"github.com/agrisahay/identity-backend/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(
	ctx context.Context,
	draft auth.NewAccount,
) (*auth.AccountInfo, error) {
	email := NormalizeEmail(draft.Email)
	username := NormalizeUsername(draft.Username)
	phone := NormalizePhone(draft.Phone)

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}

	role, err := resolveRole(draft.Role)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:           uuid.New().String(),
		Name:         draft.Name,
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: draft.PasswordHash,
		Role:         role,
		Language:     resolveLanguage(draft.Language),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.AccountInfo, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

func (s *Service) GetByIdentifier(
	ctx context.Context,
	kind, value string,
) (*auth.AccountInfo, error) {
	var (
		account *Account
		err     error
	)

	switch kind {
	case auth.IdentifierEmail:
		account, err = s.repo.GetByEmail(ctx, NormalizeEmail(value))
	case auth.IdentifierPhone:
		account, err = s.repo.GetByPhone(ctx, NormalizePhone(value))
	case auth.IdentifierUsername:
		account, err = s.repo.GetByUsername(ctx, NormalizeUsername(value))
	default:
		return nil, fmt.Errorf(
			"unknown identifier kind %q: %w",
			kind,
			core.ErrInvalidInput,
		)
	}

	if err != nil {
		return nil, err
	}

	return toAccountInfo(account), nil
}

func (s *Service) TouchLogin(ctx context.Context, id string) error {
	return s.repo.TouchLogin(ctx, id)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetResetToken(ctx, id, tokenHash, expiresAt)
}

func (s *Service) CompletePasswordReset(
	ctx context.Context,
	tokenHash, newPasswordHash string,
) error {
	return s.repo.CompletePasswordReset(ctx, tokenHash, newPasswordHash)
}

func (s *Service) SetEmailVerifyToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetEmailVerifyToken(ctx, id, tokenHash, expiresAt)
}

func (s *Service) RedeemEmailVerifyToken(
	ctx context.Context,
	tokenHash string,
) error {
	return s.repo.RedeemEmailVerifyToken(ctx, tokenHash)
}

func (s *Service) MarkPhoneVerified(ctx context.Context, phone string) error {
	return s.repo.MarkPhoneVerified(ctx, NormalizePhone(phone))
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateAccount applies an owner-initiated patch. Username and phone are
// re-normalized and re-validated before the write; identity-critical
// fields are not part of the patch shape.
func (s *Service) UpdateAccount(
	ctx context.Context,
	id string,
	req UpdateAccountRequest,
) (*Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
	}

	if req.Username != nil {
		username := NormalizeUsername(*req.Username)
		if err := ValidateUsername(username); err != nil {
			return nil, err
		}
		account.Username = username
	}

	if req.Phone != nil {
		phone := NormalizePhone(*req.Phone)
		if err := ValidatePhone(phone); err != nil {
			return nil, err
		}
		account.Phone = phone
	}

	if req.Language != nil {
		account.Language = resolveLanguage(*req.Language)
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateRole changes an account's role. Route guards keep this out of
// reach of the owning account: only admin principals get here.
func (s *Service) UpdateRole(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	if !ValidRole(role) {
		return nil, core.ValidationError(
			fmt.Sprintf("invalid role %q", role),
		)
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAccounts(
	ctx context.Context,
	params ListAccountsParams,
) ([]Account, int, error) {
	return s.repo.List(ctx, params)
}

// resolveRole resolves the effective role once: an explicitly requested
// valid role wins, otherwise the farmer default applies.
func resolveRole(requested string) (string, error) {
	if requested == "" {
		return RoleFarmer, nil
	}
	if !ValidRole(requested) {
		return "", core.ValidationError(
			fmt.Sprintf("invalid role %q", requested),
		)
	}
	return requested, nil
}

// resolveLanguage resolves the effective language once: an explicit
// request wins, otherwise the "en" default applies.
func resolveLanguage(requested string) string {
	if requested == "" {
		return "en"
	}
	return requested
}

func toAccountInfo(a *Account) *auth.AccountInfo {
	return &auth.AccountInfo{
		ID:            a.ID,
		Name:          a.Name,
		Username:      a.Username,
		Email:         a.Email,
		Phone:         a.Phone,
		Language:      a.Language,
		Role:          a.Role,
		PasswordHash:  a.PasswordHash,
		PhoneVerified: a.PhoneVerified,
		EmailVerified: a.EmailVerified,
	}
}

var _ auth.AccountProvider = (*Service)(nil)
