// AgriSahay | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agrisahay/identity-backend/internal/core"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRecoveryTokenInvalid = errors.New("invalid or expired token")
)

// AccountInfo is the slice of an account the auth layer works with.
type AccountInfo struct {
	ID            string
	Name          string
	Username      string
	Email         string
	Phone         string
	Language      string
	Role          string
	PasswordHash  string
	PhoneVerified bool
	EmailVerified bool
}

type NewAccount struct {
	Name         string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	Language     string
	Role         string
}

// AccountProvider is the identity store contract. The account package
// implements it; tests swap in an in-memory fake.
type AccountProvider interface {
	Create(ctx context.Context, draft NewAccount) (*AccountInfo, error)
	GetByID(ctx context.Context, id string) (*AccountInfo, error)
	GetByIdentifier(
		ctx context.Context,
		kind, value string,
	) (*AccountInfo, error)
	TouchLogin(ctx context.Context, id string) error
	SetResetToken(
		ctx context.Context,
		id, tokenHash string,
		expiresAt time.Time,
	) error
	CompletePasswordReset(
		ctx context.Context,
		tokenHash, newPasswordHash string,
	) error
	SetEmailVerifyToken(
		ctx context.Context,
		id, tokenHash string,
		expiresAt time.Time,
	) error
	RedeemEmailVerifyToken(ctx context.Context, tokenHash string) error
	MarkPhoneVerified(ctx context.Context, phone string) error
}

// Delivery hands recovery tokens to an out-of-band channel (mail, SMS).
// The identity core never sends anything itself.
type Delivery interface {
	DeliverPasswordReset(ctx context.Context, email, token string) error
	DeliverEmailVerification(ctx context.Context, email, token string) error
}

// NoopDelivery discards tokens; used until a real delivery collaborator
// is wired in.
type NoopDelivery struct{}

func (NoopDelivery) DeliverPasswordReset(context.Context, string, string) error {
	return nil
}

func (NoopDelivery) DeliverEmailVerification(context.Context, string, string) error {
	return nil
}

type Service struct {
	accounts AccountProvider
	issuer   *TokenIssuer
	recovery *RecoveryManager
	delivery Delivery
}

func NewService(
	accounts AccountProvider,
	issuer *TokenIssuer,
	recovery *RecoveryManager,
	delivery Delivery,
) *Service {
	if delivery == nil {
		delivery = NoopDelivery{}
	}
	return &Service{
		accounts: accounts,
		issuer:   issuer,
		recovery: recovery,
		delivery: delivery,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, NewAccount{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Language:     req.Language,
		Role:         req.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	// Best effort: a failed verification mail must not fail registration.
	if token, verr := s.recovery.IssueEmailVerification(ctx, account.ID); verr != nil {
		slog.Warn("issue email verification token",
			"account_id", account.ID,
			"error", verr,
		)
	} else if derr := s.delivery.DeliverEmailVerification(ctx, account.Email, token); derr != nil {
		slog.Warn("deliver email verification token",
			"account_id", account.ID,
			"error", derr,
		)
	}

	return s.createAuthResponse(account)
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	kind, value := Classify(req.Identifier)

	account, err := s.accounts.GetByIdentifier(ctx, kind, value)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Unknown identifier and wrong password must be
			// indistinguishable, in both payload and timing.
			core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !core.VerifyPasswordTimingSafe(req.Password, &account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.accounts.TouchLogin(ctx, account.ID); err != nil {
		// Best effort: losing a login counter bump never fails the login.
		slog.Warn("touch login", "account_id", account.ID, "error", err)
	}

	resp, err := s.createAuthResponse(account)
	if err != nil {
		return nil, err
	}

	if account.Role == "farmer" {
		alias := resp.Profile
		resp.Farmer = &alias
	}

	return resp, nil
}

// Logout has no server-side effect: session tokens are stateless and
// remain valid until natural expiry. Clients discard the token.
func (s *Service) Logout(ctx context.Context) error {
	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	accountID string,
) (*Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	profile := ToProfile(account)
	return &profile, nil
}

// ForgotPassword responds identically whether or not the email belongs
// to an account, so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.accounts.GetByIdentifier(
		ctx,
		IdentifierEmail,
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get account: %w", err)
	}

	token, err := s.recovery.IssuePasswordReset(ctx, account.ID)
	if err != nil {
		return err
	}

	if derr := s.delivery.DeliverPasswordReset(ctx, account.Email, token); derr != nil {
		slog.Warn("deliver reset token", "account_id", account.ID, "error", derr)
	}

	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.recovery.RedeemPasswordReset(ctx, token, newHash)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.recovery.RedeemEmailVerification(ctx, token)
}

// VerifyPhone flips the verified flag for a known phone. The presented
// code is required but not compared against stored state.
// TODO: persist the delivered OTP and compare it here before setting the
// flag; today any code verifies a known phone.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) error {
	_ = code

	normalized := stripPhone(strings.TrimSpace(phone))
	if err := s.accounts.MarkPhoneVerified(ctx, normalized); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("verify phone: %w", core.ErrNotFound)
		}
		return fmt.Errorf("verify phone: %w", err)
	}

	return nil
}

// Refresh reissues a session token for the authenticated principal. An
// account deleted mid-session is a hard error.
func (s *Service) Refresh(
	ctx context.Context,
	accountID string,
) (*TokenResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	signed, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &TokenResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) createAuthResponse(
	account *AccountInfo,
) (*AuthResponse, error) {
	signed, expiresAt, err := s.issuer.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &AuthResponse{
		Token: TokenResponse{
			Token:     signed,
			TokenType: "Bearer",
			ExpiresAt: expiresAt,
		},
		Profile: ToProfile(account),
	}, nil
}
