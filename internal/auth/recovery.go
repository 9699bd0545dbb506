// AgriSahay | 2026
// recovery.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrisahay/identity-backend/internal/config"
	"github.com/agrisahay/identity-backend/internal/core"
)

// RecoveryManager issues and redeems opaque single-use tokens for
// password reset and email verification. Only a SHA-256 hash of a token
// is ever persisted; the plaintext goes back to the caller once for
// out-of-band delivery. Issuing a new token overwrites (and thereby
// invalidates) any earlier unredeemed one for the same purpose.
type RecoveryManager struct {
	accounts  AccountProvider
	resetTTL  time.Duration
	verifyTTL time.Duration
}

func NewRecoveryManager(
	accounts AccountProvider,
	cfg config.RecoveryConfig,
) *RecoveryManager {
	return &RecoveryManager{
		accounts:  accounts,
		resetTTL:  cfg.ResetTokenExpire,
		verifyTTL: cfg.VerifyTokenExpire,
	}
}

func (m *RecoveryManager) IssuePasswordReset(
	ctx context.Context,
	accountID string,
) (string, error) {
	token, err := core.GenerateRecoveryToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := time.Now().Add(m.resetTTL)
	if err := m.accounts.SetResetToken(ctx, accountID, core.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

// RedeemPasswordReset replaces the password hash of the account holding
// an unexpired token matching the presented one, clearing the token in
// the same write. Not-found and expired are indistinguishable to the
// caller.
func (m *RecoveryManager) RedeemPasswordReset(
	ctx context.Context,
	token, newPasswordHash string,
) error {
	if token == "" {
		return ErrRecoveryTokenInvalid
	}

	err := m.accounts.CompletePasswordReset(
		ctx,
		core.HashToken(token),
		newPasswordHash,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrRecoveryTokenInvalid
		}
		return fmt.Errorf("redeem reset token: %w", err)
	}

	return nil
}

func (m *RecoveryManager) IssueEmailVerification(
	ctx context.Context,
	accountID string,
) (string, error) {
	token, err := core.GenerateRecoveryToken()
	if err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}

	expiresAt := time.Now().Add(m.verifyTTL)
	if err := m.accounts.SetEmailVerifyToken(ctx, accountID, core.HashToken(token), expiresAt); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	return token, nil
}

func (m *RecoveryManager) RedeemEmailVerification(
	ctx context.Context,
	token string,
) error {
	if token == "" {
		return ErrRecoveryTokenInvalid
	}

	err := m.accounts.RedeemEmailVerifyToken(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrRecoveryTokenInvalid
		}
		return fmt.Errorf("redeem verification token: %w", err)
	}

	return nil
}
