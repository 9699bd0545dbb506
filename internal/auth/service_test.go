// AgriSahay | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisahay/identity-backend/internal/config"
	"github.com/agrisahay/identity-backend/internal/core"
)

// fakeAccountStore is an in-memory AccountProvider enforcing the same
// uniqueness and token semantics as the Postgres repository.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
}

type fakeAccount struct {
	AccountInfo
	loginCount      int
	resetTokenHash  string
	resetExpiresAt  time.Time
	verifyTokenHash string
	verifyExpiresAt time.Time
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[string]*fakeAccount)}
}

func (f *fakeAccountStore) Create(
	_ context.Context,
	draft NewAccount,
) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.accounts {
		switch {
		case existing.Email == draft.Email:
			return nil, &core.FieldConflictError{Field: "email"}
		case existing.Phone == draft.Phone:
			return nil, &core.FieldConflictError{Field: "phone"}
		case existing.Username == draft.Username:
			return nil, &core.FieldConflictError{Field: "username"}
		}
	}

	role := draft.Role
	if role == "" {
		role = "farmer"
	}
	language := draft.Language
	if language == "" {
		language = "en"
	}

	account := &fakeAccount{
		AccountInfo: AccountInfo{
			ID:           uuid.New().String(),
			Name:         draft.Name,
			Username:     draft.Username,
			Email:        draft.Email,
			Phone:        draft.Phone,
			Language:     language,
			Role:         role,
			PasswordHash: draft.PasswordHash,
		},
	}
	f.accounts[account.ID] = account

	info := account.AccountInfo
	return &info, nil
}

func (f *fakeAccountStore) GetByID(
	_ context.Context,
	id string,
) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	info := account.AccountInfo
	return &info, nil
}

func (f *fakeAccountStore) GetByIdentifier(
	_ context.Context,
	kind, value string,
) (*AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		var match bool
		switch kind {
		case IdentifierEmail:
			match = account.Email == value
		case IdentifierPhone:
			match = account.Phone == value
		case IdentifierUsername:
			match = account.Username == value
		}
		if match {
			info := account.AccountInfo
			return &info, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeAccountStore) TouchLogin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	account.loginCount++
	return nil
}

func (f *fakeAccountStore) SetResetToken(
	_ context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	account.resetTokenHash = tokenHash
	account.resetExpiresAt = expiresAt
	return nil
}

func (f *fakeAccountStore) CompletePasswordReset(
	_ context.Context,
	tokenHash, newPasswordHash string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		if account.resetTokenHash == tokenHash &&
			account.resetTokenHash != "" &&
			time.Now().Before(account.resetExpiresAt) {
			account.PasswordHash = newPasswordHash
			account.resetTokenHash = ""
			account.resetExpiresAt = time.Time{}
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeAccountStore) SetEmailVerifyToken(
	_ context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	account, ok := f.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	account.verifyTokenHash = tokenHash
	account.verifyExpiresAt = expiresAt
	return nil
}

func (f *fakeAccountStore) RedeemEmailVerifyToken(
	_ context.Context,
	tokenHash string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		if account.verifyTokenHash == tokenHash &&
			account.verifyTokenHash != "" &&
			time.Now().Before(account.verifyExpiresAt) {
			account.EmailVerified = true
			account.verifyTokenHash = ""
			account.verifyExpiresAt = time.Time{}
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeAccountStore) MarkPhoneVerified(
	_ context.Context,
	phone string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, account := range f.accounts {
		if account.Phone == phone {
			account.PhoneVerified = true
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeAccountStore) get(id string) *fakeAccount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id]
}

// captureDelivery records the tokens handed to it instead of sending
// anything.
type captureDelivery struct {
	mu           sync.Mutex
	resetTokens  map[string]string
	verifyTokens map[string]string
}

func newCaptureDelivery() *captureDelivery {
	return &captureDelivery{
		resetTokens:  make(map[string]string),
		verifyTokens: make(map[string]string),
	}
}

func (d *captureDelivery) DeliverPasswordReset(
	_ context.Context,
	email, token string,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetTokens[email] = token
	return nil
}

func (d *captureDelivery) DeliverEmailVerification(
	_ context.Context,
	email, token string,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.verifyTokens[email] = token
	return nil
}

func (d *captureDelivery) resetToken(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resetTokens[email]
}

func (d *captureDelivery) verifyToken(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.verifyTokens[email]
}

func newTestService(t *testing.T) (*Service, *fakeAccountStore, *captureDelivery) {
	t.Helper()

	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	store := newFakeAccountStore()
	delivery := newCaptureDelivery()
	recovery := NewRecoveryManager(store, config.RecoveryConfig{
		ResetTokenExpire:  10 * time.Minute,
		VerifyTokenExpire: 24 * time.Hour,
	})

	return NewService(store, issuer, recovery, delivery), store, delivery
}

func registerTestAccount(t *testing.T, svc *Service) *AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha Patel",
		Username: "asha_patel",
		Email:    "asha@example.com",
		Phone:    "918682922431",
		Password: "grow-more-wheat-7",
	})
	require.NoError(t, err)
	return resp
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("returns session token and profile", func(t *testing.T) {
		svc, store, delivery := newTestService(t)

		resp := registerTestAccount(t, svc)
		assert.NotEmpty(t, resp.Token.Token)
		assert.Equal(t, "Bearer", resp.Token.TokenType)
		assert.Equal(t, "asha_patel", resp.Profile.Username)
		assert.Equal(t, "farmer", resp.Profile.Role)
		assert.False(t, resp.Profile.EmailVerified)

		stored := store.get(resp.Profile.ID)
		require.NotNil(t, stored)
		assert.NotEqual(t, "grow-more-wheat-7", stored.PasswordHash)
		assert.True(
			t,
			core.VerifyPassword("grow-more-wheat-7", stored.PasswordHash),
		)

		// Registration hands a verification token to the delivery channel.
		assert.NotEmpty(t, delivery.verifyToken("asha@example.com"))
	})

	t.Run("duplicate identifiers conflict per field", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		tests := []struct {
			name  string
			req   RegisterRequest
			field string
		}{
			{
				name: "email",
				req: RegisterRequest{
					Name:     "Other",
					Username: "other_user",
					Email:    "asha@example.com",
					Phone:    "917000000001",
					Password: "some-password-1",
				},
				field: "email",
			},
			{
				name: "phone",
				req: RegisterRequest{
					Name:     "Other",
					Username: "other_user",
					Email:    "other@example.com",
					Phone:    "918682922431",
					Password: "some-password-1",
				},
				field: "phone",
			},
			{
				name: "username",
				req: RegisterRequest{
					Name:     "Other",
					Username: "asha_patel",
					Email:    "other@example.com",
					Phone:    "917000000001",
					Password: "some-password-1",
				},
				field: "username",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Register(ctx, tt.req)
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrDuplicateKey)

				var conflict *core.FieldConflictError
				require.ErrorAs(t, err, &conflict)
				assert.Equal(t, tt.field, conflict.Field)
			})
		}
	})

	t.Run("concurrent registration has one winner", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		const attempts = 8
		errs := make(chan error, attempts)

		var wg sync.WaitGroup
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := svc.Register(ctx, RegisterRequest{
					Name:     "Racer",
					Username: "contested_name",
					Email:    fmt.Sprintf("racer%d@example.com", n),
					Phone:    fmt.Sprintf("91700000%04d", n),
					Password: "some-password-1",
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		var won, lost int
		for err := range errs {
			if err == nil {
				won++
				continue
			}
			lost++
			assert.ErrorIs(t, err, core.ErrDuplicateKey)
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, attempts-1, lost)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds with each identifier kind", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		registered := registerTestAccount(t, svc)

		identifiers := []string{
			"asha@example.com",
			"Asha@Example.com",
			"918682922431",
			"+91 86829 22431",
			"asha_patel",
		}

		for _, identifier := range identifiers {
			resp, err := svc.Login(ctx, LoginRequest{
				Identifier: identifier,
				Password:   "grow-more-wheat-7",
			})
			require.NoError(t, err, identifier)
			assert.Equal(t, registered.Profile.ID, resp.Profile.ID, identifier)
			assert.NotEmpty(t, resp.Token.Token, identifier)
		}

		assert.Equal(t, len(identifiers), store.get(registered.Profile.ID).loginCount)
	})

	t.Run("farmer role gets the farmer alias", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		resp, err := svc.Login(ctx, LoginRequest{
			Identifier: "asha_patel",
			Password:   "grow-more-wheat-7",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Farmer)
		assert.Equal(t, resp.Profile.ID, resp.Farmer.ID)
	})

	t.Run("wrong password and unknown identifier are identical", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		_, wrongPassErr := svc.Login(ctx, LoginRequest{
			Identifier: "asha_patel",
			Password:   "wrong-password-1",
		})
		require.Error(t, wrongPassErr)

		_, unknownErr := svc.Login(ctx, LoginRequest{
			Identifier: "nobody_here",
			Password:   "wrong-password-1",
		})
		require.Error(t, unknownErr)

		assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
		assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
		assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
	})
}

func TestService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full reset flow", func(t *testing.T) {
		svc, _, delivery := newTestService(t)
		registerTestAccount(t, svc)

		require.NoError(t, svc.ForgotPassword(ctx, "asha@example.com"))
		token := delivery.resetToken("asha@example.com")
		require.NotEmpty(t, token)

		require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass-9"))

		// Old password no longer works, new one does.
		_, err := svc.Login(ctx, LoginRequest{
			Identifier: "asha_patel",
			Password:   "grow-more-wheat-7",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Login(ctx, LoginRequest{
			Identifier: "asha_patel",
			Password:   "brand-new-pass-9",
		})
		assert.NoError(t, err)
	})

	t.Run("token is single use", func(t *testing.T) {
		svc, _, delivery := newTestService(t)
		registerTestAccount(t, svc)

		require.NoError(t, svc.ForgotPassword(ctx, "asha@example.com"))
		token := delivery.resetToken("asha@example.com")

		require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass-9"))

		err := svc.ResetPassword(ctx, token, "yet-another-pass-3")
		assert.ErrorIs(t, err, ErrRecoveryTokenInvalid)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		svc, store, delivery := newTestService(t)
		registered := registerTestAccount(t, svc)

		require.NoError(t, svc.ForgotPassword(ctx, "asha@example.com"))
		token := delivery.resetToken("asha@example.com")

		store.mu.Lock()
		store.accounts[registered.Profile.ID].resetExpiresAt =
			time.Now().Add(-time.Minute)
		store.mu.Unlock()

		err := svc.ResetPassword(ctx, token, "brand-new-pass-9")
		assert.ErrorIs(t, err, ErrRecoveryTokenInvalid)
	})

	t.Run("reissue invalidates the earlier token", func(t *testing.T) {
		svc, _, delivery := newTestService(t)
		registerTestAccount(t, svc)

		require.NoError(t, svc.ForgotPassword(ctx, "asha@example.com"))
		first := delivery.resetToken("asha@example.com")

		require.NoError(t, svc.ForgotPassword(ctx, "asha@example.com"))
		second := delivery.resetToken("asha@example.com")
		require.NotEqual(t, first, second)

		err := svc.ResetPassword(ctx, first, "brand-new-pass-9")
		assert.ErrorIs(t, err, ErrRecoveryTokenInvalid)

		assert.NoError(t, svc.ResetPassword(ctx, second, "brand-new-pass-9"))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		for _, token := range []string{"", "not-a-real-token"} {
			err := svc.ResetPassword(ctx, token, "brand-new-pass-9")
			assert.ErrorIs(t, err, ErrRecoveryTokenInvalid, token)
		}
	})

	t.Run("unknown email succeeds without delivering", func(t *testing.T) {
		svc, _, delivery := newTestService(t)
		registerTestAccount(t, svc)

		require.NoError(t, svc.ForgotPassword(ctx, "stranger@example.com"))
		assert.Empty(t, delivery.resetToken("stranger@example.com"))
	})
}

func TestService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("registration token verifies the email", func(t *testing.T) {
		svc, store, delivery := newTestService(t)
		registered := registerTestAccount(t, svc)

		token := delivery.verifyToken("asha@example.com")
		require.NotEmpty(t, token)

		require.NoError(t, svc.VerifyEmail(ctx, token))
		assert.True(t, store.get(registered.Profile.ID).EmailVerified)

		// Single use.
		err := svc.VerifyEmail(ctx, token)
		assert.ErrorIs(t, err, ErrRecoveryTokenInvalid)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		err := svc.VerifyEmail(ctx, "never-issued")
		assert.ErrorIs(t, err, ErrRecoveryTokenInvalid)
	})
}

func TestService_VerifyPhone(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a known phone verified", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		registered := registerTestAccount(t, svc)

		require.NoError(t, svc.VerifyPhone(ctx, "+91 86829 22431", "123456"))
		assert.True(t, store.get(registered.Profile.ID).PhoneVerified)
	})

	t.Run("unknown phone errors", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registerTestAccount(t, svc)

		err := svc.VerifyPhone(ctx, "917999999999", "123456")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("reissues a token for a live account", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		registered := registerTestAccount(t, svc)

		resp, err := svc.Refresh(ctx, registered.Profile.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Bearer", resp.TokenType)
	})

	t.Run("deleted account is a hard error", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Refresh(ctx, uuid.New().String())
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestService_GetCurrentUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := registerTestAccount(t, svc)

	profile, err := svc.GetCurrentUser(context.Background(), registered.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Profile.ID, profile.ID)
	assert.Equal(t, "asha_patel", profile.Username)
}
