// AgriSahay | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agrisahay/identity-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByPhone(ctx context.Context, phone string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	UpdateRole(ctx context.Context, id, role string) error
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
	List(ctx context.Context, params ListAccountsParams) ([]Account, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const accountColumns = `
	id, name, username, email, phone, password_hash, role, language,
	phone_verified, email_verified, national_id_verified,
	reset_token_hash, reset_token_expires_at,
	email_verify_token_hash, email_verify_token_expires_at,
	last_login_at, login_count, created_at, updated_at`

func (r *repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (
			id, name, username, email, phone, password_hash, role, language
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at, updated_at, login_count`

	err := r.db.GetContext(ctx, account, query,
		account.ID,
		account.Name,
		account.Username,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.Role,
		account.Language,
	)
	if err != nil {
		if conflictErr := asConflictError(err); conflictErr != nil {
			return fmt.Errorf("create account: %w", conflictErr)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Account, error) {
	return r.getWhere(ctx, "id", id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Account, error) {
	return r.getWhere(ctx, "email", email)
}

func (r *repository) GetByPhone(
	ctx context.Context,
	phone string,
) (*Account, error) {
	return r.getWhere(ctx, "phone", phone)
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*Account, error) {
	return r.getWhere(ctx, "username", username)
}

func (r *repository) getWhere(
	ctx context.Context,
	column, value string,
) (*Account, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM accounts WHERE %s = $1",
		accountColumns,
		column,
	)

	var account Account
	err := r.db.GetContext(ctx, &account, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account by %s: %w", column, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by %s: %w", column, err)
	}

	return &account, nil
}

func (r *repository) Update(ctx context.Context, account *Account) error {
	query := `
		UPDATE accounts
		SET name = $2, username = $3, phone = $4, language = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &account.UpdatedAt, query,
		account.ID,
		account.Name,
		account.Username,
		account.Phone,
		account.Language,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update account: %w", core.ErrNotFound)
	}
	if err != nil {
		if conflictErr := asConflictError(err); conflictErr != nil {
			return fmt.Errorf("update account: %w", conflictErr)
		}
		return fmt.Errorf("update account: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, id, role string) error {
	query := `
		UPDATE accounts
		SET role = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "update role", query, id, role)
}

func (r *repository) TouchLogin(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET login_count = login_count + 1, last_login_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "touch login", query, id)
}

func (r *repository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	// Overwriting implicitly invalidates any earlier unredeemed token.
	query := `
		UPDATE accounts
		SET reset_token_hash = $2, reset_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(ctx, "set reset token", query, id, tokenHash, expiresAt)
}

// CompletePasswordReset redeems a reset token and replaces the password
// hash in one statement: the hash-equality + expiry predicate makes the
// token single-use even under concurrent redemption.
func (r *repository) CompletePasswordReset(
	ctx context.Context,
	tokenHash, newPasswordHash string,
) error {
	query := `
		UPDATE accounts
		SET password_hash = $2,
		    reset_token_hash = NULL, reset_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE reset_token_hash = $1 AND reset_token_expires_at > NOW()`

	return r.execExpectingRow(
		ctx,
		"complete password reset",
		query,
		tokenHash,
		newPasswordHash,
	)
}

func (r *repository) SetEmailVerifyToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE accounts
		SET email_verify_token_hash = $2,
		    email_verify_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1`

	return r.execExpectingRow(
		ctx,
		"set email verify token",
		query,
		id,
		tokenHash,
		expiresAt,
	)
}

func (r *repository) RedeemEmailVerifyToken(
	ctx context.Context,
	tokenHash string,
) error {
	query := `
		UPDATE accounts
		SET email_verified = TRUE,
		    email_verify_token_hash = NULL,
		    email_verify_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE email_verify_token_hash = $1
		  AND email_verify_token_expires_at > NOW()`

	return r.execExpectingRow(ctx, "redeem email verify token", query, tokenHash)
}

func (r *repository) MarkPhoneVerified(
	ctx context.Context,
	phone string,
) error {
	// No single-use predicate: re-verifying an already verified phone is
	// an idempotent no-op.
	query := `
		UPDATE accounts
		SET phone_verified = TRUE, updated_at = NOW()
		WHERE phone = $1`

	return r.execExpectingRow(ctx, "mark phone verified", query, phone)
}

func (r *repository) List(
	ctx context.Context,
	params ListAccountsParams,
) ([]Account, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR username ILIKE $%d OR name ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM accounts WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM accounts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		accountColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var accounts []Account
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, total, nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

// asConflictError maps a 23505 unique violation back to the colliding
// field by constraint name. A post-race violation reports the same field
// error a fast-path collision would.
func asConflictError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	switch pgErr.ConstraintName {
	case "accounts_email_key":
		return &core.FieldConflictError{Field: "email"}
	case "accounts_phone_key":
		return &core.FieldConflictError{Field: "phone"}
	case "accounts_username_key":
		return &core.FieldConflictError{Field: "username"}
	}

	return core.ErrDuplicateKey
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
