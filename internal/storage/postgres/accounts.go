package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_service/internal/models"
	"admissions_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `
	id::text, username, email, password_hash, role, is_verified,
	verification_token_hash, reset_token_hash, reset_expiry,
	created_at, updated_at`

func (r *PostgresRepo) CreateAccount(ctx context.Context, acc models.Account) (models.Account, error) {
	const op = "storage.postgres.CreateAccount"

	query := `
		INSERT INTO accounts (id, username, email, password_hash, role, is_verified,
			verification_token_hash, created_at, updated_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, NULLIF($7, ''), $8, $8)
		RETURNING ` + accountColumns

	row := r.pool.QueryRow(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.PassHash,
		string(acc.Role),
		acc.IsVerified,
		acc.VerificationTokenHash,
		acc.CreatedAt,
	)

	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, storage.ErrAccountExists
		}

		return models.Account{}, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return created, nil
}

func (r *PostgresRepo) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`

	return r.queryAccount(ctx, "storage.postgres.AccountByEmail", query, email)
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return r.queryAccount(ctx, "storage.postgres.AccountByID", query, id)
}

func (r *PostgresRepo) AccountByVerificationToken(ctx context.Context, tokenHash string) (models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE verification_token_hash = $1`

	return r.queryAccount(ctx, "storage.postgres.AccountByVerificationToken", query, tokenHash)
}

// AccountByResetToken treats an expired token the same as an unknown one.
func (r *PostgresRepo) AccountByResetToken(ctx context.Context, tokenHash string, now time.Time) (models.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE reset_token_hash = $1 AND reset_expiry > $2`

	return r.queryAccount(ctx, "storage.postgres.AccountByResetToken", query, tokenHash, now)
}

func (r *PostgresRepo) SaveAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		UPDATE accounts
		SET username = $2,
			email = lower($3),
			password_hash = $4,
			role = $5,
			is_verified = $6,
			verification_token_hash = NULLIF($7, ''),
			reset_token_hash = NULLIF($8, ''),
			reset_expiry = $9,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.PassHash,
		string(acc.Role),
		acc.IsVerified,
		acc.VerificationTokenHash,
		acc.ResetTokenHash,
		acc.ResetExpiry,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAccountExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

func (r *PostgresRepo) queryAccount(ctx context.Context, op, query string, args ...any) (models.Account, error) {
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		acc               models.Account
		role              string
		verificationToken *string
		resetToken        *string
	)

	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PassHash,
		&role,
		&acc.IsVerified,
		&verificationToken,
		&resetToken,
		&acc.ResetExpiry,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return models.Account{}, err
	}

	acc.Role = models.Role(role)
	if verificationToken != nil {
		acc.VerificationTokenHash = *verificationToken
	}
	if resetToken != nil {
		acc.ResetTokenHash = *resetToken
	}

	return acc, nil
}
