package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/tutor-portal/internal/model"
)

var ErrEmailTaken = errors.New("an account with this email already exists")

// AccountRepository handles identity accounts.
type AccountRepository struct {
	db Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

// WithTx returns a repository bound to tx.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

const accountColumns = `uid, email, password_hash, disabled, created_at, updated_at`

// GetByEmail retrieves an account by email, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email)
}

// GetByUID retrieves an account by uid.
func (r *AccountRepository) GetByUID(ctx context.Context, uid string) (*model.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE uid = $1`, uid)
}

func (r *AccountRepository) getOne(ctx context.Context, sql string, arg string) (*model.Account, error) {
	a := &model.Account{}
	err := r.db.QueryRow(ctx, sql, arg).
		Scan(&a.UID, &a.Email, &a.PasswordHash, &a.Disabled, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (uid, email, password_hash, disabled)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		a.UID, a.Email, a.PasswordHash, a.Disabled,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapUniqueViolation(err)
}

// UpdateEmail changes the sign-in email.
func (r *AccountRepository) UpdateEmail(ctx context.Context, uid, email string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET email = $2, updated_at = NOW() WHERE uid = $1`, uid, email)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE uid = $1`, uid, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}
