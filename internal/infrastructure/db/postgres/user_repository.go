package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// UserRepository persists users, role memberships and confirmation tokens.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user, its default roles and the pending confirmation id
// in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, confirmationID string) (*domain.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (user_id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if errors.Is(mapError(err), domain.ErrDuplicateKey) {
			return nil, domain.ErrUserExists
		}
		return nil, mapError(err)
	}

	for _, role := range user.Roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, user.ID, role); err != nil {
			return nil, mapError(err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_metadata (user_id, confirmation_id) VALUES ($1, $2)`, user.ID, confirmationID); err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}

	created := *user
	return &created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findBy(ctx, `u.email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findBy(ctx, `u.user_id = $1`, id)
}

func (r *UserRepository) findBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		user           domain.User
		confirmationID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT u.user_id, u.name, u.email, u.password_hash, u.created_at, u.updated_at, m.confirmation_id
		 FROM users u LEFT JOIN user_metadata m ON m.user_id = u.user_id
		 WHERE %s`, where), arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt, &confirmationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return nil, err
	}
	user.Confirmed = !confirmationID.Valid

	rows, err := r.db.QueryContext(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, user.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &user, nil
}

// Confirm nulls the confirmation id, making the token one-time-use. Unknown
// or already-consumed tokens report ErrNotFound.
func (r *UserRepository) Confirm(ctx context.Context, confirmationID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_metadata SET confirmation_id = NULL WHERE confirmation_id = $1`, confirmationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: confirmation %q", domain.ErrNotFound, confirmationID)
	}
	return nil
}

// Delete removes the user; models and metadata cascade via foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
