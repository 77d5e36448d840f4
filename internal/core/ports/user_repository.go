package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// UserRepository persists users, their role memberships and the one-time
// email confirmation token.
type UserRepository interface {
	// Create inserts the user together with its pending confirmation id.
	// A duplicate email fails with domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User, confirmationID string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Confirm consumes a confirmation token. The token is nulled on first
	// use; an unknown or already-used token fails with domain.ErrNotFound.
	Confirm(ctx context.Context, confirmationID string) error
	// Delete removes the user and cascades to all owned models.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
