package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// ModelRepository persists the Model aggregate as a unit.
type ModelRepository interface {
	Create(ctx context.Context, m *domain.Model) error
	// FindByID loads the full aggregate (layers, activators, parameter
	// values). Missing models fail with domain.ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Model, error)
	// ListByOwner returns the owner's models sorted by updatedAt descending.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Model, error)
	// NameExists reports whether the owner already has a model with the
	// given name, ignoring excludeID (pass "" for creation checks).
	NameExists(ctx context.Context, ownerID, name, excludeID string) (bool, error)
	// Mutate applies fn to the aggregate inside a single transaction that
	// holds a row-level lock on the model for its duration, so concurrent
	// mutations of the same model are serialized. fn sees the current
	// persisted state; returning an error rolls everything back. A
	// serialization failure surfaces as domain.ErrConflict.
	Mutate(ctx context.Context, modelID string, fn func(*domain.Model) error) (*domain.Model, error)
	// Delete removes the model and cascades to all children.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
