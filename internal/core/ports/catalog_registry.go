package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// CatalogRegistry is the read-mostly registry of layer types and activation
// functions. Mutations are immediately visible to subsequent reads; any cache
// in front of this contract is a transparent read-through invalidated on
// write.
type CatalogRegistry interface {
	ListLayerTypes(ctx context.Context) ([]domain.LayerType, error)
	GetLayerType(ctx context.Context, id string) (*domain.LayerType, error)
	// CreateLayerType fails with domain.ErrDuplicateKey when the id exists.
	CreateLayerType(ctx context.Context, lt domain.LayerType) error
	// DeleteLayerType fails with domain.ErrInUse while any ModelLayer still
	// references the type.
	DeleteLayerType(ctx context.Context, id string) error

	ListFunctions(ctx context.Context) ([]domain.Function, error)
	GetFunction(ctx context.Context, id string) (*domain.Function, error)
	CreateFunction(ctx context.Context, fn domain.Function) error
	AddFunctionParameter(ctx context.Context, functionID string, p domain.Parameter) (*domain.Function, error)
	DeleteFunction(ctx context.Context, id string) error

	// Import persists an external catalog in one transaction. By default
	// existing entries are left untouched; replace drops and re-imports the
	// whole catalog and fails with domain.ErrInUse when any replaced entry
	// is currently referenced by a ModelLayer.
	Import(ctx context.Context, layerTypes []domain.LayerType, functions []domain.Function, replace bool) error
}

// CatalogCache is the transparent read-through cache in front of the catalog
// registry list calls.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
	Invalidate(ctx context.Context, keys ...string)
}
