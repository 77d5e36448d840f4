package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	UserCount  int64 `json:"userCount"`
	ModelCount int64 `json:"modelCount"`
}

// ImportResult reports what a catalog import persisted.
type ImportResult struct {
	LayerTypes int  `json:"layerTypes"`
	Functions  int  `json:"functions"`
	Replaced   bool `json:"replaced"`
}

// CatalogService exposes the catalog registry plus the admin-only import and
// stats operations.
type CatalogService interface {
	ListLayerTypes(ctx context.Context) ([]domain.LayerType, error)
	ListFunctions(ctx context.Context) ([]domain.Function, error)
	CreateFunction(ctx context.Context, name, description string) (*domain.Function, error)
	AddFunctionParameter(ctx context.Context, functionID, name, typeTag, defaultValue string) (*domain.Function, error)
	DeleteLayerType(ctx context.Context, id string) error
	DeleteFunction(ctx context.Context, id string) error

	Stats(ctx context.Context) (*AdminStats, error)
	// ImportCatalog pulls the external catalog and persists it in one
	// transaction. replace re-imports from scratch and fails with
	// domain.ErrInUse when any replaced entry is referenced.
	ImportCatalog(ctx context.Context, replace bool) (*ImportResult, error)
}
