package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// CatalogService exposes the catalog registry plus the admin-only import and
// stats operations.
type CatalogService struct {
	registry ports.CatalogRegistry
	importer ports.CatalogImporter
	users    ports.UserRepository
	models   ports.ModelRepository
	logger   zerolog.Logger
}

func NewCatalogService(registry ports.CatalogRegistry, importer ports.CatalogImporter, users ports.UserRepository, models ports.ModelRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{registry: registry, importer: importer, users: users, models: models, logger: logger}
}

func (s *CatalogService) ListLayerTypes(ctx context.Context) ([]domain.LayerType, error) {
	return s.registry.ListLayerTypes(ctx)
}

func (s *CatalogService) ListFunctions(ctx context.Context) ([]domain.Function, error) {
	return s.registry.ListFunctions(ctx)
}

func (s *CatalogService) CreateFunction(ctx context.Context, name, description string) (*domain.Function, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: function name is required", domain.ErrValidation)
	}
	fn := domain.Function{
		ID:          uuid.NewString(),
		DisplayName: name,
		Description: description,
		Parameters:  []domain.Parameter{},
	}
	if err := s.registry.CreateFunction(ctx, fn); err != nil {
		return nil, err
	}
	s.logger.Info().Str("function_id", fn.ID).Str("name", name).Msg("function created")
	return &fn, nil
}

func (s *CatalogService) AddFunctionParameter(ctx context.Context, functionID, name, typeTag, defaultValue string) (*domain.Function, error) {
	if name == "" || typeTag == "" {
		return nil, fmt.Errorf("%w: parameter name and type are required", domain.ErrValidation)
	}
	return s.registry.AddFunctionParameter(ctx, functionID, domain.Parameter{
		Name:         name,
		Type:         strings.ToLower(typeTag),
		DefaultValue: defaultValue,
	})
}

func (s *CatalogService) DeleteLayerType(ctx context.Context, id string) error {
	return s.registry.DeleteLayerType(ctx, id)
}

func (s *CatalogService) DeleteFunction(ctx context.Context, id string) error {
	return s.registry.DeleteFunction(ctx, id)
}

func (s *CatalogService) Stats(ctx context.Context) (*ports.AdminStats, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	modelCount, err := s.models.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.AdminStats{UserCount: userCount, ModelCount: modelCount}, nil
}

// ImportCatalog pulls the external catalog and persists it in one
// transaction. Previously imported entries stay untouched unless replace is
// set; a replace is refused while any replaced entry is in use.
func (s *CatalogService) ImportCatalog(ctx context.Context, replace bool) (*ports.ImportResult, error) {
	layerTypes, functions, err := s.importer.ImportExternalCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if err := s.registry.Import(ctx, layerTypes, functions, replace); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("layer_types", len(layerTypes)).
		Int("functions", len(functions)).
		Bool("replace", replace).
		Msg("catalog imported")

	return &ports.ImportResult{LayerTypes: len(layerTypes), Functions: len(functions), Replaced: replace}, nil
}
