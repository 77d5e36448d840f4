package cache

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

const (
	keyLayerTypes = "layer-types"
	keyFunctions  = "functions"
)

// CachedRegistry is a read-through cache in front of a catalog registry. List
// calls are served from the cache when possible; every write invalidates the
// affected listing before delegating, so readers never observe stale entries
// past one round trip.
type CachedRegistry struct {
	next   ports.CatalogRegistry
	cache  ports.CatalogCache
	logger zerolog.Logger
}

func NewCachedRegistry(next ports.CatalogRegistry, cache ports.CatalogCache, logger zerolog.Logger) *CachedRegistry {
	return &CachedRegistry{next: next, cache: cache, logger: logger}
}

func (r *CachedRegistry) ListLayerTypes(ctx context.Context) ([]domain.LayerType, error) {
	if payload, ok := r.cache.Get(ctx, keyLayerTypes); ok {
		var out []domain.LayerType
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		r.cache.Invalidate(ctx, keyLayerTypes)
	}

	out, err := r.next.ListLayerTypes(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, keyLayerTypes, out)
	return out, nil
}

func (r *CachedRegistry) GetLayerType(ctx context.Context, id string) (*domain.LayerType, error) {
	return r.next.GetLayerType(ctx, id)
}

func (r *CachedRegistry) CreateLayerType(ctx context.Context, lt domain.LayerType) error {
	r.cache.Invalidate(ctx, keyLayerTypes)
	return r.next.CreateLayerType(ctx, lt)
}

func (r *CachedRegistry) DeleteLayerType(ctx context.Context, id string) error {
	r.cache.Invalidate(ctx, keyLayerTypes)
	return r.next.DeleteLayerType(ctx, id)
}

func (r *CachedRegistry) ListFunctions(ctx context.Context) ([]domain.Function, error) {
	if payload, ok := r.cache.Get(ctx, keyFunctions); ok {
		var out []domain.Function
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		r.cache.Invalidate(ctx, keyFunctions)
	}

	out, err := r.next.ListFunctions(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, keyFunctions, out)
	return out, nil
}

func (r *CachedRegistry) GetFunction(ctx context.Context, id string) (*domain.Function, error) {
	return r.next.GetFunction(ctx, id)
}

func (r *CachedRegistry) CreateFunction(ctx context.Context, fn domain.Function) error {
	r.cache.Invalidate(ctx, keyFunctions)
	return r.next.CreateFunction(ctx, fn)
}

func (r *CachedRegistry) AddFunctionParameter(ctx context.Context, functionID string, p domain.Parameter) (*domain.Function, error) {
	r.cache.Invalidate(ctx, keyFunctions)
	return r.next.AddFunctionParameter(ctx, functionID, p)
}

func (r *CachedRegistry) DeleteFunction(ctx context.Context, id string) error {
	r.cache.Invalidate(ctx, keyFunctions)
	return r.next.DeleteFunction(ctx, id)
}

func (r *CachedRegistry) Import(ctx context.Context, layerTypes []domain.LayerType, functions []domain.Function, replace bool) error {
	r.cache.Invalidate(ctx, keyLayerTypes, keyFunctions)
	return r.next.Import(ctx, layerTypes, functions, replace)
}

func (r *CachedRegistry) store(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache encode failed")
		return
	}
	r.cache.Set(ctx, key, payload)
}
