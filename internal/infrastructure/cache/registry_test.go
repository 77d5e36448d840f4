package cache

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// countingRegistry records how many times each list call reached the backing
// registry.
type countingRegistry struct {
	layerTypes []domain.LayerType
	functions  []domain.Function
	listLT     int
	listFN     int
}

func (r *countingRegistry) ListLayerTypes(_ context.Context) ([]domain.LayerType, error) {
	r.listLT++
	return r.layerTypes, nil
}

func (r *countingRegistry) GetLayerType(_ context.Context, id string) (*domain.LayerType, error) {
	for _, lt := range r.layerTypes {
		if lt.ID == id {
			return &lt, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *countingRegistry) CreateLayerType(_ context.Context, lt domain.LayerType) error {
	r.layerTypes = append(r.layerTypes, lt)
	return nil
}

func (r *countingRegistry) DeleteLayerType(_ context.Context, id string) error { return nil }

func (r *countingRegistry) ListFunctions(_ context.Context) ([]domain.Function, error) {
	r.listFN++
	return r.functions, nil
}

func (r *countingRegistry) GetFunction(_ context.Context, id string) (*domain.Function, error) {
	return nil, domain.ErrNotFound
}

func (r *countingRegistry) CreateFunction(_ context.Context, fn domain.Function) error {
	r.functions = append(r.functions, fn)
	return nil
}

func (r *countingRegistry) AddFunctionParameter(_ context.Context, functionID string, p domain.Parameter) (*domain.Function, error) {
	return nil, domain.ErrNotFound
}

func (r *countingRegistry) DeleteFunction(_ context.Context, id string) error { return nil }

func (r *countingRegistry) Import(_ context.Context, layerTypes []domain.LayerType, functions []domain.Function, replace bool) error {
	r.layerTypes = append(r.layerTypes, layerTypes...)
	r.functions = append(r.functions, functions...)
	return nil
}

func TestMemoryCache(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok := m.Get(ctx, "missing")
	require.False(t, ok)

	m.Set(ctx, "k", []byte("payload"))
	got, ok := m.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), got)

	m.Invalidate(ctx, "k")
	_, ok = m.Get(ctx, "k")
	require.False(t, ok)
}

func TestCachedRegistry_ReadThrough(t *testing.T) {
	backing := &countingRegistry{
		layerTypes: []domain.LayerType{{ID: "torch.nn.Linear", DisplayName: "Linear", Parameters: []domain.Parameter{}}},
	}
	cached := NewCachedRegistry(backing, NewMemory(), zerolog.Nop())
	ctx := context.Background()

	first, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, backing.listLT, "second list must be served from cache")
}

func TestCachedRegistry_WritesInvalidate(t *testing.T) {
	backing := &countingRegistry{
		layerTypes: []domain.LayerType{{ID: "torch.nn.Linear", DisplayName: "Linear", Parameters: []domain.Parameter{}}},
	}
	cached := NewCachedRegistry(backing, NewMemory(), zerolog.Nop())
	ctx := context.Background()

	_, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)

	require.NoError(t, cached.CreateLayerType(ctx, domain.LayerType{ID: "torch.nn.Dropout", DisplayName: "Dropout", Parameters: []domain.Parameter{}}))

	after, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2, "stale listing served after write")
	require.Equal(t, 2, backing.listLT)
}

func TestCachedRegistry_ImportInvalidatesBothListings(t *testing.T) {
	backing := &countingRegistry{}
	cached := NewCachedRegistry(backing, NewMemory(), zerolog.Nop())
	ctx := context.Background()

	_, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)
	_, err = cached.ListFunctions(ctx)
	require.NoError(t, err)

	err = cached.Import(ctx,
		[]domain.LayerType{{ID: "torch.nn.Linear", Parameters: []domain.Parameter{}}},
		[]domain.Function{{ID: "relu", Parameters: []domain.Parameter{}}},
		false)
	require.NoError(t, err)

	lts, err := cached.ListLayerTypes(ctx)
	require.NoError(t, err)
	require.Len(t, lts, 1)
	fns, err := cached.ListFunctions(ctx)
	require.NoError(t, err)
	require.Len(t, fns, 1)
}
