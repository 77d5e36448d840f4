package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurodex/neurodex/internal/core/domain"
)

func TestImportExternalCatalog(t *testing.T) {
	layerTypes, functions, err := NewTorchImporter().ImportExternalCatalog(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, layerTypes)
	require.NotEmpty(t, functions)

	byID := map[string]domain.LayerType{}
	for _, lt := range layerTypes {
		require.NotEmpty(t, lt.ID)
		require.NotEmpty(t, lt.DisplayName)
		require.NotNil(t, lt.Parameters)
		byID[lt.ID] = lt
	}

	linear, ok := byID["torch.nn.Linear"]
	require.True(t, ok, "catalog must carry torch.nn.Linear")
	inFeatures, ok := linear.Parameter("in_features")
	require.True(t, ok)
	require.Equal(t, domain.TypeInt, inFeatures.Type)
	require.True(t, inFeatures.Required)

	for _, fn := range functions {
		require.NotEmpty(t, fn.ID)
		require.NotEmpty(t, fn.DisplayName)
		require.NotNil(t, fn.Parameters)
	}
}

// Every declared parameter type must be accepted by the value parser, so an
// imported catalog can never declare an unstorable parameter.
func TestImportedTypesAreParseable(t *testing.T) {
	layerTypes, functions, err := NewTorchImporter().ImportExternalCatalog(context.Background())
	require.NoError(t, err)

	probe := map[string]string{
		domain.TypeInt:    "1",
		domain.TypeFloat:  "0.5",
		domain.TypeNumber: "2",
		domain.TypeBool:   "true",
		domain.TypeString: "x",
	}

	check := func(params []domain.Parameter) {
		for _, p := range params {
			raw, ok := probe[p.Type]
			require.True(t, ok, "unexpected parameter type %q", p.Type)
			_, err := domain.ParseValue(p, raw, nil)
			require.NoError(t, err)
		}
	}

	for _, lt := range layerTypes {
		check(lt.Parameters)
	}
	for _, fn := range functions {
		check(fn.Parameters)
	}
}
