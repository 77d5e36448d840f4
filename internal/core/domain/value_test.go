package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseValue_Scalars(t *testing.T) {
	cases := []struct {
		name    string
		typeTag string
		raw     string
		wantErr error
	}{
		{"int ok", TypeInt, "42", nil},
		{"int bad", TypeInt, "4.2", ErrTypeMismatch},
		{"float ok", TypeFloat, "0.5", nil},
		{"float bad", TypeFloat, "half", ErrTypeMismatch},
		{"number ok", TypeNumber, "1e-5", nil},
		{"bool ok", TypeBool, "True", nil},
		{"bool bad", TypeBool, "yes", ErrTypeMismatch},
		{"string anything", TypeString, "whatever", nil},
		{"unknown tag falls back to string", "tensor", "x", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseValue(Parameter{Name: "p", Type: tc.typeTag}, tc.raw, nil)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, ValuePrimitive, v.Kind)
			require.Equal(t, tc.raw, v.Primitive)
		})
	}
}

func TestParseValue_PythonSpellings(t *testing.T) {
	_, err := ParseValue(Parameter{Name: "p", Type: "boolean"}, "nope", nil)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ParseValue(Parameter{Name: "p", Type: "integer"}, "x", nil)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestParseValue_LayerReference(t *testing.T) {
	now := time.Now().UTC()
	m, err := NewModel("m1", "model", "u1", now)
	require.NoError(t, err)
	layer := m.AddLayer("l1", linearType, now)

	v, err := ParseValue(Parameter{Name: "p", Type: TypeLayer}, layer.ID, m)
	require.NoError(t, err)
	require.Equal(t, ValueLayerRef, v.Kind)
	require.Equal(t, layer.ID, v.LayerID)

	_, err = ParseValue(Parameter{Name: "p", Type: TypeLayer}, "ghost", m)
	require.ErrorIs(t, err, ErrInvalidReference)
}

// A renamed target must be reflected the next time the value resolves; the
// display name is never cached inside the value.
func TestResolve_LayerRefReflectsCurrentName(t *testing.T) {
	now := time.Now().UTC()
	m, err := NewModel("m1", "model", "u1", now)
	require.NoError(t, err)
	target := m.AddLayer("l1", linearType, now)

	v, err := ParseValue(Parameter{Name: "p", Type: TypeLayer}, target.ID, m)
	require.NoError(t, err)

	resolved, err := v.Resolve(m)
	require.NoError(t, err)
	require.Equal(t, "Linear1", resolved.Value)
	require.Equal(t, target.ID, resolved.LayerID)

	target.Name = "Backbone"
	resolved, err = v.Resolve(m)
	require.NoError(t, err)
	require.Equal(t, "Backbone", resolved.Value)
}

func TestResolve_Primitive(t *testing.T) {
	v := Value{Kind: ValuePrimitive, Primitive: "64"}
	resolved, err := v.Resolve(nil)
	require.NoError(t, err)
	require.Equal(t, "64", resolved.Value)
	require.Empty(t, resolved.LayerID)
}
