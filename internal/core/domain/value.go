package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the two value variants. The set is closed: a
// parameter value is either a string-encoded scalar or a reference to a
// layer in the same model.
type ValueKind string

const (
	ValuePrimitive ValueKind = "primitive"
	ValueLayerRef  ValueKind = "layer"
)

// Value is the tagged storage for a parameter's concrete setting.
type Value struct {
	Kind      ValueKind `json:"kind"`
	Primitive string    `json:"primitive,omitempty"`
	LayerID   string    `json:"layerId,omitempty"`
}

// ResolvedValue is the displayable form of a Value. For layer references the
// name is re-read from the target at resolve time, never cached.
type ResolvedValue struct {
	Value   string `json:"value"`
	LayerID string `json:"id,omitempty"`
}

// ParseValue validates raw against the parameter's declared type tag and
// returns the value to store. For "layer" parameters raw must be the id of a
// layer in m; anything else is ErrInvalidReference. Scalar tags that fail to
// parse are ErrTypeMismatch.
func ParseValue(p Parameter, raw string, m *Model) (Value, error) {
	switch normalizeType(p.Type) {
	case TypeLayer:
		if m == nil {
			return Value{}, fmt.Errorf("%w: no model context", ErrInvalidReference)
		}
		if _, ok := m.LayerByID(raw); !ok {
			return Value{}, fmt.Errorf("%w: layer %q does not exist in this model", ErrInvalidReference, raw)
		}
		return Value{Kind: ValueLayerRef, LayerID: raw}, nil
	case TypeInt:
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, raw)
		}
	case TypeFloat, TypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, raw)
		}
	case TypeBool:
		if _, err := strconv.ParseBool(strings.ToLower(raw)); err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, raw)
		}
	}
	return Value{Kind: ValuePrimitive, Primitive: raw}, nil
}

// Resolve returns the displayable form of the value. Layer references resolve
// lazily: the target's current display name is read from the model on every
// call, so renames are always reflected.
func (v Value) Resolve(m *Model) (ResolvedValue, error) {
	if v.Kind != ValueLayerRef {
		return ResolvedValue{Value: v.Primitive}, nil
	}
	layer, ok := m.LayerByID(v.LayerID)
	if !ok {
		return ResolvedValue{}, fmt.Errorf("%w: layer %q", ErrInvalidReference, v.LayerID)
	}
	return ResolvedValue{Value: layer.Name, LayerID: layer.ID}, nil
}

// normalizeType maps catalog type spellings onto the canonical tags. Imported
// catalogs carry python-flavoured names ("str", "boolean").
func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "int", "integer":
		return TypeInt
	case "float", "double":
		return TypeFloat
	case "number":
		return TypeNumber
	case "bool", "boolean":
		return TypeBool
	case "layer":
		return TypeLayer
	default:
		return TypeString
	}
}
