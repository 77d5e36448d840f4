package domain

import (
	"fmt"
	"time"
)

// ActivatorKind discriminates the two activator variants: an activation
// function instance, or an existing layer of the same model used as an
// activator.
type ActivatorKind string

const (
	ActivatorFunction ActivatorKind = "function"
	ActivatorLayer    ActivatorKind = "layer"
)

// ModelLayer is an instance of a LayerType inside a specific model. Its name
// is unique within the owning model. Parameters is sparse: only explicitly
// set parameters have entries, everything else falls back to the catalog
// default.
type ModelLayer struct {
	ID         string           `json:"id"`
	TypeID     string           `json:"layerTypeId"`
	Name       string           `json:"name"`
	Position   int              `json:"position"`
	Parameters map[string]Value `json:"parameterData,omitempty"`
}

// ModelActivator is a position-ordered activator attached to a model. Exactly
// one of FunctionID or LayerID is set, depending on Kind.
type ModelActivator struct {
	ID         string           `json:"id"`
	Kind       ActivatorKind    `json:"kind"`
	FunctionID string           `json:"functionId,omitempty"`
	LayerID    string           `json:"layerId,omitempty"`
	Position   int              `json:"position"`
	Parameters map[string]Value `json:"parameterData,omitempty"`
}

// Model is the aggregate root. It owns an ordered list of layers and an
// ordered list of activators; every mutation below keeps the position
// sequences contiguous and the layer names unique, and refreshes UpdatedAt.
type Model struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	OwnerID    string            `json:"userId"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Layers     []*ModelLayer     `json:"layers"`
	Activators []*ModelActivator `json:"activators"`
}

// NewModel creates an empty model owned by ownerID.
func NewModel(id, name, ownerID string, now time.Time) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: model name is required", ErrValidation)
	}
	return &Model{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RequireOwner fails with ErrNotFound (not ErrForbidden) when the model is
// owned by someone else, so existence is never revealed to non-owners.
func RequireOwner(m *Model, userID string) error {
	if m == nil || m.OwnerID != userID {
		return ErrNotFound
	}
	return nil
}

// Touch refreshes UpdatedAt. The timestamp is monotonic: it never moves
// backwards even if the wall clock does.
func (m *Model) Touch(now time.Time) {
	if !now.After(m.UpdatedAt) {
		now = m.UpdatedAt.Add(time.Microsecond)
	}
	m.UpdatedAt = now
}

// LayerByID returns the layer with the given id, if it belongs to the model.
func (m *Model) LayerByID(id string) (*ModelLayer, bool) {
	for _, l := range m.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// ActivatorByID returns the activator with the given id, if present.
func (m *Model) ActivatorByID(id string) (*ModelActivator, bool) {
	for _, a := range m.Activators {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Rename changes the model name. Per-owner uniqueness is checked by the
// caller against persisted state.
func (m *Model) Rename(name string, now time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: model name is required", ErrValidation)
	}
	m.Name = name
	m.Touch(now)
	return nil
}

// AddLayer appends a new instance of lt at the end of the layer list. The
// display name is {DisplayName}{n+1} where n counts existing layers of the
// same type; if a sibling already claims that name the counter probes upward
// until a free one is found. Counts are recomputed from current state on
// every call.
func (m *Model) AddLayer(id string, lt *LayerType, now time.Time) *ModelLayer {
	layer := &ModelLayer{
		ID:         id,
		TypeID:     lt.ID,
		Name:       m.nextLayerName(lt),
		Position:   len(m.Layers),
		Parameters: map[string]Value{},
	}
	m.Layers = append(m.Layers, layer)
	m.renumber()
	m.Touch(now)
	return layer
}

func (m *Model) nextLayerName(lt *LayerType) string {
	n := 0
	for _, l := range m.Layers {
		if l.TypeID == lt.ID {
			n++
		}
	}
	name := fmt.Sprintf("%s%d", lt.DisplayName, n+1)
	for m.layerNameTaken(name) {
		n++
		name = fmt.Sprintf("%s%d", lt.DisplayName, n+1)
	}
	return name
}

func (m *Model) layerNameTaken(name string) bool {
	for _, l := range m.Layers {
		if l.Name == name {
			return true
		}
	}
	return false
}

// RemoveLayer deletes the layer and renumbers the remainder. Deletion is
// rejected with ErrReferencedByOther while any other instance still points at
// the layer, either through a layer-typed parameter value or a layer-bound
// activator; cascade-nulling would silently corrupt parameter data.
func (m *Model) RemoveLayer(layerID string, now time.Time) error {
	idx := -1
	for i, l := range m.Layers {
		if l.ID == layerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: layer %q", ErrNotFound, layerID)
	}
	if ref := m.referenceTo(layerID); ref != "" {
		return fmt.Errorf("%w: still referenced by %s", ErrReferencedByOther, ref)
	}
	m.Layers = append(m.Layers[:idx], m.Layers[idx+1:]...)
	m.Activators = removeLayerBoundActivators(m.Activators, layerID)
	m.renumber()
	m.Touch(now)
	return nil
}

// referenceTo names the first instance holding a reference to layerID, or ""
// when none does. The layer's own parameters are not counted.
func (m *Model) referenceTo(layerID string) string {
	for _, l := range m.Layers {
		if l.ID == layerID {
			continue
		}
		for name, v := range l.Parameters {
			if v.Kind == ValueLayerRef && v.LayerID == layerID {
				return fmt.Sprintf("layer %q parameter %q", l.Name, name)
			}
		}
	}
	for _, a := range m.Activators {
		for name, v := range a.Parameters {
			if v.Kind == ValueLayerRef && v.LayerID == layerID {
				return fmt.Sprintf("activator %q parameter %q", a.ID, name)
			}
		}
		if a.Kind == ActivatorLayer && a.LayerID == layerID {
			return fmt.Sprintf("activator %q", a.ID)
		}
	}
	return ""
}

// removeLayerBoundActivators is only reachable when no activator is bound to
// layerID (referenceTo rejects first); it is kept as the invariant backstop.
func removeLayerBoundActivators(activators []*ModelActivator, layerID string) []*ModelActivator {
	out := activators[:0]
	for _, a := range activators {
		if a.Kind == ActivatorLayer && a.LayerID == layerID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ReorderLayer moves the layer to newIndex, clamped to [0, len-1], and
// renumbers. An empty layer list fails with ErrOutOfRange.
func (m *Model) ReorderLayer(layerID string, newIndex int, now time.Time) error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: model has no layers", ErrOutOfRange)
	}
	idx := -1
	for i, l := range m.Layers {
		if l.ID == layerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: layer %q", ErrNotFound, layerID)
	}
	newIndex = clamp(newIndex, 0, len(m.Layers)-1)
	layer := m.Layers[idx]
	m.Layers = append(m.Layers[:idx], m.Layers[idx+1:]...)
	m.Layers = append(m.Layers[:newIndex], append([]*ModelLayer{layer}, m.Layers[newIndex:]...)...)
	m.renumber()
	m.Touch(now)
	return nil
}

// SetLayerParameter validates raw against the declared parameter on defs (the
// layer's catalog type) and upserts the value. Unknown names fail with
// ErrUnknownParameter and leave existing data untouched.
func (m *Model) SetLayerParameter(layerID string, defs []Parameter, name, raw string, now time.Time) error {
	layer, ok := m.LayerByID(layerID)
	if !ok {
		return fmt.Errorf("%w: layer %q", ErrNotFound, layerID)
	}
	param, ok := findParameter(defs, name)
	if !ok {
		return fmt.Errorf("%w: %q is not declared on this layer type", ErrUnknownParameter, name)
	}
	value, err := ParseValue(param, raw, m)
	if err != nil {
		return err
	}
	if layer.Parameters == nil {
		layer.Parameters = map[string]Value{}
	}
	layer.Parameters[name] = value
	m.Touch(now)
	return nil
}

// AddActivator appends an activator. For layer-bound activators the target
// must be a layer of this model.
func (m *Model) AddActivator(id string, kind ActivatorKind, targetID string, now time.Time) (*ModelActivator, error) {
	activator := &ModelActivator{
		ID:         id,
		Kind:       kind,
		Position:   len(m.Activators),
		Parameters: map[string]Value{},
	}
	switch kind {
	case ActivatorFunction:
		activator.FunctionID = targetID
	case ActivatorLayer:
		if _, ok := m.LayerByID(targetID); !ok {
			return nil, fmt.Errorf("%w: layer %q does not exist in this model", ErrInvalidReference, targetID)
		}
		activator.LayerID = targetID
	default:
		return nil, fmt.Errorf("%w: unknown activator kind %q", ErrValidation, kind)
	}
	m.Activators = append(m.Activators, activator)
	m.renumber()
	m.Touch(now)
	return activator, nil
}

// RemoveActivator deletes the activator and renumbers the remainder.
func (m *Model) RemoveActivator(activatorID string, now time.Time) error {
	idx := -1
	for i, a := range m.Activators {
		if a.ID == activatorID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: activator %q", ErrNotFound, activatorID)
	}
	m.Activators = append(m.Activators[:idx], m.Activators[idx+1:]...)
	m.renumber()
	m.Touch(now)
	return nil
}

// ReorderActivator mirrors ReorderLayer on the activator list.
func (m *Model) ReorderActivator(activatorID string, newIndex int, now time.Time) error {
	if len(m.Activators) == 0 {
		return fmt.Errorf("%w: model has no activators", ErrOutOfRange)
	}
	idx := -1
	for i, a := range m.Activators {
		if a.ID == activatorID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("%w: activator %q", ErrNotFound, activatorID)
	}
	newIndex = clamp(newIndex, 0, len(m.Activators)-1)
	activator := m.Activators[idx]
	m.Activators = append(m.Activators[:idx], m.Activators[idx+1:]...)
	m.Activators = append(m.Activators[:newIndex], append([]*ModelActivator{activator}, m.Activators[newIndex:]...)...)
	m.renumber()
	m.Touch(now)
	return nil
}

// SetActivatorParameter mirrors SetLayerParameter on an activator. defs are
// the parameter definitions of the bound function, or of the bound layer's
// type for layer-bound activators.
func (m *Model) SetActivatorParameter(activatorID string, defs []Parameter, name, raw string, now time.Time) error {
	activator, ok := m.ActivatorByID(activatorID)
	if !ok {
		return fmt.Errorf("%w: activator %q", ErrNotFound, activatorID)
	}
	param, ok := findParameter(defs, name)
	if !ok {
		return fmt.Errorf("%w: %q is not declared on this activator", ErrUnknownParameter, name)
	}
	value, err := ParseValue(param, raw, m)
	if err != nil {
		return err
	}
	if activator.Parameters == nil {
		activator.Parameters = map[string]Value{}
	}
	activator.Parameters[name] = value
	m.Touch(now)
	return nil
}

// renumber rewrites both position sequences as 0..n-1 in slice order. It runs
// after every structural mutation so gaps and duplicates cannot survive a
// commit.
func (m *Model) renumber() {
	for i, l := range m.Layers {
		l.Position = i
	}
	for i, a := range m.Activators {
		a.Position = i
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
