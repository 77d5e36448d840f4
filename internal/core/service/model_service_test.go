package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubModelRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Model
	mutErr error // if set, Mutate returns this error after fn succeeds
}

func newStubModelRepo() *stubModelRepo {
	return &stubModelRepo{byID: make(map[string]*domain.Model)}
}

func (r *stubModelRepo) Create(_ context.Context, m *domain.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cloneModel(m)
	r.byID[m.ID] = clone
	return nil
}

func (r *stubModelRepo) FindByID(_ context.Context, id string) (*domain.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: model %q", domain.ErrNotFound, id)
	}
	return cloneModel(m), nil
}

func (r *stubModelRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Model
	for _, m := range r.byID {
		if m.OwnerID == ownerID {
			out = append(out, cloneModel(m))
		}
	}
	return out, nil
}

func (r *stubModelRepo) NameExists(_ context.Context, ownerID, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.OwnerID == ownerID && m.Name == name && m.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Mutate serializes callers on a mutex, mirroring the row lock the real
// Postgres repository takes.
func (r *stubModelRepo) Mutate(_ context.Context, modelID string, fn func(*domain.Model) error) (*domain.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: model %q", domain.ErrNotFound, modelID)
	}
	work := cloneModel(m)
	if err := fn(work); err != nil {
		return nil, err
	}
	if r.mutErr != nil {
		return nil, r.mutErr
	}
	r.byID[modelID] = cloneModel(work)
	return work, nil
}

func (r *stubModelRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: model %q", domain.ErrNotFound, id)
	}
	delete(r.byID, id)
	return nil
}

func (r *stubModelRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func cloneModel(m *domain.Model) *domain.Model {
	clone := *m
	clone.Layers = make([]*domain.ModelLayer, len(m.Layers))
	for i, l := range m.Layers {
		lc := *l
		lc.Parameters = make(map[string]domain.Value, len(l.Parameters))
		for k, v := range l.Parameters {
			lc.Parameters[k] = v
		}
		clone.Layers[i] = &lc
	}
	clone.Activators = make([]*domain.ModelActivator, len(m.Activators))
	for i, a := range m.Activators {
		ac := *a
		ac.Parameters = make(map[string]domain.Value, len(a.Parameters))
		for k, v := range a.Parameters {
			ac.Parameters[k] = v
		}
		clone.Activators[i] = &ac
	}
	return &clone
}

type stubRegistry struct {
	layerTypes map[string]domain.LayerType
	functions  map[string]domain.Function
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		layerTypes: map[string]domain.LayerType{
			"torch.nn.Linear": {
				ID:          "torch.nn.Linear",
				DisplayName: "Linear",
				Parameters: []domain.Parameter{
					{Name: "in_features", Type: domain.TypeInt, Required: true},
					{Name: "out_features", Type: domain.TypeInt, Required: true},
				},
			},
			"torch.nn.Conv2d": {
				ID:          "torch.nn.Conv2d",
				DisplayName: "Conv2d",
				Parameters: []domain.Parameter{
					{Name: "in_channels", Type: domain.TypeInt, Required: true},
					{Name: "skip_from", Type: domain.TypeLayer},
				},
			},
		},
		functions: map[string]domain.Function{
			"relu": {ID: "relu", DisplayName: "ReLU", Parameters: []domain.Parameter{}},
			"leaky_relu": {
				ID:          "leaky_relu",
				DisplayName: "LeakyReLU",
				Parameters:  []domain.Parameter{{Name: "negative_slope", Type: domain.TypeFloat, DefaultValue: "0.01"}},
			},
		},
	}
}

func (r *stubRegistry) ListLayerTypes(_ context.Context) ([]domain.LayerType, error) {
	out := make([]domain.LayerType, 0, len(r.layerTypes))
	for _, lt := range r.layerTypes {
		out = append(out, lt)
	}
	return out, nil
}

func (r *stubRegistry) GetLayerType(_ context.Context, id string) (*domain.LayerType, error) {
	lt, ok := r.layerTypes[id]
	if !ok {
		return nil, fmt.Errorf("%w: layer type %q", domain.ErrNotFound, id)
	}
	return &lt, nil
}

func (r *stubRegistry) CreateLayerType(_ context.Context, lt domain.LayerType) error {
	if _, ok := r.layerTypes[lt.ID]; ok {
		return domain.ErrDuplicateKey
	}
	r.layerTypes[lt.ID] = lt
	return nil
}

func (r *stubRegistry) DeleteLayerType(_ context.Context, id string) error {
	delete(r.layerTypes, id)
	return nil
}

func (r *stubRegistry) ListFunctions(_ context.Context) ([]domain.Function, error) {
	out := make([]domain.Function, 0, len(r.functions))
	for _, fn := range r.functions {
		out = append(out, fn)
	}
	return out, nil
}

func (r *stubRegistry) GetFunction(_ context.Context, id string) (*domain.Function, error) {
	fn, ok := r.functions[id]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", domain.ErrNotFound, id)
	}
	return &fn, nil
}

func (r *stubRegistry) CreateFunction(_ context.Context, fn domain.Function) error {
	r.functions[fn.ID] = fn
	return nil
}

func (r *stubRegistry) AddFunctionParameter(_ context.Context, functionID string, p domain.Parameter) (*domain.Function, error) {
	fn, ok := r.functions[functionID]
	if !ok {
		return nil, fmt.Errorf("%w: function %q", domain.ErrNotFound, functionID)
	}
	fn.Parameters = append(fn.Parameters, p)
	r.functions[functionID] = fn
	return &fn, nil
}

func (r *stubRegistry) DeleteFunction(_ context.Context, id string) error {
	delete(r.functions, id)
	return nil
}

func (r *stubRegistry) Import(_ context.Context, layerTypes []domain.LayerType, functions []domain.Function, replace bool) error {
	if replace {
		r.layerTypes = map[string]domain.LayerType{}
		r.functions = map[string]domain.Function{}
	}
	for _, lt := range layerTypes {
		if _, ok := r.layerTypes[lt.ID]; !ok || replace {
			r.layerTypes[lt.ID] = lt
		}
	}
	for _, fn := range functions {
		if _, ok := r.functions[fn.ID]; !ok || replace {
			r.functions[fn.ID] = fn
		}
	}
	return nil
}

func newModelService(repo *stubModelRepo) *ModelService {
	return NewModelService(repo, newStubRegistry(), zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreate_DuplicateNamePerOwner(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", "mnist"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", "mnist"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate name, got %v", err)
	}

	// A different owner may reuse the name.
	if _, err := svc.Create(ctx, "u2", "mnist"); err != nil {
		t.Fatalf("create for other owner: %v", err)
	}
}

func TestGet_OwnershipMaskedAsNotFound(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", "mnist")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, m.ID, "intruder"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestMutations_OwnershipMaskedAsNotFound(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", "mnist")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddLayer(ctx, m.ID, "intruder", "torch.nn.Linear"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("AddLayer: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, m.ID, "intruder"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

// End-to-end composition scenario: build a small network, wire a reference,
// reorder, and verify the rejection paths leave state unchanged.
func TestComposeScenario(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, err := svc.Create(ctx, "u1", "resnet-ish")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err = svc.AddLayer(ctx, m.ID, "u1", "torch.nn.Conv2d"); err != nil {
		t.Fatalf("add conv: %v", err)
	}
	if _, err = svc.AddLayer(ctx, m.ID, "u1", "torch.nn.Conv2d"); err != nil {
		t.Fatalf("add conv2: %v", err)
	}
	state, err := svc.AddLayer(ctx, m.ID, "u1", "torch.nn.Linear")
	if err != nil {
		t.Fatalf("add linear: %v", err)
	}
	if len(state.Layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(state.Layers))
	}
	conv1, conv2 := state.Layers[0], state.Layers[1]

	// Wire conv2.skip_from -> conv1.
	state, err = svc.SetLayerParameter(ctx, m.ID, "u1", conv2.ID, "skip_from", conv1.ID)
	if err != nil {
		t.Fatalf("set skip_from: %v", err)
	}

	// conv1 is now referenced: removal is refused and nothing changes.
	if _, err := svc.RemoveLayer(ctx, m.ID, "u1", conv1.ID); !errors.Is(err, domain.ErrReferencedByOther) {
		t.Fatalf("expected ErrReferencedByOther, got %v", err)
	}
	after, err := svc.Get(ctx, m.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(after.Layers) != 3 {
		t.Fatalf("rejected removal changed persisted state: %d layers", len(after.Layers))
	}

	// Unknown parameter name leaves stored data untouched.
	if _, err := svc.SetLayerParameter(ctx, m.ID, "u1", conv2.ID, "bogus", "1"); !errors.Is(err, domain.ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	after, _ = svc.Get(ctx, m.ID, "u1")
	l2, _ := after.LayerByID(conv2.ID)
	if _, ok := l2.Parameters["bogus"]; ok {
		t.Fatalf("unknown parameter was stored")
	}

	// Activators: add a function activator and a layer-bound one.
	state, err = svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", FunctionID: "relu"})
	if err != nil {
		t.Fatalf("add relu: %v", err)
	}
	state, err = svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", LayerID: conv1.ID})
	if err != nil {
		t.Fatalf("add layer activator: %v", err)
	}
	if len(state.Activators) != 2 {
		t.Fatalf("expected 2 activators, got %d", len(state.Activators))
	}

	// Reorder the last activator to the front.
	state, err = svc.ReorderActivator(ctx, m.ID, "u1", state.Activators[1].ID, 0)
	if err != nil {
		t.Fatalf("reorder activator: %v", err)
	}
	if state.Activators[0].Kind != domain.ActivatorLayer {
		t.Fatalf("expected layer activator first, got %v", state.Activators[0].Kind)
	}
	for i, a := range state.Activators {
		if a.Position != i {
			t.Fatalf("activator positions not contiguous after reorder")
		}
	}
}

func TestAddActivator_XorValidation(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", "m")

	_, err := svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for neither target, got %v", err)
	}
	_, err = svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", FunctionID: "relu", LayerID: "l1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for both targets, got %v", err)
	}
	_, err = svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", FunctionID: "ghost"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown function, got %v", err)
	}
}

func TestSetActivatorParameter_FunctionDefs(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", "m")
	state, err := svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", FunctionID: "leaky_relu"})
	if err != nil {
		t.Fatalf("add activator: %v", err)
	}
	activatorID := state.Activators[0].ID

	state, err = svc.SetActivatorParameter(ctx, m.ID, "u1", activatorID, "negative_slope", "0.2")
	if err != nil {
		t.Fatalf("set parameter: %v", err)
	}
	a, _ := state.ActivatorByID(activatorID)
	if a.Parameters["negative_slope"].Primitive != "0.2" {
		t.Fatalf("parameter not stored: %v", a.Parameters)
	}

	// ReLU declares no parameters at all.
	state, err = svc.AddActivator(ctx, ports.AddActivatorInput{ModelID: m.ID, ActingUserID: "u1", FunctionID: "relu"})
	if err != nil {
		t.Fatalf("add relu: %v", err)
	}
	reluID := state.Activators[1].ID
	if _, err := svc.SetActivatorParameter(ctx, m.ID, "u1", reluID, "negative_slope", "0.2"); !errors.Is(err, domain.ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
}

// Concurrent AddLayer calls racing through the mutex-guarded Mutate must end
// with contiguous positions and unique names, never lost updates.
func TestAddLayer_Concurrent(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m, _ := svc.Create(ctx, "u1", "m")

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.AddLayer(ctx, m.ID, "u1", "torch.nn.Linear"); err != nil {
				t.Errorf("AddLayer: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := svc.Get(ctx, m.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.Layers) != workers {
		t.Fatalf("lost updates: %d layers after %d adds", len(state.Layers), workers)
	}
	names := map[string]bool{}
	for i, l := range state.Layers {
		if l.Position != i {
			t.Fatalf("positions not contiguous: %v at %d", l.Position, i)
		}
		if names[l.Name] {
			t.Fatalf("duplicate layer name %q", l.Name)
		}
		names[l.Name] = true
	}
}

func TestRename_ChecksUniquenessExcludingSelf(t *testing.T) {
	repo := newStubModelRepo()
	svc := newModelService(repo)
	ctx := context.Background()

	m1, _ := svc.Create(ctx, "u1", "one")
	if _, err := svc.Create(ctx, "u1", "two"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Renaming to its own name is a no-op conflict-wise.
	if _, err := svc.Rename(ctx, m1.ID, "u1", "one"); err != nil {
		t.Fatalf("rename to own name: %v", err)
	}
	if _, err := svc.Rename(ctx, m1.ID, "u1", "two"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
