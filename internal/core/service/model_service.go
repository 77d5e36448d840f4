package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// ModelService implements the use-case operations on the model aggregate.
// Every mutation runs inside a single repository transaction that holds a
// row lock on the model, so invariants are re-validated against current
// persisted state rather than anything cached.
type ModelService struct {
	models  ports.ModelRepository
	catalog ports.CatalogRegistry
	logger  zerolog.Logger
	now     func() time.Time
}

func NewModelService(models ports.ModelRepository, catalog ports.CatalogRegistry, logger zerolog.Logger) *ModelService {
	return &ModelService{models: models, catalog: catalog, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ModelService) Create(ctx context.Context, ownerID, name string) (*domain.Model, error) {
	taken, err := s.models.NameExists(ctx, ownerID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: you already use the name %q", domain.ErrValidation, name)
	}

	model, err := domain.NewModel(uuid.NewString(), name, ownerID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.models.Create(ctx, model); err != nil {
		s.logger.Error().Err(err).Str("user_id", ownerID).Msg("failed to create model")
		return nil, err
	}

	s.logger.Info().Str("model_id", model.ID).Str("user_id", ownerID).Msg("model created")
	return model, nil
}

func (s *ModelService) Rename(ctx context.Context, modelID, actingUserID, newName string) (*domain.Model, error) {
	taken, err := s.models.NameExists(ctx, actingUserID, newName, modelID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: you already use the name %q", domain.ErrValidation, newName)
	}

	return s.mutate(ctx, modelID, actingUserID, "rename", func(m *domain.Model) error {
		return m.Rename(newName, s.now())
	})
}

func (s *ModelService) Get(ctx context.Context, modelID, actingUserID string) (*domain.Model, error) {
	model, err := s.models.FindByID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if err := domain.RequireOwner(model, actingUserID); err != nil {
		return nil, err
	}
	return model, nil
}

func (s *ModelService) List(ctx context.Context, ownerID string) ([]*domain.Model, error) {
	return s.models.ListByOwner(ctx, ownerID)
}

func (s *ModelService) Delete(ctx context.Context, modelID, actingUserID string) error {
	if _, err := s.Get(ctx, modelID, actingUserID); err != nil {
		return err
	}
	if err := s.models.Delete(ctx, modelID); err != nil {
		return err
	}
	s.logger.Info().Str("model_id", modelID).Str("user_id", actingUserID).Msg("model deleted")
	return nil
}

func (s *ModelService) AddLayer(ctx context.Context, modelID, actingUserID, layerTypeID string) (*domain.Model, error) {
	layerType, err := s.catalog.GetLayerType(ctx, layerTypeID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, modelID, actingUserID, "add_layer", func(m *domain.Model) error {
		layer := m.AddLayer(uuid.NewString(), layerType, s.now())
		s.logger.Debug().Str("model_id", modelID).Str("layer_id", layer.ID).Str("layer_name", layer.Name).Msg("layer added")
		return nil
	})
}

func (s *ModelService) RemoveLayer(ctx context.Context, modelID, actingUserID, layerID string) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "remove_layer", func(m *domain.Model) error {
		return m.RemoveLayer(layerID, s.now())
	})
}

func (s *ModelService) ReorderLayer(ctx context.Context, modelID, actingUserID, layerID string, newIndex int) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "reorder_layer", func(m *domain.Model) error {
		return m.ReorderLayer(layerID, newIndex, s.now())
	})
}

func (s *ModelService) SetLayerParameter(ctx context.Context, modelID, actingUserID, layerID, parameterName, rawValue string) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "set_layer_parameter", func(m *domain.Model) error {
		layer, ok := m.LayerByID(layerID)
		if !ok {
			return fmt.Errorf("%w: layer %q", domain.ErrNotFound, layerID)
		}
		layerType, err := s.catalog.GetLayerType(ctx, layer.TypeID)
		if err != nil {
			return err
		}
		return m.SetLayerParameter(layerID, layerType.Parameters, parameterName, rawValue, s.now())
	})
}

func (s *ModelService) AddActivator(ctx context.Context, input ports.AddActivatorInput) (*domain.Model, error) {
	if (input.FunctionID == "") == (input.LayerID == "") {
		return nil, fmt.Errorf("%w: exactly one of functionId or layerId is required", domain.ErrValidation)
	}

	kind, targetID := domain.ActivatorFunction, input.FunctionID
	if input.LayerID != "" {
		kind, targetID = domain.ActivatorLayer, input.LayerID
	} else {
		// The function must exist before an instance can be bound to it.
		if _, err := s.catalog.GetFunction(ctx, input.FunctionID); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, input.ModelID, input.ActingUserID, "add_activator", func(m *domain.Model) error {
		_, err := m.AddActivator(uuid.NewString(), kind, targetID, s.now())
		return err
	})
}

func (s *ModelService) RemoveActivator(ctx context.Context, modelID, actingUserID, activatorID string) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "remove_activator", func(m *domain.Model) error {
		return m.RemoveActivator(activatorID, s.now())
	})
}

func (s *ModelService) ReorderActivator(ctx context.Context, modelID, actingUserID, activatorID string, newIndex int) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "reorder_activator", func(m *domain.Model) error {
		return m.ReorderActivator(activatorID, newIndex, s.now())
	})
}

func (s *ModelService) SetActivatorParameter(ctx context.Context, modelID, actingUserID, activatorID, parameterName, rawValue string) (*domain.Model, error) {
	return s.mutate(ctx, modelID, actingUserID, "set_activator_parameter", func(m *domain.Model) error {
		defs, err := s.activatorParameterDefs(ctx, m, activatorID)
		if err != nil {
			return err
		}
		return m.SetActivatorParameter(activatorID, defs, parameterName, rawValue, s.now())
	})
}

// activatorParameterDefs resolves the catalog parameter definitions that
// apply to an activator: the bound function's for function activators, the
// bound layer's type for layer activators.
func (s *ModelService) activatorParameterDefs(ctx context.Context, m *domain.Model, activatorID string) ([]domain.Parameter, error) {
	activator, ok := m.ActivatorByID(activatorID)
	if !ok {
		return nil, fmt.Errorf("%w: activator %q", domain.ErrNotFound, activatorID)
	}
	if activator.Kind == domain.ActivatorFunction {
		fn, err := s.catalog.GetFunction(ctx, activator.FunctionID)
		if err != nil {
			return nil, err
		}
		return fn.Parameters, nil
	}
	layer, ok := m.LayerByID(activator.LayerID)
	if !ok {
		return nil, fmt.Errorf("%w: layer %q", domain.ErrInvalidReference, activator.LayerID)
	}
	layerType, err := s.catalog.GetLayerType(ctx, layer.TypeID)
	if err != nil {
		return nil, err
	}
	return layerType.Parameters, nil
}

// mutate wraps an aggregate mutation with the ownership guard and the
// repository transaction.
func (s *ModelService) mutate(ctx context.Context, modelID, actingUserID, op string, fn func(*domain.Model) error) (*domain.Model, error) {
	model, err := s.models.Mutate(ctx, modelID, func(m *domain.Model) error {
		if err := domain.RequireOwner(m, actingUserID); err != nil {
			return err
		}
		return fn(m)
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("model_id", modelID).Str("op", op).Msg("model mutation rejected")
		return nil, err
	}
	return model, nil
}
