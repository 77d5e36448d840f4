package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// AddActivatorInput selects the activator variant: exactly one of FunctionID
// or LayerID must be set.
type AddActivatorInput struct {
	ModelID      string
	ActingUserID string
	FunctionID   string
	LayerID      string
}

// ModelService defines the use-case operations on the model aggregate. Every
// mutation is atomic: it either commits completely or leaves persisted state
// unchanged. Operations on models owned by someone else fail with
// domain.ErrNotFound, indistinguishable from a missing model.
type ModelService interface {
	Create(ctx context.Context, ownerID, name string) (*domain.Model, error)
	Rename(ctx context.Context, modelID, actingUserID, newName string) (*domain.Model, error)
	Get(ctx context.Context, modelID, actingUserID string) (*domain.Model, error)
	List(ctx context.Context, ownerID string) ([]*domain.Model, error)
	Delete(ctx context.Context, modelID, actingUserID string) error

	AddLayer(ctx context.Context, modelID, actingUserID, layerTypeID string) (*domain.Model, error)
	RemoveLayer(ctx context.Context, modelID, actingUserID, layerID string) (*domain.Model, error)
	ReorderLayer(ctx context.Context, modelID, actingUserID, layerID string, newIndex int) (*domain.Model, error)
	SetLayerParameter(ctx context.Context, modelID, actingUserID, layerID, parameterName, rawValue string) (*domain.Model, error)

	AddActivator(ctx context.Context, input AddActivatorInput) (*domain.Model, error)
	RemoveActivator(ctx context.Context, modelID, actingUserID, activatorID string) (*domain.Model, error)
	ReorderActivator(ctx context.Context, modelID, actingUserID, activatorID string, newIndex int) (*domain.Model, error)
	SetActivatorParameter(ctx context.Context, modelID, actingUserID, activatorID, parameterName, rawValue string) (*domain.Model, error)
}
