package handler

import (
	"context"
	"time"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// catalogIndex is a per-request snapshot of the catalog used to merge
// parameter declarations into model responses.
type catalogIndex struct {
	layerTypes map[string]domain.LayerType
	functions  map[string]domain.Function
}

func buildCatalogIndex(ctx context.Context, catalog ports.CatalogService) (*catalogIndex, error) {
	layerTypes, err := catalog.ListLayerTypes(ctx)
	if err != nil {
		return nil, err
	}
	functions, err := catalog.ListFunctions(ctx)
	if err != nil {
		return nil, err
	}

	idx := &catalogIndex{
		layerTypes: make(map[string]domain.LayerType, len(layerTypes)),
		functions:  make(map[string]domain.Function, len(functions)),
	}
	for _, lt := range layerTypes {
		idx.layerTypes[lt.ID] = lt
	}
	for _, fn := range functions {
		idx.functions[fn.ID] = fn
	}
	return idx, nil
}

// toModelResponse renders the aggregate with each layer's and activator's
// parameter declarations merged with the stored values. Layer references
// resolve to the target's current name at render time.
func toModelResponse(m *domain.Model, idx *catalogIndex) modelResponse {
	resp := modelResponse{
		ID:         m.ID,
		Name:       m.Name,
		UserID:     m.OwnerID,
		CreatedAt:  formatTime(m.CreatedAt),
		UpdatedAt:  formatTime(m.UpdatedAt),
		Layers:     make([]layerResponse, len(m.Layers)),
		Activators: make([]activatorResponse, len(m.Activators)),
	}

	for i, layer := range m.Layers {
		lt := idx.layerTypes[layer.TypeID]
		resp.Layers[i] = layerResponse{
			ID:          layer.ID,
			LayerTypeID: layer.TypeID,
			LayerName:   lt.DisplayName,
			Name:        layer.Name,
			Position:    layer.Position,
			Parameters:  toParameterResponses(m, lt.Parameters, layer.Parameters),
		}
	}

	for i, activator := range m.Activators {
		out := activatorResponse{
			ID:         activator.ID,
			Kind:       string(activator.Kind),
			FunctionID: activator.FunctionID,
			LayerID:    activator.LayerID,
			Position:   activator.Position,
		}
		var defs []domain.Parameter
		switch activator.Kind {
		case domain.ActivatorFunction:
			fn := idx.functions[activator.FunctionID]
			out.Name = fn.DisplayName
			defs = fn.Parameters
		case domain.ActivatorLayer:
			if layer, ok := m.LayerByID(activator.LayerID); ok {
				out.Name = layer.Name
				defs = idx.layerTypes[layer.TypeID].Parameters
			}
		}
		out.Parameters = toParameterResponses(m, defs, activator.Parameters)
		resp.Activators[i] = out
	}

	return resp
}

func toParameterResponses(m *domain.Model, defs []domain.Parameter, values map[string]domain.Value) []parameterResponse {
	out := make([]parameterResponse, len(defs))
	for i, def := range defs {
		p := parameterResponse{
			Name:         def.Name,
			Type:         def.Type,
			DefaultValue: def.DefaultValue,
			Required:     def.Required,
		}
		if value, ok := values[def.Name]; ok {
			if resolved, err := value.Resolve(m); err == nil {
				p.Value = &resolvedValue{Value: resolved.Value, LayerID: resolved.LayerID}
			}
		}
		out[i] = p
	}
	return out
}

func toListResponse(models []*domain.Model) listModelsResponse {
	items := make([]modelSummaryResponse, len(models))
	for i, m := range models {
		items[i] = modelSummaryResponse{
			ID:        m.ID,
			Name:      m.Name,
			UserID:    m.OwnerID,
			CreatedAt: formatTime(m.CreatedAt),
			UpdatedAt: formatTime(m.UpdatedAt),
			Layers:    len(m.Layers),
		}
	}
	return listModelsResponse{Data: items}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
