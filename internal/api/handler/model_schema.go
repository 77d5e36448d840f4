package handler

// --- Request types ---

type createModelRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type renameModelRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type addLayerRequest struct {
	LayerTypeID string `json:"layerTypeId" validate:"required"`
}

type reorderRequest struct {
	Index int `json:"index"`
}

type setParameterRequest struct {
	Value string `json:"value" validate:"required"`
}

// addActivatorRequest selects the activator variant: exactly one of
// functionId or layerId must be set. The XOR is enforced by the service.
type addActivatorRequest struct {
	FunctionID string `json:"functionId,omitempty"`
	LayerID    string `json:"layerId,omitempty"`
}

type createFunctionRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description,omitempty"`
}

type addFunctionParameterRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Type         string `json:"type" validate:"required"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

type importCatalogRequest struct {
	Replace bool `json:"replace"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal aggregate changes.

type modelResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	UserID     string              `json:"userId"`
	CreatedAt  string              `json:"createdAt"`
	UpdatedAt  string              `json:"updatedAt"`
	Layers     []layerResponse     `json:"layers"`
	Activators []activatorResponse `json:"activators"`
}

type layerResponse struct {
	ID          string              `json:"id"`
	LayerTypeID string              `json:"layerTypeId"`
	LayerName   string              `json:"layerName"`
	Name        string              `json:"name"`
	Position    int                 `json:"position"`
	Parameters  []parameterResponse `json:"parameters"`
}

type activatorResponse struct {
	ID         string              `json:"id"`
	Kind       string              `json:"kind"`
	FunctionID string              `json:"functionId,omitempty"`
	LayerID    string              `json:"layerId,omitempty"`
	Name       string              `json:"name"`
	Position   int                 `json:"position"`
	Parameters []parameterResponse `json:"parameters"`
}

// parameterResponse merges the catalog declaration with the stored value.
// Value is nil while the parameter is unset; layer references resolve to
// {"value": "<layerName>", "id": "<layerID>"}.
type parameterResponse struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	DefaultValue string         `json:"defaultValue,omitempty"`
	Required     bool           `json:"required"`
	Value        *resolvedValue `json:"value,omitempty"`
}

type resolvedValue struct {
	Value   string `json:"value"`
	LayerID string `json:"id,omitempty"`
}

type modelSummaryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Layers    int    `json:"layerCount"`
}

type listModelsResponse struct {
	Data []modelSummaryResponse `json:"data"`
}
