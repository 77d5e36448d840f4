package domain

// Parameter type tags as declared by catalog entries. The tag decides how a
// raw value is validated before it is stored.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeNumber = "number"
	TypeBool   = "bool"
	TypeString = "string"
	TypeLayer  = "layer"
)

// Parameter is a typed parameter definition on a catalog entry.
type Parameter struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue,omitempty"`
	Required     bool   `json:"required"`
}

// LayerType is a catalog entry describing a composable layer, identified by a
// stable vendor-qualified key (e.g. "torch.nn.Linear").
type LayerType struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"layerName"`
	Description string      `json:"description,omitempty"`
	Parameters  []Parameter `json:"parameters"`
}

// Parameter returns the named parameter definition, if declared.
func (lt *LayerType) Parameter(name string) (Parameter, bool) {
	return findParameter(lt.Parameters, name)
}

// Function is a catalog entry describing an activation function.
type Function struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  []Parameter `json:"parameters"`
}

// Parameter returns the named parameter definition, if declared.
func (f *Function) Parameter(name string) (Parameter, bool) {
	return findParameter(f.Parameters, name)
}

func findParameter(params []Parameter, name string) (Parameter, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}
