package importer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/neurodex/neurodex/internal/core/domain"
)

//go:embed catalog.json
var catalogJSON []byte

// TorchImporter exposes a curated snapshot of the torch.nn module catalog:
// the layer classes and activation functions the composer can build models
// from, with their constructor parameters.
type TorchImporter struct{}

func NewTorchImporter() *TorchImporter {
	return &TorchImporter{}
}

type catalogDocument struct {
	LayerTypes []domain.LayerType `json:"layerTypes"`
	Functions  []domain.Function  `json:"functions"`
}

func (t *TorchImporter) ImportExternalCatalog(_ context.Context) ([]domain.LayerType, []domain.Function, error) {
	var doc catalogDocument
	if err := json.Unmarshal(catalogJSON, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode torch catalog: %w", err)
	}

	for i := range doc.LayerTypes {
		if doc.LayerTypes[i].Parameters == nil {
			doc.LayerTypes[i].Parameters = []domain.Parameter{}
		}
	}
	for i := range doc.Functions {
		if doc.Functions[i].Parameters == nil {
			doc.Functions[i].Parameters = []domain.Parameter{}
		}
	}
	return doc.LayerTypes, doc.Functions, nil
}
