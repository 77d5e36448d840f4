package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// EmailSender delivers the account confirmation mail. A permanent failure
// (e.g. rejected address) surfaces as domain.ErrValidation and must abort
// user creation; a transient failure surfaces as domain.ErrUpstreamUnavailable
// and may be retried by the caller. The core never retries internally.
type EmailSender interface {
	SendConfirmation(ctx context.Context, confirmationID, email, name string) error
}

// CatalogImporter introspects an external ML library's catalog of layers and
// activation functions.
type CatalogImporter interface {
	ImportExternalCatalog(ctx context.Context) ([]domain.LayerType, []domain.Function, error)
}
