package meter

import "github.com/kailas-cloud/meterd/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation    = domain.ErrValidation
	ErrNotFound      = domain.ErrNotFound
	ErrDataIntegrity = domain.ErrDataIntegrity
	ErrStore         = domain.ErrStore
	ErrQuotaExceeded = domain.ErrQuotaExceeded
	ErrProviderError = domain.ErrProviderError
)
