package dareg

import "github.com/kailas-cloud/dareg/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrInvalidFilter    = domain.ErrInvalidFilter
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrInvalidSchema    = domain.ErrInvalidSchema
	ErrUnknownModel     = domain.ErrUnknownModel
	ErrPermissionDenied = domain.ErrPermissionDenied
)
