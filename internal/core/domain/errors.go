package domain

import "errors"

// Error taxonomy shared by all core operations. Services wrap these with
// fmt.Errorf("%w: ...") for detail; the API layer maps them to status codes.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("access forbidden")
	ErrConflict            = errors.New("concurrent modification conflict")
	ErrInUse               = errors.New("resource is in use")
	ErrReferencedByOther   = errors.New("layer is referenced by another parameter")
	ErrUnknownParameter    = errors.New("unknown parameter")
	ErrTypeMismatch        = errors.New("value does not match parameter type")
	ErrInvalidReference    = errors.New("invalid layer reference")
	ErrOutOfRange          = errors.New("index out of range")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)
