// Package apperr holds the error categories shared by every service. Services
// wrap one of these sentinels so the transport layer can choose a status code
// with errors.Is without knowing service internals.
package apperr

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication error")
	ErrForbidden       = errors.New("authorization error")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
