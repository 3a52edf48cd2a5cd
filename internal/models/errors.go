package models

import "errors"

// Domain error taxonomy. Usecases return these (usually wrapped) and the
// transport layers translate them: the HTTP error handler maps them to
// status codes, the socket layer maps them to error event codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
