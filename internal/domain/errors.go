package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidSchema signals a schema document that is not a JSON object.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidFilter is the parent of every filter compilation error.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals a malformed search request (body or pagination).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownModel signals a model name absent from the entity registry.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnknownSchema signals a schema id that does not resolve.
	ErrUnknownSchema = errors.New("unknown schema")
	// ErrPermissionDenied signals an actor lacking the required role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthorized signals a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
)
