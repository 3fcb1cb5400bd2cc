package filter

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/dareg/internal/domain"
)

// SyntaxError reports a malformed filter document.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return e.Msg }
func (e *SyntaxError) Unwrap() error { return domain.ErrInvalidFilter }

// UnknownFieldError reports a field path outside the catalog.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string { return "invalid field: " + e.Field }
func (e *UnknownFieldError) Unwrap() error { return domain.ErrInvalidFilter }

// TypeMismatchError reports a value that disagrees with the declared type.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for field '%s': expected %s, got %s", e.Field, e.Expected, e.Actual)
}
func (e *TypeMismatchError) Unwrap() error { return domain.ErrInvalidFilter }

// UnsupportedOperatorError reports an unknown $-operator in a field block.
type UnsupportedOperatorError struct {
	Op string
}

func (e *UnsupportedOperatorError) Error() string { return "unsupported operator: " + e.Op }
func (e *UnsupportedOperatorError) Unwrap() error { return domain.ErrInvalidFilter }

func syntaxf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// Kind classifies a compile error for metrics: syntax, unknown_field,
// type_mismatch, unsupported_operator, or "" for foreign errors.
func Kind(err error) string {
	var (
		syn *SyntaxError
		unk *UnknownFieldError
		typ *TypeMismatchError
		ops *UnsupportedOperatorError
	)
	switch {
	case errors.As(err, &syn):
		return "syntax"
	case errors.As(err, &unk):
		return "unknown_field"
	case errors.As(err, &typ):
		return "type_mismatch"
	case errors.As(err, &ops):
		return "unsupported_operator"
	default:
		return ""
	}
}
