// Package apperr holds the error values shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
)

// ValidationError carries every field-level problem found in one pass.
// Keys are field paths (e.g. "faith_values.faith_tradition").
type ValidationError struct {
	Fields map[string]string
}

// NewValidation builds a ValidationError from a field map. It returns nil when
// the map is empty so callers can return it unconditionally.
func NewValidation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// FromRules converts an ozzo-validation result into a ValidationError, flattening
// nested error maps into dotted field paths. Non-validation errors pass through.
func FromRules(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string)
	flatten("", errs, fields)
	return NewValidation(fields)
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for k, e := range errs {
		if e == nil {
			continue
		}
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(e, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = e.Error()
	}
}
