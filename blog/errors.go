package blog

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both missing records and records hidden from the viewer.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the viewer may not modify the record.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when an operation needs a signed-in viewer.
	ErrUnauthenticated = errors.New("authentication required")
)

// ValidationError lists field-level problems with submitted data.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns e when it holds at least one field, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
