package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput marks a submission that failed field validation. It is
// recoverable: the form is shown again with the messages.
var ErrInvalidInput = errors.New("invalid form input")

// ValidationError lists per-field messages keyed by column name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %s", n, e.Fields[n])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

// Unwrap lets callers match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
