package mechanism

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownParam indicates a {component, field} pair the mechanism does not have.
	ErrUnknownParam = errors.New("mechanism: unknown parameter")

	// ErrInvalidGeometry is wrapped by every GeometryError.
	ErrInvalidGeometry = errors.New("mechanism: invalid geometry")
)

// GeometryError reports a design that cannot be evaluated, such as an
// attachment point whose angle about the bedframe pivot is undefined.
type GeometryError struct {
	Component string
	Reason    string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("mechanism: %s: %s", e.Component, e.Reason)
}

func (e *GeometryError) Unwrap() error { return ErrInvalidGeometry }

func geometryErrorf(component, format string, args ...any) error {
	return &GeometryError{Component: component, Reason: fmt.Sprintf(format, args...)}
}
