package design

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingBoundary is wrapped by every PrerequisiteError.
var ErrMissingBoundary = errors.New("design: sweep boundary missing")

// PrerequisiteError means the deployed or stowed pose was asked for but
// never swept.
type PrerequisiteError struct {
	Missing []float64
}

func (e *PrerequisiteError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, a := range e.Missing {
		parts[i] = fmt.Sprintf("%g", a)
	}
	return fmt.Sprintf("design: sweep has no pose at %s deg", strings.Join(parts, ", "))
}

func (e *PrerequisiteError) Unwrap() error { return ErrMissingBoundary }

// SweepError tags an assembly failure with the angle it happened at.
type SweepError struct {
	Angle float64
	Err   error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("design: sweep failed at %g deg: %v", e.Angle, e.Err)
}

func (e *SweepError) Unwrap() error { return e.Err }
