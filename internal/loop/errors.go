package loop

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig indicates an unusable run configuration.
	ErrInvalidConfig = errors.New("loop: invalid configuration")

	// ErrInvalidState indicates the plant state went NaN or Inf.
	ErrInvalidState = errors.New("loop: invalid state (NaN or Inf detected)")

	// ErrFinished is returned by Session.Step after the last tick.
	ErrFinished = errors.New("loop: run finished")
)

// SimError locates a failure within a run.
type SimError struct {
	Time    float64
	Step    int
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error {
	return e.Wrapped
}
