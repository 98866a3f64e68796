package normalize

import (
	"errors"
	"fmt"
)

// DivergedError is returned when the pipeline fails to converge: either the
// iteration budget ran out or a fix reproduced a tree already seen.
//
// It indicates a defect in plugin configuration. The edit that triggered it
// is discarded.
type DivergedError struct {
	Plugin     string // Plugin whose fix fired last
	Iterations int    // Fixes applied before giving up
	Limit      int    // Iteration budget
	Cycle      bool   // True when a tree repeated
}

func (e *DivergedError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("normalization diverged: plugin %s reproduced an earlier tree after %d iterations",
			e.Plugin, e.Iterations)
	}
	return fmt.Sprintf("normalization diverged: %d iterations > %d limit (last plugin %s)",
		e.Iterations, e.Limit, e.Plugin)
}

// IsDivergedError returns true if err is or wraps a DivergedError.
func IsDivergedError(err error) bool {
	var de *DivergedError
	return errors.As(err, &de)
}

// FixError is returned when a plugin's corrective batch cannot be built or
// does not apply to the tree it was computed for.
type FixError struct {
	Plugin    string
	Violation Violation
	Err       error
}

func (e *FixError) Error() string {
	return fmt.Sprintf("plugin %s: fix for %s: %v", e.Plugin, e.Violation, e.Err)
}

func (e *FixError) Unwrap() error {
	return e.Err
}

// IsFixError returns true if err is or wraps a FixError.
func IsFixError(err error) bool {
	var fe *FixError
	return errors.As(err, &fe)
}
