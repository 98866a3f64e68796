package op

import (
	"errors"
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
)

// InvalidPathError reports an operation that does not fit the tree it was
// applied to: its path does not resolve, an offset is out of range, or the
// node cannot live at the addressed position.
//
// This is a programmer error in the caller's batch. It is never retried.
type InvalidPathError struct {
	// Index is the position of the failing operation in its batch.
	Index int

	// Op is the failing operation type.
	Op Type

	// Path is the path that failed to resolve.
	Path doc.Path

	// Reason describes what was wrong.
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %s for %s (op %d): %s", e.Path, e.Op, e.Index, e.Reason)
}

// IsInvalidPathError returns true if err is or wraps an InvalidPathError.
func IsInvalidPathError(err error) bool {
	var pe *InvalidPathError
	return errors.As(err, &pe)
}

func pathError(path doc.Path, format string, args ...any) *InvalidPathError {
	return &InvalidPathError{Path: path.Clone(), Reason: fmt.Sprintf(format, args...)}
}
