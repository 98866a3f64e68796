package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/travisjeffery/writegood/internal/normalize"
)

var (
	// ErrHistoryEmpty is returned by Undo when there is nothing to undo.
	ErrHistoryEmpty = errors.New("nothing to undo")

	// ErrRedoEmpty is returned by Redo when there is nothing to redo.
	ErrRedoEmpty = errors.New("nothing to redo")

	// ErrReentrantDispatch is returned by mutating calls made with the
	// context of a delivery, from inside the publisher.
	ErrReentrantDispatch = errors.New("session is publishing: mutation from inside a subscriber")
)

// InvalidDocumentError is returned by Replace when the tree or selection
// does not satisfy the document invariants. The session keeps its previous
// version.
type InvalidDocumentError struct {
	Violations []normalize.Violation
}

func (e *InvalidDocumentError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid document: %s", strings.Join(parts, "; "))
}

// IsInvalidDocumentError returns true if err is or wraps an InvalidDocumentError.
func IsInvalidDocumentError(err error) bool {
	var de *InvalidDocumentError
	return errors.As(err, &de)
}
