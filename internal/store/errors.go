package store

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a document id has no stored row.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.ID)
}

// IsNotFoundError returns true if err is or wraps a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// DuplicateDocumentError is returned by CreateDocument when the id is taken.
type DuplicateDocumentError struct {
	ID string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("document %q already exists", e.ID)
}

// IsDuplicateDocumentError returns true if err is or wraps a DuplicateDocumentError.
func IsDuplicateDocumentError(err error) bool {
	var de *DuplicateDocumentError
	return errors.As(err, &de)
}
