package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedResource signals that a node references a data block
	// whose serialization failed. The export is aborted.
	ErrUnresolvedResource = errors.New("unresolved resource reference")
	// ErrOutputIO signals that the document or one of its side-channel
	// files could not be written.
	ErrOutputIO = errors.New("output write failed")
)

// ValidationError reports source data the exporter refuses to serialize,
// e.g. a rigged vertex with no bone weight. It aborts the export.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
