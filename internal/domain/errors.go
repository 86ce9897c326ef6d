package domain

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("pipeline run already in progress")

// CollaboratorError wraps a failure from a source adapter, the text
// service, or the output sink. Always recoverable at the stage boundary.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError tags err with the collaborator that produced it.
func NewCollaboratorError(collaborator string, err error) error {
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}

// StorageError wraps a dedup/run store failure. Recoverable: deduplication
// or persistence degrades, the run continues.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError tags err with the storage operation that failed.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// InvalidArgument is a caller error surfaced before any stage runs.
type InvalidArgument struct {
	Reason string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// NewInvalidArgument reports a rejected request with the given reason.
func NewInvalidArgument(reason string) error {
	return &InvalidArgument{Reason: reason}
}

// IsInvalidArgument reports whether err is a caller error.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgument
	return errors.As(err, &ia)
}

// FormatError is the single fatal stage failure: the run produced no
// deliverable document.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format digest: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NewFormatError marks err as a terminal formatting failure.
func NewFormatError(err error) error {
	return &FormatError{Err: err}
}
