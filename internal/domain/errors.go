package domain

import "fmt"

// InvalidFormatError indicates a malformed identifier.
type InvalidFormatError struct {
	ID     string
	Reason string
}

func (e InvalidFormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid linkid format: %q", e.ID)
	}
	return fmt.Sprintf("invalid linkid format: %q: %s", e.ID, e.Reason)
}

// Is enables errors.Is matching on InvalidFormatError.
func (e InvalidFormatError) Is(target error) bool {
	_, ok := target.(InvalidFormatError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidFormatError)
	return ok
}

// NotFoundError represents a missing active record.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "linkid not found"
	}
	return fmt.Sprintf("linkid not found: %s", e.ID)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// NoMatchingRecordsError means the record exists but no candidate
// survived filtering. Surfaced to the transport layer exactly like
// NotFoundError, differing only in message text.
type NoMatchingRecordsError struct {
	ID string
}

func (e NoMatchingRecordsError) Error() string {
	return fmt.Sprintf("no matching records for linkid: %s", e.ID)
}

func (e NoMatchingRecordsError) Is(target error) bool {
	_, ok := target.(NoMatchingRecordsError)
	if ok {
		return true
	}
	_, ok = target.(*NoMatchingRecordsError)
	return ok
}

// WithdrawnError carries the tombstone of a withdrawn record.
type WithdrawnError struct {
	ID        string
	Tombstone Tombstone
}

func (e WithdrawnError) Error() string {
	return fmt.Sprintf("linkid withdrawn: %s", e.ID)
}

func (e WithdrawnError) Is(target error) bool {
	_, ok := target.(WithdrawnError)
	if ok {
		return true
	}
	_, ok = target.(*WithdrawnError)
	return ok
}

// UnauthorizedError indicates an issuer mismatch on a mutation.
type UnauthorizedError struct {
	ID     string
	Issuer string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("issuer %q not authorized for linkid: %s", e.Issuer, e.ID)
}

func (e UnauthorizedError) Is(target error) bool {
	_, ok := target.(UnauthorizedError)
	if ok {
		return true
	}
	_, ok = target.(*UnauthorizedError)
	return ok
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidFormat     = InvalidFormatError{}
	ErrNotFound          = NotFoundError{}
	ErrNoMatchingRecords = NoMatchingRecordsError{}
	ErrWithdrawn         = WithdrawnError{}
	ErrUnauthorized      = UnauthorizedError{}
)
