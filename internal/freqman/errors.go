package freqman

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when an entry cannot be added because the
	// database already holds the maximum number of entries.
	ErrTruncated = errors.New("freqman: maximum number of entries reached")

	// ErrOutOfRange is returned for an entry position outside the database.
	ErrOutOfRange = errors.New("freqman: entry index out of range")

	// ErrNoFiles is returned when a directory holds no database files.
	ErrNoFiles = errors.New("freqman: no database files found")

	// ErrClosed is returned by operations on a closed database.
	ErrClosed = errors.New("freqman: database is closed")

	// ErrUnknownType is returned by Parse when the frequency keys of a line do
	// not describe any entry type.
	ErrUnknownType = errors.New("freqman: unknown entry type")
)

// AccessError reports a failure to open, create or write a database file.
type AccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("freqman: %s %s: %s", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}
