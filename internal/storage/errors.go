package storage

import "fmt"

// ReadFailure reports a blob that could not be read or decoded.
type ReadFailure struct {
	Key string
	Err error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("storage read failure for key %q: %v", e.Key, e.Err)
}

func (e *ReadFailure) Unwrap() error {
	return e.Err
}

// WriteFailure reports a blob that could not be encoded or written.
type WriteFailure struct {
	Key string
	Err error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("storage write failure for key %q: %v", e.Key, e.Err)
}

func (e *WriteFailure) Unwrap() error {
	return e.Err
}
