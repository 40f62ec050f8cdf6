package persist

import "fmt"

// ReadError wraps a failed query against the embedded database.
// Callers are expected to treat it as "no data yet" and continue with
// an empty collection rather than crash.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("storage read failed: %s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failed save transaction. The in-memory store is
// not rolled back; the next successful save reconciles durable state.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write failed: %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
