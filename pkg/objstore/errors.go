package objstore

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an object that vanished between listing and fetch.
// For retry-ledger purposes it is handled like any other transient
// per-object failure.
var ErrNotFound = errors.New("objstore: object not found")

// ConnectionError wraps failures at the store or container-listing level.
// These are fatal to a run: without a complete enumeration neither
// mirroring nor reconciliation can make guarantees.
type ConnectionError struct {
	Store string
	Op    string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("objstore: %s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an object-not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConnection reports whether err is a fatal connection-level failure.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
