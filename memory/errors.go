package memory

import (
	"errors"
	"fmt"
)

// ErrEmbeddingUnavailable reports that the external embedding call failed.
// It is never fatal to chat: Store propagates it so the caller can downgrade,
// Retrieve converts it into an ErrDegraded result.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// ErrDegraded marks a retrieval that fell back to an empty result because the
// embedding or index call failed. Callers log it as a warning and continue;
// the primary chat path must never block on it.
var ErrDegraded = errors.New("long-term memory degraded")

// PersistenceError reports a failed write to the nearest-neighbor index.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("memory persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
