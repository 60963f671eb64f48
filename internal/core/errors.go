package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when the target of an update or delete is
	// absent. It is non-fatal and surfaced as a user message.
	ErrNotFound = errors.New("transaction not found")

	// ErrUnauthorized is returned on an ownership mismatch. Kept distinct
	// from ErrNotFound so callers can show a different message.
	ErrUnauthorized = errors.New("transaction belongs to another user")
)

// ValidationError carries one message per failing field, keyed by field
// name. It is recoverable: the caller re-prompts with the field errors.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid transaction data"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid transaction data: " + strings.Join(parts, "; ")
}

// PersistenceError wraps an underlying storage or network failure.
// Retry is left to the user re-submitting.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ImportError aborts an entire import; nothing is partially applied.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return "import failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "import failed: " + e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }
