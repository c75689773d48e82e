// Package types defines the core data model shared by every layer of
// codegraph: node and edge identity, the code graph's node and edge
// shapes, and the error taxonomy surfaced at API boundaries.
package types

import (
	"errors"
	"fmt"
)

// Kind classifies an error the way codegraph's public surface reports
// it. Kinds are deliberately few and closed; callers branch on Kind,
// not on error strings.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindUnavailable     Kind = "unavailable"
	KindTimeout         Kind = "timeout"
	KindConflict        Kind = "conflict"
	KindCorruption      Kind = "corruption"
	KindCancelled       Kind = "cancelled"
	KindInternal        Kind = "internal"
)

// retriableKinds mirrors spec §7's propagation policy: Unavailable and
// Timeout are retriable by the caller, everything else is not.
var retriableKinds = map[Kind]bool{
	KindUnavailable: true,
	KindTimeout:     true,
}

// Error is the structured error codegraph returns at every boundary
// operation: {kind, message, retriable, correlation_id}.
type Error struct {
	Kind          Kind
	Message       string
	CorrelationID string
	Cause         error
}

func (e *Error) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, e.CorrelationID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retriable reports whether the caller may retry the operation that
// produced this error.
func (e *Error) Retriable() bool { return retriableKinds[e.Kind] }

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it as the
// cause for errors.Is/errors.As chains.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithCorrelationID returns a copy of e carrying the given id, used to
// tie an Internal error back to logs per spec §7.
func (e *Error) WithCorrelationID(id string) *Error {
	cp := *e
	cp.CorrelationID = id
	return &cp
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and
// KindInternal otherwise — unexpected errors are never silently
// swallowed as a "safe" kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound is a convenience predicate used throughout the graph and
// retrieval layers.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// Sentinel instances for common, argument-free conditions, usable with
// errors.Is.
var (
	ErrNotFound      = New(KindNotFound, "not found")
	ErrCancelled     = New(KindCancelled, "cancelled")
	ErrStoreClosed   = New(KindUnavailable, "store is closed")
	ErrNoProvider    = New(KindUnavailable, "no embedding provider available")
	ErrDimensionSkew = New(KindInvalidArgument, "embedding dimension mismatch")
)
