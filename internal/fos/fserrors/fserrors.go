// Package fserrors defines the core error taxonomy shared by every
// component downstream of the filesystem, and the helpers the RPC
// dispatcher uses to map a Kind onto a JSON-RPC error code.
//
// The teacher's own fs/fserrors package built this kind of classifier
// around github.com/pkg/errors' Cause() chain; its tests note that
// rclone has since migrated off that dependency onto the standard
// library's errors.Is/As/Unwrap, which is what this package uses.
package fserrors

import (
	"errors"
	"fmt"
)

// Kind is the core error taxonomy from the specification.
type Kind int

const (
	// InvalidArgument marks malformed input: empty/whitespace path,
	// negative offset/length, length > MAX_READ, bad enum value,
	// source==target.
	InvalidArgument Kind = iota
	// PathEscape marks a resolved path lying outside the root.
	PathEscape
	// NotFound marks a missing target or required parent.
	NotFound
	// AlreadyExists marks a target that must not exist but does.
	AlreadyExists
	// NotADirectory marks an entry-kind mismatch (expected directory).
	NotADirectory
	// IsADirectory marks an entry-kind mismatch (expected non-directory).
	IsADirectory
	// NotAFile marks an entry-kind mismatch (expected regular file).
	NotAFile
	// DirectoryNotEmpty marks a non-recursive delete on a populated dir.
	DirectoryNotEmpty
	// AccessDenied marks a host permission denial.
	AccessDenied
	// IOError marks any other filesystem failure.
	IOError
	// LockUnavailable marks a coordinator lease that could not be
	// granted within the retry budget.
	LockUnavailable
)

// String renders the Kind the way it appears on the wire in error.data.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case PathEscape:
		return "PathEscape"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case NotADirectory:
		return "NotADirectory"
	case IsADirectory:
		return "IsADirectory"
	case NotAFile:
		return "NotAFile"
	case DirectoryNotEmpty:
		return "DirectoryNotEmpty"
	case AccessDenied:
		return "AccessDenied"
	case IOError:
		return "IOError"
	case LockUnavailable:
		return "LockUnavailable"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every core operation returns on
// failure. It carries a Kind plus the underlying cause so the dispatcher
// can both classify and report it.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error around an existing error, classifying it under
// kind. If err is already an *Error, its Kind is preserved and msg is
// prepended; this keeps a single failure from being reclassified as it
// propagates up through layers that don't know the original cause.
func Wrap(err error, kind Kind, msg string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Msg: msg, Cause: err}
	}
	return &Error{Kind: kind, Msg: msg, Cause: err}
}

// KindOf extracts the Kind from err, returning (kind, true) if err is or
// wraps an *Error, or (IOError, false) otherwise.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return IOError, false
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
