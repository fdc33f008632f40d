// Package tfmerr defines the shared error taxonomy used across every
// PathImpl backend, the cache subsystem, and fileops. Backend methods
// return these directly; the Path facade does not wrap them (spec §7).
package tfmerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the fixed error categories from spec §7.
type Kind int

const (
	// Unknown is the zero value and never produced by New.
	Unknown Kind = iota
	NotFound
	AlreadyExists
	PermissionDenied
	CrossStorage
	Unsupported
	NetworkTimeout
	IO
	Cancelled
	BadFormat
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case PermissionDenied:
		return "permission denied"
	case CrossStorage:
		return "cross storage"
	case Unsupported:
		return "unsupported"
	case NetworkTimeout:
		return "network timeout"
	case IO:
		return "io error"
	case Cancelled:
		return "cancelled"
	case BadFormat:
		return "bad format"
	default:
		return "unknown"
	}
}

// Error is the concrete error value returned by backends and propagated
// unwrapped through the Path facade.
type Error struct {
	Kind Kind
	Op   string // operation name, e.g. "stat", "rename"
	Path string // path rendered form, may be empty
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = msg + " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, tfmerr.ErrNotFound) style checks work against a Kind
// sentinel by comparing Kind fields instead of identity.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return e.Kind == te.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, else
// Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Sentinels usable with errors.Is(err, tfmerr.ErrNotFound) etc., for callers
// that only care about kind and don't want to construct a comparison value.
var (
	ErrNotFound         = &Error{Kind: NotFound}
	ErrAlreadyExists    = &Error{Kind: AlreadyExists}
	ErrPermissionDenied = &Error{Kind: PermissionDenied}
	ErrCrossStorage     = &Error{Kind: CrossStorage}
	ErrUnsupported      = &Error{Kind: Unsupported}
	ErrNetworkTimeout   = &Error{Kind: NetworkTimeout}
	ErrCancelled        = &Error{Kind: Cancelled}
	ErrBadFormat        = &Error{Kind: BadFormat}
)
