// Package errs defines the error taxonomy shared across the installer and
// launcher. Every failure that crosses a component boundary is wrapped in an
// *Error carrying one of the Kind values below, so callers can classify a
// failure with errors.As without depending on which component raised it.
package errs

import "fmt"

// Kind is a coarse failure category, not a Go type name.
type Kind string

const (
	KindUnknownVersion          Kind = "unknown_version"
	KindNotFound                Kind = "not_found"
	KindParse                   Kind = "parse"
	KindDownload                Kind = "download"
	KindTimeout                 Kind = "timeout"
	KindFail                    Kind = "fail"
	KindUnsupportedArchitecture Kind = "unsupported_architecture"
	KindIO                      Kind = "io"
	KindSerde                   Kind = "serde"
	KindZip                     Kind = "zip"
)

// Error wraps an underlying cause with a taxonomic Kind.
type Error struct {
	Kind  Kind
	What  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.What != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.What, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	if e.What != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.What)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause, e.g. for sentinel conditions
// like a watchdog firing.
func New(kind Kind, what string) *Error {
	return &Error{Kind: kind, What: what}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, what string, cause error) *Error {
	return &Error{Kind: kind, What: what, Cause: cause}
}

func UnknownVersion(what string) *Error { return New(KindUnknownVersion, what) }
func NotFound(what string) *Error       { return New(KindNotFound, what) }
func Parse(what string) *Error          { return New(KindParse, what) }
func Download(what string) *Error       { return New(KindDownload, what) }
func Timeout() *Error                   { return New(KindTimeout, "watchdog") }
func Fail(what string) *Error           { return New(KindFail, what) }
func UnsupportedArchitecture(what string) *Error {
	return New(KindUnsupportedArchitecture, what)
}
func IO(cause error) *Error    { return Wrap(KindIO, "", cause) }
func Serde(cause error) *Error { return Wrap(KindSerde, "", cause) }
func Zip(cause error) *Error   { return Wrap(KindZip, "", cause) }

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
