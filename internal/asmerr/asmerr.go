// Package asmerr defines the error kinds an assembly can fail with. Every
// error carries enough context (coordinate, source and destination path) to
// diagnose the failure without re-running the build.
package asmerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an assembly failure.
type Kind int

const (
	// Unknown is never produced by this module; it is the zero value.
	Unknown Kind = iota
	// MissingSourceArtifact means the resolver returned no file, or a file
	// that does not exist.
	MissingSourceArtifact
	// DescriptorMissing means no runtime descriptor was found and none could
	// be generated.
	DescriptorMissing
	// IOFailure covers copy, zip and delete failures.
	IOFailure
	// MalformedSpec means a selection or exclusion pattern could not be parsed.
	MalformedSpec
)

func (k Kind) String() string {
	switch k {
	case MissingSourceArtifact:
		return "missing source artifact"
	case DescriptorMissing:
		return "descriptor missing"
	case IOFailure:
		return "i/o failure"
	case MalformedSpec:
		return "malformed spec"
	default:
		return "unknown"
	}
}

// Error is an assembly failure of a given Kind.
type Error struct {
	Kind       Kind
	Op         string
	Coordinate string
	Source     string
	Dest       string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	var details []string
	if e.Coordinate != "" {
		details = append(details, "coordinate="+e.Coordinate)
	}
	if e.Source != "" {
		details = append(details, "source="+e.Source)
	}
	if e.Dest != "" {
		details = append(details, "dest="+e.Dest)
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so that
// errors.Is(err, &asmerr.Error{Kind: asmerr.IOFailure}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an *Error of the given kind with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Is reports whether err, or any error it wraps, is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for {
		if e.Kind == kind {
			return true
		}
		var next *Error
		if !errors.As(e.Err, &next) {
			return false
		}
		e = next
	}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
