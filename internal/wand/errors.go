package wand

import (
	"fmt"
	"strings"

	"github.com/ironsheep/image-wand/internal/magick"
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation      Kind = "allocation"
	KindClone           Kind = "clone"
	KindCodec           Kind = "codec"
	KindOperation       Kind = "operation"
	KindInvalidArgument Kind = "invalid_argument"
	KindClosed          Kind = "closed"
	KindNative          Kind = "native"
)

// Sentinels for errors.Is. A native failure matches both its own kind and
// ErrNative.
var (
	ErrAllocation      = &Error{Kind: KindAllocation}
	ErrClone           = &Error{Kind: KindClone}
	ErrCodec           = &Error{Kind: KindCodec}
	ErrOperation       = &Error{Kind: KindOperation}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrClosed          = &Error{Kind: KindClosed}
	ErrNative          = &Error{Kind: KindNative}
)

// Error is the structured error returned by every operation in this
// package. Code and Message are copied verbatim from the native exception
// when the failure was reported by the library.
type Error struct {
	Cause    error
	Op       string
	Kind     Kind
	Severity magick.Severity
	Code     magick.ExceptionType
	Message  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteByte('[')
		b.WriteString(e.Op)
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.Native() {
		b.WriteString(" (")
		b.WriteString(e.Severity.String())
		if e.Code != magick.UndefinedException {
			b.WriteByte(' ')
			b.WriteString(e.Code.String())
		}
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Native reports whether the failure was reported by the native library.
func (e *Error) Native() bool {
	return e.Severity != magick.SeverityNone
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == KindNative && e.Native() {
		return true
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// NewError creates a new error builder
func NewError(op string, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Op:   op,
			Kind: kind,
		},
	}
}

// Exception copies the code, severity and reason of a native exception.
func (b *Builder) Exception(ex magick.Exception) *Builder {
	b.err.Code = ex.Type
	b.err.Severity = ex.Type.Severity()
	b.err.Message = ex.Reason
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Message sets the human-readable message
func (b *Builder) Message(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Message = fmt.Sprintf(msg, args...)
	} else {
		b.err.Message = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

func closedError(op string) *Error {
	return NewError(op, KindClosed).Message("resource is closed").Build()
}

func invalidArgument(op, msg string, args ...any) *Error {
	return NewError(op, KindInvalidArgument).Message(msg, args...).Build()
}

// reclassify tags a native failure with the kind of the operation that
// triggered it. Non-*Error values are returned unchanged.
func reclassify(err error, kind Kind) error {
	if e, ok := err.(*Error); ok {
		e.Kind = kind
	}
	return err
}
