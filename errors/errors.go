package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseOptions  Phase = "options"  // keyword option parsing
	PhaseEncode   Phase = "encode"   // host term to foreign value
	PhaseDecode   Phase = "decode"   // foreign value to host term
	PhaseResource Phase = "resource" // handle lookup
	PhaseDispatch Phase = "dispatch" // function table lookup
	PhaseRuntime  Phase = "runtime"  // runtime setup
	PhaseParse    Phase = "parse"    // term literal parsing
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidInput   Kind = "invalid_input"
	KindUnsupported    Kind = "unsupported"
	KindFieldUnknown   Kind = "field_unknown"
	KindConflict       Kind = "conflict"
	KindOverflow       Kind = "overflow"
	KindNotFound       Kind = "not_found"
	KindInvalidKind    Kind = "invalid_kind"
	KindAllocation     Kind = "allocation"
	KindNotInitialized Kind = "not_initialized"
	KindSyntax         Kind = "syntax"
	KindCanceled       Kind = "canceled"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value       any
	Cause       error
	Phase       Phase
	Kind        Kind
	TermType    string
	ForeignKind string
	Detail      string
	Path        []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.TermType != "" || e.ForeignKind != "" {
		b.WriteString(": ")
		if e.TermType != "" && e.ForeignKind != "" {
			b.WriteString("term type ")
			b.WriteString(e.TermType)
			b.WriteString(", foreign kind ")
			b.WriteString(e.ForeignKind)
		} else if e.TermType != "" {
			b.WriteString("term type ")
			b.WriteString(e.TermType)
		} else {
			b.WriteString("foreign kind ")
			b.WriteString(e.ForeignKind)
		}
	}

	if e.Detail != "" {
		if e.TermType != "" || e.ForeignKind != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
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

// Is reports whether target matches this error.
// ErrBadArg matches every bad-argument error.
func (e *Error) Is(target error) bool {
	if target == ErrBadArg {
		return e.BadArg()
	}
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// BadArg reports whether the error is a caller-side bad argument.
// Allocation failures, setup errors, cancellations and literal syntax
// errors are not.
func (e *Error) BadArg() bool {
	switch e.Kind {
	case KindAllocation, KindNotInitialized, KindSyntax, KindCanceled:
		return false
	}
	return e.Phase != PhaseRuntime && e.Phase != PhaseParse
}

// ErrBadArg is the generic failure the host reports for rejected arguments.
var ErrBadArg = stderrors.New("bad argument")

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// IsBadArg reports whether any error in err's chain is a bad argument.
func IsBadArg(err error) bool {
	return stderrors.Is(err, ErrBadArg)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the term path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// TermType sets the host term type name
func (b *Builder) TermType(t string) *Builder {
	b.err.TermType = t
	return b
}

// ForeignKind sets the foreign value kind name
func (b *Builder) ForeignKind(k string) *Builder {
	b.err.ForeignKind = k
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, termType, want string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		TermType: termType,
		Detail:   "expected " + want,
	}
}

// Unsupported creates an unsupported term shape error
func Unsupported(phase Phase, termType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupported,
		TermType: termType,
		Detail:   "unsupported term",
	}
}

// UnsupportedKind creates an error for a foreign value the bridge cannot decode
func UnsupportedKind(phase Phase, kind string) *Error {
	return &Error{
		Phase:       phase,
		Kind:        KindInvalidKind,
		ForeignKind: kind,
		Detail:      "unsupported foreign value kind",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// FieldUnknown creates an unknown option key error
func FieldUnknown(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown key %q", name),
		Value:  name,
	}
}

// Conflict creates an error for a key given twice with different values
func Conflict(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConflict,
		Path:   path,
		Detail: fmt.Sprintf("conflicting values for %q", name),
		Value:  name,
	}
}

// Overflow creates an error for an encoding that exceeds a fixed bound
func Overflow(phase Phase, path []string, size, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("size %d exceeds limit %d", size, limit),
		Value:  size,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Syntax creates a literal syntax error at a byte offset
func Syntax(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Detail: fmt.Sprintf("offset %d: %s", offset, detail),
		Value:  offset,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
