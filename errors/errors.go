package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which part of the library raised the error
type Phase string

const (
	PhaseOwn     Phase = "own"     // exclusive handles
	PhaseShare   Phase = "share"   // shared handles
	PhaseObserve Phase = "observe" // weak handles
	PhaseTable   Phase = "table"   // handle table operations
	PhaseHost    Phase = "host"    // guest-facing host functions
)

// Kind categorizes the error
type Kind string

const (
	KindNullDereference   Kind = "null_dereference"
	KindDoubleOwnership   Kind = "double_ownership"
	KindInvalidHandle     Kind = "invalid_handle"
	KindExpired           Kind = "expired"
	KindOutstandingBorrow Kind = "outstanding_borrow"
	KindClosed            Kind = "closed"
	KindInvalidInput      Kind = "invalid_input"
	KindDestructorPanic   Kind = "destructor_panic"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Handle uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " at handle %d", e.Handle)
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
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
// A target with an empty Phase matches any phase of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks across phases.
var (
	ErrNullDereference   = &Error{Kind: KindNullDereference}
	ErrDoubleOwnership   = &Error{Kind: KindDoubleOwnership}
	ErrInvalidHandle     = &Error{Kind: KindInvalidHandle}
	ErrExpired           = &Error{Kind: KindExpired}
	ErrOutstandingBorrow = &Error{Kind: KindOutstandingBorrow}
	ErrClosed            = &Error{Kind: KindClosed}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrDestructorPanic   = &Error{Kind: KindDestructorPanic}
)

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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Handle sets the table handle involved
func (b *Builder) Handle(h uint32) *Builder {
	b.err.Handle = h
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

// NullDereference creates an error for access through an empty handle
func NullDereference(phase Phase, goType string) *Error {
	return New(phase, KindNullDereference).
		GoType(goType).
		Detail("handle holds no referent").
		Build()
}

// DoubleOwnership creates an error for a referent that already has an owner
func DoubleOwnership(phase Phase, goType string, existing uint32) *Error {
	return New(phase, KindDoubleOwnership).
		GoType(goType).
		Handle(existing).
		Detail("referent already owned").
		Build()
}

// InvalidHandle creates an error for an unknown, dead or mismatched handle
func InvalidHandle(phase Phase, h uint32, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: h,
		Detail: detail,
	}
}

// Expired creates an error for a weak handle whose referent is gone
func Expired(phase Phase, h uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExpired,
		Handle: h,
		Detail: "referent already destroyed",
	}
}

// OutstandingBorrow creates an error for dropping a borrowed handle
func OutstandingBorrow(phase Phase, h uint32, borrows uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutstandingBorrow,
		Handle: h,
		Detail: fmt.Sprintf("%d active borrows", borrows),
		Value:  borrows,
	}
}

// Closed creates an error for operations on a closed table
func Closed(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: "table closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// DestructorPanic wraps a value recovered from a panicking destructor
func DestructorPanic(phase Phase, h uint32, recovered any) *Error {
	e := &Error{
		Phase:  phase,
		Kind:   KindDestructorPanic,
		Handle: h,
		Value:  recovered,
		Detail: fmt.Sprintf("destructor panicked: %v", recovered),
	}
	if err, ok := recovered.(error); ok {
		e.Cause = err
	}
	return e
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
