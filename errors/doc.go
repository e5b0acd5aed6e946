// Package errors provides structured error types for the ownership library.
//
// Errors are categorized by Phase (which handle family raised it) and Kind
// (error category). The Error type carries the handle involved, the Go type
// name of the referent, and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTable, errors.KindInvalidHandle).
//		Handle(7).
//		GoType("*lifecycle.SharedPerson").
//		Detail("handle %d is weak", 7).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NullDereference(errors.PhaseOwn, "*Person")
//	err := errors.Expired(errors.PhaseTable, handle)
//
// All errors implement the standard error interface and support errors.Is/As.
// The package-level sentinels match by kind regardless of phase:
//
//	if errors.Is(err, ownerrors.ErrNullDereference) { ... }
package errors
