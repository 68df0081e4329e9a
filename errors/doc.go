// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the term path, the host term type and foreign kind
// involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
//		Path("[2]").
//		TermType("integer").
//		Detail("list element must be a float").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseEncode, path, "integer", "float")
//	err := errors.UnsupportedKind(errors.PhaseDecode, "character")
//
// Argument-shape, resource-identity and foreign-kind errors are bad
// arguments from the host's point of view; IsBadArg reports that
// classification. Allocation, setup, cancellation and literal syntax errors
// are not.
package errors
