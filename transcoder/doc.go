// Package transcoder converts between host terms and foreign values.
//
//	┌──────────────────────────────────────────────────────────┐
//	│ term.Term ←→ [Encoder / Decoder] ←→ bqnbridge.Value      │
//	└──────────────────────────────────────────────────────────┘
//
// # Encoding
//
// The encoder accepts exactly two shapes and rejects every other term:
//
//	Term                   Foreign value
//	─────────────────────────────────────────────
//	Float                  number (MakeF64)
//	List of Float          array (MakeF64Vec)
//	[]                     zero-length array
//
// Integers are not numbers here: no widening happens. A list is validated in
// full before the foreign constructor runs, so a failed encode never leaves
// a foreign value behind.
//
// # Decoding
//
// The decoder dispatches on the foreign value's kind. Arrays are read with a
// single bulk copy and become a List of Float in index order; numbers become
// a Float. Characters, functions, modifiers and namespaces are rejected.
//
// # Thread Safety
//
// Encoder and Decoder hold no mutable state and are safe for concurrent use
// when the Interpreter is.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[encode] type_mismatch at [2]: term type integer - expected float
//	[decode] invalid_kind: foreign kind character - unsupported foreign value kind
package transcoder
