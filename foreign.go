package bqnbridge

import "context"

// Value is an opaque reference to a value owned by the foreign interpreter.
// The zero Value is never handed out by a backend.
type Value uint64

// Kind is the runtime kind of a foreign value, numbered as the interpreter
// reports it.
type Kind int

const (
	KindInvalid   Kind = -1 // value not owned by the backend
	KindArray     Kind = 0
	KindNumber    Kind = 1
	KindCharacter Kind = 2
	KindFunction  Kind = 3
	KindMod1      Kind = 4
	KindMod2      Kind = 5
	KindNamespace Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindNumber:
		return "number"
	case KindCharacter:
		return "character"
	case KindFunction:
		return "function"
	case KindMod1:
		return "1-modifier"
	case KindMod2:
		return "2-modifier"
	case KindNamespace:
		return "namespace"
	case KindInvalid:
		return "invalid"
	}
	return "unknown"
}

// Interpreter is the slice of the foreign interpreter the bridge talks to.
//
// Constructors return owned values; the caller must hand every one of them to
// Free exactly once. Allocation failure inside an implementation is fatal and
// panics rather than returning an error.
type Interpreter interface {
	MakeF64(x float64) Value
	// MakeF64Vec copies xs into a new array; xs may be reused afterwards.
	MakeF64Vec(xs []float64) Value
	Type(v Value) Kind
	Bound(v Value) int
	ReadF64(v Value) float64
	// ReadF64Arr copies the whole array into buf, which must hold Bound(v)
	// elements.
	ReadF64Arr(v Value, buf []float64)
	Free(v Value)
}

// Closer is implemented by interpreters that hold process resources.
type Closer interface {
	Close(ctx context.Context) error
}
