package term

import (
	"sync/atomic"
)

// Type is the host's dynamic type tag of a term.
type Type uint8

const (
	TypeAtom Type = iota + 1
	TypeBitstring
	TypeFloat
	TypeFun
	TypeInteger
	TypeList
	TypeMap
	TypePid
	TypePort
	TypeReference
	TypeTuple
)

func (t Type) String() string {
	switch t {
	case TypeAtom:
		return "atom"
	case TypeBitstring:
		return "bitstring"
	case TypeFloat:
		return "float"
	case TypeFun:
		return "fun"
	case TypeInteger:
		return "integer"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypePid:
		return "pid"
	case TypePort:
		return "port"
	case TypeReference:
		return "reference"
	case TypeTuple:
		return "tuple"
	}
	return "unknown"
}

// Term is a host runtime value.
type Term interface {
	Type() Type
	String() string
	isTerm()
}

// Atom is an interned name.
type Atom string

// Binary is a byte-aligned bitstring.
type Binary []byte

// Float is an IEEE-754 binary64 number.
type Float float64

// Integer is a fixed-width host integer.
type Integer int64

// List is a proper list.
type List []Term

// ImproperList is a list whose final tail is not the empty list.
type ImproperList struct {
	Tail  Term
	Elems []Term
}

// Tuple is a fixed-arity sequence.
type Tuple []Term

// Fun is an external function reference.
type Fun struct {
	Module Atom
	Name   Atom
	Arity  int
}

// Pid identifies a host process.
type Pid struct {
	Node   Atom
	ID     uint32
	Serial uint32
}

// Port identifies a host port.
type Port struct {
	Node Atom
	ID   uint64
}

// Ref is a unique reference, optionally carrying a resource object.
type Ref struct {
	obj any
	id  uint64
}

var refCounter atomic.Uint64

// MakeRef returns a fresh plain reference.
func MakeRef() Ref {
	return Ref{id: refCounter.Add(1)}
}

// MakeResourceRef returns a fresh reference that carries obj.
func MakeResourceRef(obj any) Ref {
	return Ref{id: refCounter.Add(1), obj: obj}
}

// ID returns the reference number.
func (r Ref) ID() uint64 { return r.id }

// Resource returns the carried resource object, if any.
func (r Ref) Resource() (any, bool) {
	return r.obj, r.obj != nil
}

func (Atom) Type() Type         { return TypeAtom }
func (Binary) Type() Type       { return TypeBitstring }
func (Float) Type() Type        { return TypeFloat }
func (Integer) Type() Type      { return TypeInteger }
func (List) Type() Type         { return TypeList }
func (ImproperList) Type() Type { return TypeList }
func (Tuple) Type() Type        { return TypeTuple }
func (Map) Type() Type          { return TypeMap }
func (Fun) Type() Type          { return TypeFun }
func (Pid) Type() Type          { return TypePid }
func (Port) Type() Type         { return TypePort }
func (Ref) Type() Type          { return TypeReference }

func (Atom) isTerm()         {}
func (Binary) isTerm()       {}
func (Float) isTerm()        {}
func (Integer) isTerm()      {}
func (List) isTerm()         {}
func (ImproperList) isTerm() {}
func (Tuple) isTerm()        {}
func (Map) isTerm()          {}
func (Fun) isTerm()          {}
func (Pid) isTerm()          {}
func (Port) isTerm()         {}
func (Ref) isTerm()          {}

// Latin1 returns the atom's Latin-1 encoding. It fails when the atom holds a
// rune above U+00FF.
func (a Atom) Latin1() ([]byte, bool) {
	out := make([]byte, 0, len(a))
	for _, r := range string(a) {
		if r > 0xFF {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}

// Equal reports whether a and b are exactly equal terms.
// Floats compare by value, so NaN is never equal to itself.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x == y
	case Binary:
		y, ok := b.(Binary)
		return ok && string(x) == string(y)
	case Float:
		y, ok := b.(Float)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case List:
		y, ok := b.(List)
		return ok && equalSlices(x, y)
	case ImproperList:
		y, ok := b.(ImproperList)
		return ok && equalSlices(x.Elems, y.Elems) && Equal(x.Tail, y.Tail)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalSlices(x, y)
	case Map:
		y, ok := b.(Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, found := y.Get(k)
			if !found || !Equal(x.values[i], v) {
				return false
			}
		}
		return true
	case Fun:
		y, ok := b.(Fun)
		return ok && x == y
	case Pid:
		y, ok := b.(Pid)
		return ok && x == y
	case Port:
		y, ok := b.(Port)
		return ok && x == y
	case Ref:
		y, ok := b.(Ref)
		return ok && x.id == y.id
	}
	return false
}

func equalSlices(a, b []Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
