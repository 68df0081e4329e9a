// Package options parses the keyword option lists accepted by bridge calls.
//
// An option list is a proper list of {Key, Value} tuples where both elements
// are atoms. The schema is closed: unknown keys fail the parse instead of
// being ignored.
package options

import (
	"strconv"

	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

// MaxAtomLen is the longest atom, in Latin-1 bytes, accepted as a key or value.
const MaxAtomLen = 31

// Recognized keys. KeyTSDiff is the wire name older callers use for KeyTiming.
const (
	KeyTiming term.Atom = "timing"
	KeyTSDiff term.Atom = "tsdiff"
)

// Set is a parsed option list.
type Set struct {
	// Timing requests the elapsed time of the conversion in the stats record.
	Timing bool
}

// Parse validates opts against the schema. Any malformed element fails the
// whole list; no partial Set is returned.
func Parse(opts term.Term) (Set, error) {
	var set Set

	list, ok := opts.(term.List)
	if !ok {
		return set, errors.TypeMismatch(errors.PhaseOptions, nil, typeName(opts), "proper list of {atom, atom}")
	}

	timingSeen := false
	for i, elem := range list {
		path := []string{index(i)}

		pair, ok := elem.(term.Tuple)
		if !ok {
			return Set{}, errors.TypeMismatch(errors.PhaseOptions, path, typeName(elem), "{atom, atom}")
		}
		if len(pair) != 2 {
			return Set{}, errors.New(errors.PhaseOptions, errors.KindInvalidInput).
				Path(path...).
				TermType("tuple").
				Detail("option tuple has arity %d, want 2", len(pair)).
				Build()
		}

		key, err := atomText(pair[0], append(path, "key"))
		if err != nil {
			return Set{}, err
		}

		switch term.Atom(key) {
		case KeyTiming, KeyTSDiff:
			v, err := boolAtom(pair[1], append(path, "value"))
			if err != nil {
				return Set{}, err
			}
			if timingSeen && v != set.Timing {
				return Set{}, errors.Conflict(errors.PhaseOptions, path, string(KeyTiming))
			}
			set.Timing = v
			timingSeen = true
		default:
			return Set{}, errors.FieldUnknown(errors.PhaseOptions, path, key)
		}
	}

	return set, nil
}

// atomText returns the Latin-1 text of an atom within the size bound.
func atomText(t term.Term, path []string) (string, error) {
	a, ok := t.(term.Atom)
	if !ok {
		return "", errors.TypeMismatch(errors.PhaseOptions, path, typeName(t), "atom")
	}
	b, ok := a.Latin1()
	if !ok {
		return "", errors.InvalidInput(errors.PhaseOptions, path, "atom has no Latin-1 encoding")
	}
	if len(b) == 0 {
		return "", errors.InvalidInput(errors.PhaseOptions, path, "empty atom")
	}
	if len(b) > MaxAtomLen {
		return "", errors.Overflow(errors.PhaseOptions, path, len(b), MaxAtomLen)
	}
	return string(b), nil
}

func boolAtom(t term.Term, path []string) (bool, error) {
	s, err := atomText(t, path)
	if err != nil {
		return false, err
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.New(errors.PhaseOptions, errors.KindInvalidInput).
		Path(path...).
		Value(s).
		Detail("want true or false, got %q", s).
		Build()
}

func typeName(t term.Term) string {
	if t == nil {
		return "none"
	}
	if _, ok := t.(term.ImproperList); ok {
		return "improper list"
	}
	return t.Type().String()
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
