package transcoder

import (
	"strconv"

	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

// MaxListLength bounds the number of elements encoded into one vector.
const MaxListLength = 1 << 26

type Encoder struct {
	interp bqnbridge.Interpreter
}

func NewEncoder(interp bqnbridge.Interpreter) *Encoder {
	return &Encoder{interp: interp}
}

// Encode converts t into a foreign value owned by the caller.
func (e *Encoder) Encode(t term.Term) (bqnbridge.Value, error) {
	switch v := t.(type) {
	case term.Float:
		return e.interp.MakeF64(float64(v)), nil
	case term.List:
		return e.encodeList(v)
	case term.ImproperList:
		return 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			TermType("improper list").
			Detail("expected proper list of floats").
			Build()
	case nil:
		return 0, errors.InvalidInput(errors.PhaseEncode, nil, "missing term")
	default:
		// atom, bitstring, integer, fun, map, pid, port, reference, tuple
		return 0, errors.Unsupported(errors.PhaseEncode, t.Type().String())
	}
}

func (e *Encoder) encodeList(l term.List) (bqnbridge.Value, error) {
	if len(l) > MaxListLength {
		return 0, errors.Overflow(errors.PhaseEncode, nil, len(l), MaxListLength)
	}
	if len(l) == 0 {
		return e.interp.MakeF64Vec(nil), nil
	}

	buf := getBufF64(len(l))
	defer putBufF64(buf)

	xs := *buf
	for i, elem := range l {
		f, ok := elem.(term.Float)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseEncode,
				[]string{"[" + strconv.Itoa(i) + "]"}, elemType(elem), "float")
		}
		xs[i] = float64(f)
	}
	return e.interp.MakeF64Vec(xs), nil
}

func elemType(t term.Term) string {
	if t == nil {
		return "none"
	}
	return t.Type().String()
}
