package transcoder

import (
	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

type Decoder struct {
	interp bqnbridge.Interpreter
}

func NewDecoder(interp bqnbridge.Interpreter) *Decoder {
	return &Decoder{interp: interp}
}

// Decode converts v into a host term. v stays owned by the caller.
func (d *Decoder) Decode(v bqnbridge.Value) (term.Term, error) {
	switch kind := d.interp.Type(v); kind {
	case bqnbridge.KindArray:
		return d.decodeArray(v), nil
	case bqnbridge.KindNumber:
		return term.Float(d.interp.ReadF64(v)), nil
	default:
		return nil, errors.UnsupportedKind(errors.PhaseDecode, kind.String())
	}
}

func (d *Decoder) decodeArray(v bqnbridge.Value) term.List {
	n := d.interp.Bound(v)
	if n == 0 {
		return term.List{}
	}

	buf := getBufF64(n)
	defer putBufF64(buf)

	xs := *buf
	d.interp.ReadF64Arr(v, xs)

	out := make(term.List, n)
	for i, x := range xs {
		out[i] = term.Float(x)
	}
	return out
}
