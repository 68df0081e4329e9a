//go:build cbqn

package cbqn

import (
	"math"
	"testing"

	bqnbridge "github.com/wippyai/bqn-bridge"
)

func TestInterpreter_F64(t *testing.T) {
	interp, err := New()
	if err != nil {
		t.Fatal(err)
	}

	v := interp.MakeF64(3.5)
	defer interp.Free(v)

	if k := interp.Type(v); k != bqnbridge.KindNumber {
		t.Fatalf("Type() = %v, want number", k)
	}
	if x := interp.ReadF64(v); x != 3.5 {
		t.Errorf("ReadF64() = %v, want 3.5", x)
	}
}

func TestInterpreter_F64Vec(t *testing.T) {
	interp, err := New()
	if err != nil {
		t.Fatal(err)
	}

	xs := []float64{1, math.Copysign(0, -1), math.Inf(1)}
	v := interp.MakeF64Vec(xs)
	defer interp.Free(v)

	if k := interp.Type(v); k != bqnbridge.KindArray {
		t.Fatalf("Type() = %v, want array", k)
	}
	if n := interp.Bound(v); n != len(xs) {
		t.Fatalf("Bound() = %d, want %d", n, len(xs))
	}
	got := make([]float64, len(xs))
	interp.ReadF64Arr(v, got)
	for i := range xs {
		if math.Float64bits(got[i]) != math.Float64bits(xs[i]) {
			t.Errorf("[%d] = %v, want %v", i, got[i], xs[i])
		}
	}

	empty := interp.MakeF64Vec(nil)
	defer interp.Free(empty)
	if n := interp.Bound(empty); n != 0 {
		t.Errorf("Bound(empty) = %d", n)
	}
}

func TestInterpreter_Char(t *testing.T) {
	interp, err := New()
	if err != nil {
		t.Fatal(err)
	}
	v := interp.MakeChar('λ')
	defer interp.Free(v)
	if k := interp.Type(v); k != bqnbridge.KindCharacter {
		t.Errorf("Type() = %v, want character", k)
	}
	if r := interp.ReadChar(v); r != 'λ' {
		t.Errorf("ReadChar() = %q", r)
	}
}
