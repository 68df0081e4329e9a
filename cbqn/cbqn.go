//go:build cbqn

package cbqn

/*
#cgo LDFLAGS: -lcbqn
#include <stdint.h>
#include <stddef.h>
#include <bqnffi.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	bqnbridge "github.com/wippyai/bqn-bridge"
)

// Available reports whether the binary was built against libcbqn.
const Available = true

var (
	initOnce sync.Once
	mu       sync.Mutex
)

// Interpreter calls into the process-wide CBQN instance.
type Interpreter struct{}

var _ bqnbridge.Interpreter = (*Interpreter)(nil)

// New initializes CBQN on first use.
func New() (*Interpreter, error) {
	initOnce.Do(func() { C.bqn_init() })
	return &Interpreter{}, nil
}

func (*Interpreter) MakeF64(x float64) bqnbridge.Value {
	mu.Lock()
	defer mu.Unlock()
	return bqnbridge.Value(C.bqn_makeF64(C.double(x)))
}

func (*Interpreter) MakeF64Vec(xs []float64) bqnbridge.Value {
	mu.Lock()
	defer mu.Unlock()
	var p *C.double
	if len(xs) > 0 {
		p = (*C.double)(unsafe.Pointer(&xs[0]))
	}
	return bqnbridge.Value(C.bqn_makeF64Vec(C.size_t(len(xs)), p))
}

func (*Interpreter) MakeChar(r rune) bqnbridge.Value {
	mu.Lock()
	defer mu.Unlock()
	return bqnbridge.Value(C.bqn_makeChar(C.uint32_t(r)))
}

func (*Interpreter) Type(v bqnbridge.Value) bqnbridge.Kind {
	mu.Lock()
	defer mu.Unlock()
	return bqnbridge.Kind(C.bqn_type(C.BQNV(v)))
}

func (*Interpreter) Bound(v bqnbridge.Value) int {
	mu.Lock()
	defer mu.Unlock()
	return int(C.bqn_bound(C.BQNV(v)))
}

func (*Interpreter) ReadF64(v bqnbridge.Value) float64 {
	mu.Lock()
	defer mu.Unlock()
	return float64(C.bqn_readF64(C.BQNV(v)))
}

// ReadF64Arr copies the array into buf, which must hold Bound(v) elements.
func (*Interpreter) ReadF64Arr(v bqnbridge.Value, buf []float64) {
	if len(buf) == 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	C.bqn_readF64Arr(C.BQNV(v), (*C.double)(unsafe.Pointer(&buf[0])))
}

func (*Interpreter) ReadChar(v bqnbridge.Value) rune {
	mu.Lock()
	defer mu.Unlock()
	return rune(C.bqn_readChar(C.BQNV(v)))
}

func (*Interpreter) Free(v bqnbridge.Value) {
	mu.Lock()
	defer mu.Unlock()
	C.bqn_free(C.BQNV(v))
}
