package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/errors"
)

// heapModule is a minimal WASM module with 1 page of growable memory
// exported as "memory".
var heapModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

const (
	pageSize   = 65536
	headerSize = 8
	// offsets below firstBlock are never allocated so Value 0 stays invalid
	firstBlock = 8
)

// Config holds configuration for heap creation
type Config struct {
	// Logger receives growth events. nil selects Logger().
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum heap size in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Heap is a foreign interpreter whose values live in WASM linear memory.
type Heap struct {
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	alloc   *allocator
	logger  *zap.Logger
	mu      sync.Mutex
	closed  bool
}

var _ bqnbridge.Interpreter = (*Heap)(nil)

// NewHeap creates a heap with default configuration.
func NewHeap(ctx context.Context) (*Heap, error) {
	return NewHeapWithConfig(ctx, nil)
}

// NewHeapWithConfig creates a heap with custom configuration.
func NewHeapWithConfig(ctx context.Context, cfg *Config) (*Heap, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	log := Logger()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	mod, err := rt.InstantiateWithConfig(ctx, heapModule, wazero.NewModuleConfig().WithName("bqn-heap"))
	if err != nil {
		rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotInitialized, err, "instantiate heap module")
	}

	mem := mod.ExportedMemory("memory")
	if mem == nil {
		rt.Close(ctx)
		return nil, errors.NotInitialized(errors.PhaseRuntime, "heap memory")
	}

	return &Heap{
		runtime: rt,
		module:  mod,
		mem:     mem,
		alloc:   newAllocator(firstBlock),
		logger:  log,
	}, nil
}

// Close releases the WASM runtime. Values still allocated are discarded.
func (h *Heap) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.runtime.Close(ctx)
}

// MakeF64 allocates a number.
func (h *Heap) MakeF64(x float64) bqnbridge.Value {
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.allocBlock(bqnbridge.KindNumber, 1)
	h.mustWrite(h.mem.WriteFloat64Le(off+headerSize, x), off)
	return bqnbridge.Value(off)
}

// MakeF64Vec allocates an array holding a copy of xs.
func (h *Heap) MakeF64Vec(xs []float64) bqnbridge.Value {
	h.mu.Lock()
	defer h.mu.Unlock()

	if uint64(len(xs)) > math.MaxUint32/8 {
		panic(errors.AllocationFailed(errors.PhaseEncode, uint64(len(xs))*8))
	}
	n := uint32(len(xs))
	off := h.allocBlock(bqnbridge.KindArray, n)
	if n == 0 {
		return bqnbridge.Value(off)
	}

	payload, ok := h.mem.Read(off+headerSize, n*8)
	h.mustWrite(ok, off)
	for i, x := range xs {
		binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(x))
	}
	return bqnbridge.Value(off)
}

// MakeChar allocates a character.
func (h *Heap) MakeChar(r rune) bqnbridge.Value {
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.allocBlock(bqnbridge.KindCharacter, 1)
	h.mustWrite(h.mem.WriteUint32Le(off+headerSize, uint32(r)), off)
	return bqnbridge.Value(off)
}

// Type returns the kind of v, or KindInvalid when v is not a live value.
func (h *Heap) Type(v bqnbridge.Value) bqnbridge.Kind {
	h.mu.Lock()
	defer h.mu.Unlock()

	off, ok := h.block(v)
	if !ok {
		return bqnbridge.KindInvalid
	}
	kind, _ := h.mem.ReadUint32Le(off)
	return bqnbridge.Kind(kind)
}

// Bound returns the element count of an array, 1 for atoms and 0 for
// values that are not live.
func (h *Heap) Bound(v bqnbridge.Value) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	off, ok := h.block(v)
	if !ok {
		return 0
	}
	n, _ := h.mem.ReadUint32Le(off + 4)
	return int(n)
}

// ReadF64 reads a number. It panics when v is not a live number.
func (h *Heap) ReadF64(v bqnbridge.Value) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.mustKind(v, bqnbridge.KindNumber)
	x, _ := h.mem.ReadFloat64Le(off + headerSize)
	return x
}

// ReadF64Arr copies an array into buf with one bulk read. It panics when v
// is not a live array or buf is too short.
func (h *Heap) ReadF64Arr(v bqnbridge.Value, buf []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.mustKind(v, bqnbridge.KindArray)
	n, _ := h.mem.ReadUint32Le(off + 4)
	if len(buf) < int(n) {
		panic(fmt.Sprintf("engine: ReadF64Arr buffer holds %d of %d elements", len(buf), n))
	}
	if n == 0 {
		return
	}
	payload, _ := h.mem.Read(off+headerSize, n*8)
	for i := range int(n) {
		buf[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
	}
}

// ReadChar reads a character. It panics when v is not a live character.
func (h *Heap) ReadChar(v bqnbridge.Value) rune {
	h.mu.Lock()
	defer h.mu.Unlock()

	off := h.mustKind(v, bqnbridge.KindCharacter)
	r, _ := h.mem.ReadUint32Le(off + headerSize)
	return rune(r)
}

// Free releases v. Freeing a value twice, or one the heap never made,
// panics.
func (h *Heap) Free(v bqnbridge.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	if v > math.MaxUint32 || !h.alloc.release(uint32(v)) {
		panic(fmt.Sprintf("engine: free of unknown value %d", v))
	}
}

// Live returns the number of allocated values.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.live()
}

// InUse returns the number of bytes held by allocated values.
func (h *Heap) InUse() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.inUse
}

// Pages returns the current memory size in pages.
func (h *Heap) Pages() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mem.Size() / pageSize
}

// allocBlock reserves a block for n elements and writes its header.
// Callers hold h.mu.
func (h *Heap) allocBlock(kind bqnbridge.Kind, n uint32) uint32 {
	if h.closed {
		panic("engine: heap closed")
	}
	size := uint64(headerSize) + uint64(n)*8
	if size > math.MaxUint32-blockAlign {
		panic(errors.AllocationFailed(errors.PhaseEncode, size))
	}

	off, top, ok := h.alloc.alloc(uint32(size))
	if !ok {
		panic(errors.AllocationFailed(errors.PhaseEncode, size))
	}
	if !h.ensure(top) {
		h.alloc.release(off)
		panic(errors.AllocationFailed(errors.PhaseEncode, size))
	}

	h.mustWrite(h.mem.WriteUint32Le(off, uint32(kind)), off)
	h.mustWrite(h.mem.WriteUint32Le(off+4, n), off)
	return off
}

// ensure grows memory until top is addressable.
func (h *Heap) ensure(top uint32) bool {
	have := h.mem.Size()
	if top <= have {
		return true
	}
	need := (uint64(top) - uint64(have) + pageSize - 1) / pageSize
	prev, ok := h.mem.Grow(uint32(need))
	if !ok {
		h.logger.Debug("heap growth refused", zap.Uint32("pages", have/pageSize), zap.Uint64("requested", need))
		return false
	}
	h.logger.Debug("heap grown",
		zap.Uint32("from_pages", prev),
		zap.Uint64("to_pages", uint64(prev)+need),
	)
	return true
}

func (h *Heap) block(v bqnbridge.Value) (uint32, bool) {
	if v == 0 || v > math.MaxUint32 || h.closed {
		return 0, false
	}
	off := uint32(v)
	_, ok := h.alloc.size(off)
	return off, ok
}

func (h *Heap) mustKind(v bqnbridge.Value, want bqnbridge.Kind) uint32 {
	off, ok := h.block(v)
	if !ok {
		panic(fmt.Sprintf("engine: value %d is not live", v))
	}
	kind, _ := h.mem.ReadUint32Le(off)
	if bqnbridge.Kind(kind) != want {
		panic(fmt.Sprintf("engine: value %d is %s, not %s", v, bqnbridge.Kind(kind), want))
	}
	return off
}

func (h *Heap) mustWrite(ok bool, off uint32) {
	if !ok {
		panic(fmt.Sprintf("engine: heap write out of bounds at %d", off))
	}
}
