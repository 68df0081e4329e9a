package runtime

import (
	"context"
	goruntime "runtime"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/engine"
	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/options"
	"github.com/wippyai/bqn-bridge/resource"
	"github.com/wippyai/bqn-bridge/stats"
	"github.com/wippyai/bqn-bridge/term"
	"github.com/wippyai/bqn-bridge/transcoder"
)

// TypeName is the resource type every handle is registered under.
const TypeName = "BQNV"

var atomOK = term.Atom("ok")

// Config holds configuration for runtime creation
type Config struct {
	// Interpreter owns foreign values. nil creates an engine.Heap that the
	// runtime closes on Close.
	Interpreter bqnbridge.Interpreter

	// Logger receives lifecycle and dispatch events. nil selects Logger().
	Logger *zap.Logger

	// Clock supplies timing timestamps. nil selects stats.SystemClock.
	Clock stats.Clock

	// DirtyWorkers bounds concurrent CPU-bound calls. 0 means GOMAXPROCS.
	DirtyWorkers int

	// MemoryLimitPages caps the default heap (64KB pages). 0 means default.
	MemoryLimitPages uint32
}

type Runtime struct {
	interp   bqnbridge.Interpreter
	registry *resource.Registry
	bqnv     *resource.Type
	enc      *transcoder.Encoder
	dec      *transcoder.Decoder
	lane     *semaphore.Weighted
	funcs    *FuncTable
	clock    stats.Clock
	logger   *zap.Logger
	owned    bool
	closed   bool
	// held shared by every call, exclusively by Close
	mu sync.RWMutex
}

// New creates a runtime over a fresh engine heap.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a runtime with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = Logger()
	}

	interp := cfg.Interpreter
	owned := false
	if interp == nil {
		heap, err := engine.NewHeapWithConfig(ctx, &engine.Config{
			MemoryLimitPages: cfg.MemoryLimitPages,
			Logger:           log.Named("engine"),
		})
		if err != nil {
			return nil, err
		}
		interp = heap
		owned = true
	}

	workers := cfg.DirtyWorkers
	if workers <= 0 {
		workers = goruntime.GOMAXPROCS(0)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = stats.SystemClock
	}

	reg := resource.NewRegistryWithLogger(log.Named("resource"))

	return &Runtime{
		interp:   interp,
		registry: reg,
		bqnv:     reg.OpenType(TypeName, interp.Free),
		enc:      transcoder.NewEncoder(interp),
		dec:      transcoder.NewDecoder(interp),
		lane:     semaphore.NewWeighted(int64(workers)),
		funcs:    newFuncTable(bridgeFuncs...),
		clock:    clock,
		logger:   log,
		owned:    owned,
	}, nil
}

// Close waits for running calls to finish, then releases every live handle
// and the interpreter if the runtime created it. Handles collected
// afterwards are no-ops.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.registry.Close(); err != nil {
		return err
	}
	if !r.owned {
		return nil
	}
	if c, ok := r.interp.(bqnbridge.Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

// Interpreter returns the interpreter backing the runtime.
func (r *Runtime) Interpreter() bqnbridge.Interpreter {
	return r.interp
}

// Registry returns the handle registry.
func (r *Runtime) Registry() *resource.Registry {
	return r.registry
}

// Funcs returns the function table.
func (r *Runtime) Funcs() *FuncTable {
	return r.funcs
}

// Call runs the function registered under name with len(args) arity.
func (r *Runtime) Call(ctx context.Context, name string, args ...term.Term) (term.Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, errors.New(errors.PhaseDispatch, errors.KindNotInitialized).
			Detail("runtime closed").
			Build()
	}

	f, ok := r.funcs.Lookup(name, len(args))
	if !ok {
		err := errors.NotFound(errors.PhaseDispatch, "function", name+"/"+strconv.Itoa(len(args)))
		r.logger.Debug("unknown function", zap.String("name", name), zap.Int("arity", len(args)))
		return nil, err
	}

	if f.Flags&DirtyCPU != 0 {
		if err := r.lane.Acquire(ctx, 1); err != nil {
			return nil, errors.Wrap(errors.PhaseDispatch, errors.KindCanceled, err, "wait for call lane for "+f.String())
		}
		defer r.lane.Release(1)
	}

	res, err := f.fn(r, args)
	if err != nil {
		r.logger.Debug("call failed",
			zap.String("name", f.Name),
			zap.Int("arity", f.Arity),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

// Make calls make/1, or make/2 when opts is given.
func (r *Runtime) Make(ctx context.Context, v term.Term, opts ...term.Term) (term.Term, error) {
	return r.Call(ctx, "make", withOpts(v, opts)...)
}

// Read calls read/1, or read/2 when opts is given.
func (r *Runtime) Read(ctx context.Context, ref term.Term, opts ...term.Term) (term.Term, error) {
	return r.Call(ctx, "read", withOpts(ref, opts)...)
}

func withOpts(v term.Term, opts []term.Term) []term.Term {
	return append([]term.Term{v}, opts...)
}

// callOptions parses the optional second argument. withStats reports
// whether the result carries a stats map.
func callOptions(args []term.Term) (set options.Set, withStats bool, err error) {
	if len(args) < 2 {
		return options.Set{}, false, nil
	}
	set, err = options.Parse(args[1])
	return set, true, err
}

func (r *Runtime) bqnMake(args []term.Term) (term.Term, error) {
	opts, withStats, err := callOptions(args)
	if err != nil {
		return nil, err
	}

	var rec stats.Record
	timer := stats.Start(opts.Timing, r.clock)

	v, err := r.enc.Encode(args[0])
	if err != nil {
		return nil, err
	}
	h, err := r.registry.Wrap(r.bqnv, v)
	if err != nil {
		r.interp.Free(v)
		return nil, err
	}

	if err := timer.Stop(&rec); err != nil {
		return nil, err
	}
	return result(resource.Ref(h), rec, withStats), nil
}

func (r *Runtime) bqnRead(args []term.Term) (term.Term, error) {
	opts, withStats, err := callOptions(args)
	if err != nil {
		return nil, err
	}

	var rec stats.Record
	timer := stats.Start(opts.Timing, r.clock)

	h, err := r.registry.Unwrap(args[0], r.bqnv)
	if err != nil {
		return nil, err
	}
	t, err := r.dec.Decode(h.Value())
	// the handle must outlive the foreign reads
	goruntime.KeepAlive(h)
	if err != nil {
		return nil, err
	}

	if err := timer.Stop(&rec); err != nil {
		return nil, err
	}
	return result(t, rec, withStats), nil
}

func result(payload term.Term, rec stats.Record, withStats bool) term.Tuple {
	if !withStats {
		return term.Tuple{atomOK, payload}
	}
	return term.Tuple{atomOK, payload, rec.Term()}
}
