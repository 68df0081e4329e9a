package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	goruntime "runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/bqn-bridge/engine"
	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

// stepClock advances by step on every reading.
type stepClock struct {
	now  time.Time
	step time.Duration
	mu   sync.Mutex
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func newTestRuntime(t *testing.T, cfg *Config) *Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt
}

func heapOf(t *testing.T, rt *Runtime) *engine.Heap {
	t.Helper()
	h, ok := rt.Interpreter().(*engine.Heap)
	if !ok {
		t.Fatalf("interpreter is %T, want *engine.Heap", rt.Interpreter())
	}
	return h
}

func timingOpts(v string) term.List {
	return term.List{term.Tuple{term.Atom("timing"), term.Atom(v)}}
}

// waitFor runs the collector until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		goruntime.GC()
		time.Sleep(5 * time.Millisecond)
	}
}

func mustTuple(t *testing.T, res term.Term, n int) term.Tuple {
	t.Helper()
	tup, ok := res.(term.Tuple)
	if !ok || len(tup) != n {
		t.Fatalf("result = %v, want %d-tuple", res, n)
	}
	if tup[0] != term.Atom("ok") {
		t.Fatalf("result tag = %v, want ok", tup[0])
	}
	return tup
}

func TestMakeRead_WorkedExamples(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	tests := []struct {
		name string
		in   term.Term
	}{
		{"scalar", term.Float(3.5)},
		{"vector", term.List{term.Float(1), term.Float(2), term.Float(3)}},
		{"empty", term.List{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Make(ctx, tt.in)
			if err != nil {
				t.Fatalf("make: %v", err)
			}
			ref, ok := mustTuple(t, res, 2)[1].(term.Ref)
			if !ok {
				t.Fatalf("make returned %v, want a reference", res)
			}

			res, err = rt.Read(ctx, ref)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if diff := cmp.Diff(tt.in, mustTuple(t, res, 2)[1]); diff != "" {
				t.Errorf("read mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMake_Rejects(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	m, _ := term.MapFromArrays([]term.Term{term.Atom("a")}, []term.Term{term.Float(1)})

	inputs := map[string]term.Term{
		"atom":            term.Atom("foo"),
		"tuple":           term.Tuple{term.Float(1)},
		"map":             m,
		"binary":          term.Binary("abc"),
		"integer":         term.Integer(1),
		"pid":             term.Pid{ID: 80},
		"port":            term.Port{ID: 1},
		"ref":             term.MakeRef(),
		"integer element": term.List{term.Float(1), term.Integer(2), term.Float(3)},
		"improper list":   term.ImproperList{Elems: []term.Term{term.Float(1)}, Tail: term.Float(2)},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			res, err := rt.Make(ctx, in)
			if err == nil {
				t.Fatalf("make(%v) = %v, want error", in, res)
			}
			if !errors.IsBadArg(err) {
				t.Errorf("error %v is not a bad argument", err)
			}
		})
	}

	if n := heapOf(t, rt).Live(); n != 0 {
		t.Errorf("failed makes left %d foreign values", n)
	}
	if n := rt.Registry().Len(); n != 0 {
		t.Errorf("failed makes left %d handles", n)
	}
}

func TestMake_Options(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, &Config{Clock: &stepClock{step: 7 * time.Microsecond}})

	tests := []struct {
		name string
		opts term.Term
		want map[term.Atom]term.Term
	}{
		{"timing true", timingOpts("true"), map[term.Atom]term.Term{"tsdiff": term.Integer(7)}},
		{"tsdiff alias", term.List{term.Tuple{term.Atom("tsdiff"), term.Atom("true")}}, map[term.Atom]term.Term{"tsdiff": term.Integer(7)}},
		{"timing false", timingOpts("false"), map[term.Atom]term.Term{}},
		{"empty list", term.List{}, map[term.Atom]term.Term{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Make(ctx, term.Float(3.5), tt.opts)
			if err != nil {
				t.Fatalf("make/2: %v", err)
			}
			stats, ok := mustTuple(t, res, 3)[2].(term.Map)
			if !ok {
				t.Fatalf("stats = %v, want map", res)
			}
			if stats.Len() != len(tt.want) {
				t.Fatalf("stats = %v, want %v", stats, tt.want)
			}
			for k, v := range tt.want {
				if got, ok := stats.Get(k); !ok || !term.Equal(got, v) {
					t.Errorf("stats[%s] = %v, want %v", k, got, v)
				}
			}
		})
	}
}

func TestRead_Options(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, &Config{Clock: &stepClock{step: 2 * time.Millisecond}})

	res, err := rt.Make(ctx, term.List{term.Float(1)})
	if err != nil {
		t.Fatal(err)
	}
	ref := mustTuple(t, res, 2)[1]

	res, err = rt.Read(ctx, ref, timingOpts("true"))
	if err != nil {
		t.Fatalf("read/2: %v", err)
	}
	tup := mustTuple(t, res, 3)
	if !term.Equal(tup[1], term.List{term.Float(1)}) {
		t.Errorf("payload = %v", tup[1])
	}
	if got, _ := tup[2].(term.Map).Get(term.Atom("tsdiff")); !term.Equal(got, term.Integer(2000)) {
		t.Errorf("tsdiff = %v, want 2000", got)
	}
}

func TestOptions_Rejects(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	bad := map[string]term.Term{
		"unknown key":    term.List{term.Tuple{term.Atom("unknown"), term.Atom("true")}},
		"maybe":          timingOpts("maybe"),
		"not a list":     term.Atom("timing"),
		"bare atom":      term.List{term.Atom("timing")},
		"arity 3":        term.List{term.Tuple{term.Atom("timing"), term.Atom("true"), term.Atom("x")}},
		"integer value":  term.List{term.Tuple{term.Atom("timing"), term.Integer(1)}},
		"conflict":       term.List{term.Tuple{term.Atom("timing"), term.Atom("true")}, term.Tuple{term.Atom("tsdiff"), term.Atom("false")}},
		"improper":       term.ImproperList{Elems: []term.Term{term.Tuple{term.Atom("timing"), term.Atom("true")}}, Tail: term.Atom("x")},
		"oversized atom": term.List{term.Tuple{term.Atom("timing_timing_timing_timing_timing"), term.Atom("true")}},
	}

	for name, opts := range bad {
		t.Run(name, func(t *testing.T) {
			if _, err := rt.Make(ctx, term.Float(1), opts); !errors.IsBadArg(err) {
				t.Errorf("make/2 error = %v, want bad argument", err)
			}
			if _, err := rt.Read(ctx, term.Float(1), opts); !errors.IsBadArg(err) {
				t.Errorf("read/2 error = %v, want bad argument", err)
			}
		})
	}

	if n := heapOf(t, rt).Live(); n != 0 {
		t.Errorf("rejected options left %d foreign values", n)
	}
}

func TestRead_NotAHandle(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	other := newTestRuntime(t, nil)

	res, err := other.Make(ctx, term.Float(1))
	if err != nil {
		t.Fatal(err)
	}
	foreign := mustTuple(t, res, 2)[1]

	inputs := map[string]term.Term{
		"float":         term.Float(3.5),
		"list":          term.List{term.Float(1)},
		"plain ref":     term.MakeRef(),
		"other runtime": foreign,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := rt.Read(ctx, in); !errors.IsBadArg(err) {
				t.Errorf("read(%v) error = %v, want bad argument", in, err)
			}
		})
	}
}

func TestCall_Dispatch(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	if _, err := rt.Call(ctx, "make"); !errors.IsBadArg(err) {
		t.Errorf("make/0 error = %v, want bad argument", err)
	}
	if _, err := rt.Call(ctx, "make", term.Float(1), term.List{}, term.List{}); !errors.IsBadArg(err) {
		t.Errorf("make/3 error = %v, want bad argument", err)
	}
	if _, err := rt.Call(ctx, "eval", term.Float(1)); !errors.IsBadArg(err) {
		t.Errorf("eval/1 error = %v, want bad argument", err)
	}

	res, err := rt.Call(ctx, "make", term.Float(2))
	if err != nil {
		t.Fatalf("make/1 via Call: %v", err)
	}
	mustTuple(t, res, 2)

	var names []string
	for _, f := range rt.Funcs().List() {
		if f.Flags&DirtyCPU == 0 {
			t.Errorf("%s is not flagged CPU-bound", f)
		}
		names = append(names, f.String())
	}
	if diff := cmp.Diff([]string{"make/1", "make/2", "read/1", "read/2"}, names); diff != "" {
		t.Errorf("function table mismatch (-want +got):\n%s", diff)
	}
}

func TestCall_ContextBoundsLaneWait(t *testing.T) {
	rt := newTestRuntime(t, &Config{DirtyWorkers: 1})

	if err := rt.lane.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := rt.Make(ctx, term.Float(1))
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindCanceled}) {
		t.Errorf("error = %v, want [dispatch] canceled", err)
	}
	if errors.IsBadArg(err) {
		t.Error("a lane timeout is not a bad argument")
	}

	rt.lane.Release(1)
	if _, err := rt.Make(context.Background(), term.Float(1)); err != nil {
		t.Errorf("make after release: %v", err)
	}
}

func TestConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, &Config{DirtyWorkers: 4})

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := range 64 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := term.List{term.Float(float64(i)), term.Float(float64(-i))}
			res, err := rt.Make(ctx, in)
			if err != nil {
				errs <- err
				return
			}
			res, err = rt.Read(ctx, res.(term.Tuple)[1])
			if err != nil {
				errs <- err
				return
			}
			if !term.Equal(res.(term.Tuple)[1], in) {
				errs <- stderrors.New("round trip mismatch for " + term.Format(in))
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func makeAndDrop(t *testing.T, rt *Runtime, n int) {
	t.Helper()
	for i := range n {
		if _, err := rt.Make(context.Background(), term.Float(float64(i))); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRelease_OnCollection(t *testing.T) {
	rt := newTestRuntime(t, nil)
	heap := heapOf(t, rt)

	makeAndDrop(t, rt, 100)
	waitFor(t, func() bool { return heap.Live() == 0 })

	if got := rt.Registry().Released(); got != 100 {
		t.Errorf("Released() = %d, want 100", got)
	}
}

func TestRelease_HeldHandleSurvives(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	heap := heapOf(t, rt)

	res, err := rt.Make(ctx, term.Float(9))
	if err != nil {
		t.Fatal(err)
	}
	ref := res.(term.Tuple)[1]

	makeAndDrop(t, rt, 10)
	waitFor(t, func() bool { return heap.Live() == 1 })

	res, err = rt.Read(ctx, ref)
	if err != nil {
		t.Fatalf("read of held handle: %v", err)
	}
	if !term.Equal(res.(term.Tuple)[1], term.Float(9)) {
		t.Errorf("read = %v", res)
	}
	goruntime.KeepAlive(ref)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	heap := heapOf(t, rt)

	res, err := rt.Make(ctx, term.List{term.Float(1)})
	if err != nil {
		t.Fatal(err)
	}
	ref := res.(term.Tuple)[1]
	if heap.Live() != 1 {
		t.Fatalf("Live() = %d, want 1", heap.Live())
	}

	if err := rt.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rt.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if rt.Registry().Released() != 1 {
		t.Errorf("Released() = %d, want 1", rt.Registry().Released())
	}
	_, err = rt.Read(ctx, ref)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindNotInitialized}) {
		t.Fatalf("read after Close error = %v, want [dispatch] not_initialized", err)
	}
	if msg := err.Error(); msg != "[dispatch] not_initialized: runtime closed" {
		t.Errorf("error message = %q", msg)
	}
}

func TestClose_WaitsForRunningCalls(t *testing.T) {
	big := make(term.List, 200_000)
	for i := range big {
		big[i] = term.Float(float64(i))
	}

	for round := range 3 {
		ctx := context.Background()
		rt, err := NewWithConfig(ctx, &Config{DirtyWorkers: 4})
		if err != nil {
			t.Fatal(err)
		}

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			failed []string
		)
		report := func(msg string) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, msg)
		}

		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if p := recover(); p != nil {
						report(fmt.Sprintf("make panicked: %v", p))
					}
				}()
				for {
					_, err := rt.Make(ctx, big)
					if err == nil {
						continue
					}
					if !errors.Is(err, &errors.Error{Phase: errors.PhaseDispatch, Kind: errors.KindNotInitialized}) {
						report(fmt.Sprintf("make error: %v", err))
					}
					return
				}
			}()
		}

		deadline := time.Now().Add(5 * time.Second)
		for rt.Registry().Created() < 2 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if err := rt.Close(ctx); err != nil {
			t.Fatalf("round %d: Close: %v", round, err)
		}
		wg.Wait()

		for _, msg := range failed {
			t.Errorf("round %d: %s", round, msg)
		}
		if c, r := rt.Registry().Created(), rt.Registry().Released(); c != r {
			t.Errorf("round %d: created %d, released %d", round, c, r)
		}
	}
}

func TestClose_KeepsCallerInterpreter(t *testing.T) {
	ctx := context.Background()
	heap, err := engine.NewHeap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer heap.Close(ctx)

	rt, err := NewWithConfig(ctx, &Config{Interpreter: heap})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Make(ctx, term.Float(1)); err != nil {
		t.Fatal(err)
	}
	if err := rt.Close(ctx); err != nil {
		t.Fatal(err)
	}

	// the heap is still usable and the handle's value was freed
	if heap.Live() != 0 {
		t.Errorf("Live() = %d, want 0", heap.Live())
	}
	v := heap.MakeF64(2)
	heap.Free(v)
}
