// Package runtime exposes the bridge entry points.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// make/1: encode a term into a foreign value owned by a handle
//	res, err := rt.Make(ctx, term.List{term.Float(1), term.Float(2)})
//	ref := res.(term.Tuple)[1]
//
//	// read/2: decode it back with timing
//	res, err = rt.Read(ctx, ref, term.List{term.Tuple{term.Atom("timing"), term.Atom("true")}})
//	fmt.Println(term.Format(res)) // {ok,[1.0,2.0],#{tsdiff => 3}}
//
// # Function Table
//
//	Name   Arity  Result
//	────────────────────────────────────────
//	make   1      {ok, Ref}
//	make   2      {ok, Ref, Stats}
//	read   1      {ok, Term}
//	read   2      {ok, Term, Stats}
//
// Call dispatches by name and arity; an unknown pair is a bad argument.
// Supplying an option list, even an empty one, selects the three-element
// result. Stats holds at most the tsdiff key.
//
// # Handles
//
// A handle owns its foreign value. It is released exactly once, when the Go
// collector finds it unreachable or when the runtime is closed. Callers never
// free values themselves.
//
// # Scheduling
//
// Every function is CPU-bound and runs on a bounded lane (DirtyWorkers wide,
// GOMAXPROCS by default). The context passed to Call only bounds the wait for
// a lane. A call that started always runs to completion, and Close waits
// for running calls before releasing handles.
//
// # Interpreters
//
// The default interpreter is an engine.Heap. Pass Config.Interpreter to use
// another one, such as the cbqn binding.
package runtime
