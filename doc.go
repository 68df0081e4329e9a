// Package bqnbridge marshals values between Go host terms and a BQN
// interpreter that owns its values through its own allocator.
//
// The Go collector decides when a foreign value dies: every value the bridge
// creates is wrapped in a handle whose cleanup releases the value exactly
// once after the last reference to the handle is gone.
//
// # Architecture Overview
//
//	bqnbridge/           Root package with the Interpreter interface
//	├── runtime/         make/read entry points and the CPU-bound call lane
//	├── transcoder/      Host term <-> foreign value encoding
//	├── resource/        Handle registry with GC-driven release
//	├── options/         Keyword option list parsing
//	├── stats/           Timing record returned alongside results
//	├── term/            Host term model, literal parser and printer
//	├── engine/          wazero linear-memory value heap (pure Go backend)
//	├── cbqn/            cgo binding to libcbqn (build tag cbqn)
//	└── errors/          Structured error types
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	res, err := rt.Make(ctx, term.List{term.Float(1), term.Float(2)})
//	// res is {ok, Ref}
//	h := res.(term.Tuple)[1]
//
//	out, err := rt.Read(ctx, h, term.List{term.Tuple{term.Atom("timing"), term.Atom("true")}})
//	// out is {ok, [1.0,2.0], #{tsdiff => Micros}}
//
// # Thread Safety
//
// Runtime is safe for concurrent use. Calls run on a bounded lane reserved
// for CPU-bound foreign work; once a call starts it runs to completion.
// Handle cleanups run on collector goroutines and may overlap with calls on
// other handles.
package bqnbridge
