// Package cbqn binds the bridge to libcbqn through its C FFI.
//
// The binding is only compiled with the cbqn build tag and needs libcbqn
// and bqnffi.h on the linker and include paths:
//
//	go build -tags cbqn ./...
//
// Without the tag, New returns an error and the engine heap is the only
// available interpreter.
//
// CBQN is single-threaded. The interpreter is initialized once per process
// and every call into it is serialized.
package cbqn
