// Package resource manages the handles that give host code ownership of
// foreign values.
//
// A Handle wraps exactly one foreign value. The value lives in the registry's
// table, keyed by the handle's slot; the Handle itself is an ordinary Go
// object that callers pass around inside a term.Ref. When the collector finds
// a Handle unreachable, a cleanup registered at Wrap time releases the slot
// and calls the type's destructor on the value. The table hands a slot's
// value out once, so the destructor runs exactly once per value even if
// Close races with the collector.
//
// # Resource Types
//
// Types are opened once, usually at startup:
//
//	reg := resource.NewRegistry()
//	bqnv := reg.OpenType("BQNV", interp.Free)
//
// Opening an existing name takes the type over: later releases use the new
// destructor.
//
// # Handles
//
//	h, err := reg.Wrap(bqnv, value)
//	ref := resource.Ref(h) // term.Ref carrying h
//
//	h, err = reg.Unwrap(ref, bqnv)
//	v := h.Value()
//	// ... use v ...
//	runtime.KeepAlive(h)
//
// Code that reads a handle's value must keep the handle reachable until it
// is done with the value.
//
// # Observers
//
// Observers are notified of created and released handles. Releases run on
// collector goroutines, so observers must be safe for concurrent use.
package resource
