package resource

import (
	"sync/atomic"

	bqnbridge "github.com/wippyai/bqn-bridge"
)

// ID is a slot in the handle table. ID 0 is reserved and always invalid.
type ID uint32

// Destructor releases a foreign value.
type Destructor func(bqnbridge.Value)

// EventType identifies a lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventReleased
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
type Event struct {
	TypeName string
	Value    bqnbridge.Value
	ID       ID
	Type     EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Type is an opened resource type.
type Type struct {
	dtor atomic.Pointer[Destructor]
	reg  *Registry
	name string
}

// Name returns the name the type was opened with.
func (t *Type) Name() string { return t.name }

func (t *Type) destroy(v bqnbridge.Value) {
	if d := t.dtor.Load(); d != nil && *d != nil {
		(*d)(v)
	}
}

// Handle owns one foreign value. It is immutable after Wrap.
type Handle struct {
	typ   *Type
	value bqnbridge.Value
	id    ID
	gen   uint32
}

// Type returns the handle's resource type.
func (h *Handle) Type() *Type { return h.typ }

// Value returns the owned foreign value. The caller must keep h reachable
// while using it.
func (h *Handle) Value() bqnbridge.Value { return h.value }

// ID returns the handle's table slot.
func (h *Handle) ID() ID { return h.id }
