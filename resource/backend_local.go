package resource

import (
	"errors"
	"sync"

	bqnbridge "github.com/wippyai/bqn-bridge"
)

var ErrClosed = errors.New("resource backend closed")

// LocalBackend is the in-memory slot table behind a Registry.
// Slots are reused through a free list; a generation counter per slot keeps
// a reused slot from answering for an older handle.
type LocalBackend struct {
	entries  []entry
	freeList []ID
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	typ   *Type
	value bqnbridge.Value
	gen   uint32
	valid bool
}

// Released is a value handed out by Drop or Close for destruction.
type Released struct {
	Type  *Type
	Value bqnbridge.Value
	ID    ID
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]ID, 0, 16),
	}
}

// Create stores a value and returns its slot and generation.
func (b *LocalBackend) Create(typ *Type, value bqnbridge.Value) (ID, uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, 0, ErrClosed
	}

	if len(b.freeList) > 0 {
		id := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[id-1]
		e.typ = typ
		e.value = value
		e.gen++
		e.valid = true
		return id, e.gen, nil
	}

	b.entries = append(b.entries, entry{typ: typ, value: value, gen: 1, valid: true})
	return ID(len(b.entries)), 1, nil
}

// Get retrieves a live value by slot and generation.
func (b *LocalBackend) Get(id ID, gen uint32) (*Type, bqnbridge.Value, bool) {
	if id == 0 {
		return nil, 0, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	idx := int(id) - 1
	if idx >= len(b.entries) {
		return nil, 0, false
	}

	e := b.entries[idx]
	if !e.valid || e.gen != gen {
		return nil, 0, false
	}
	return e.typ, e.value, true
}

// Drop frees a slot and returns its value. Only the first Drop of a given
// slot and generation succeeds.
func (b *LocalBackend) Drop(id ID, gen uint32) (Released, bool) {
	if id == 0 {
		return Released{}, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := int(id) - 1
	if idx >= len(b.entries) {
		return Released{}, false
	}

	e := &b.entries[idx]
	if !e.valid || e.gen != gen {
		return Released{}, false
	}

	r := Released{Type: e.typ, Value: e.value, ID: id}
	e.valid = false
	e.typ = nil
	e.value = 0
	if !b.closed {
		b.freeList = append(b.freeList, id)
	}
	return r, true
}

// Close marks the backend closed and returns every live value.
func (b *LocalBackend) Close() []Released {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var out []Released
	for i := range b.entries {
		e := &b.entries[i]
		if e.valid {
			out = append(out, Released{Type: e.typ, Value: e.value, ID: ID(i + 1)})
			e.valid = false
			e.typ = nil
			e.value = 0
		}
	}
	b.freeList = nil
	return out
}

// Len returns the number of live slots.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}
