package resource

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	bqnbridge "github.com/wippyai/bqn-bridge"
	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

// Registry owns the handle table and the resource types opened on it.
type Registry struct {
	backend   *LocalBackend
	logger    *zap.Logger
	types     map[string]*Type
	observers []observerEntry
	nextObs   uint64
	created   atomic.Uint64
	released  atomic.Uint64
	typesMu   sync.Mutex
	obsMu     sync.RWMutex
}

// NewRegistry creates an empty registry logging through Logger().
func NewRegistry() *Registry {
	return NewRegistryWithLogger(nil)
}

// NewRegistryWithLogger creates an empty registry. A nil logger selects Logger().
func NewRegistryWithLogger(l *zap.Logger) *Registry {
	if l == nil {
		l = Logger()
	}
	return &Registry{
		backend: NewLocalBackend(),
		logger:  l,
		types:   make(map[string]*Type),
	}
}

// OpenType registers a resource type, or takes over an existing type of the
// same name by replacing its destructor.
func (r *Registry) OpenType(name string, dtor Destructor) *Type {
	r.typesMu.Lock()
	defer r.typesMu.Unlock()

	if t, ok := r.types[name]; ok {
		t.dtor.Store(&dtor)
		r.logger.Debug("resource type taken over", zap.String("type", name))
		return t
	}

	t := &Type{reg: r, name: name}
	t.dtor.Store(&dtor)
	r.types[name] = t
	r.logger.Debug("resource type opened", zap.String("type", name))
	return t
}

// Wrap transfers ownership of v to a new handle. The handle's cleanup calls
// the type's destructor once the handle is unreachable. Wrap fails only
// after Close, in which case v is still owned by the caller.
func (r *Registry) Wrap(typ *Type, v bqnbridge.Value) (*Handle, error) {
	if typ == nil || typ.reg != r {
		return nil, errors.InvalidInput(errors.PhaseResource, nil, "resource type not opened on this registry")
	}

	id, gen, err := r.backend.Create(typ, v)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResource, errors.KindNotInitialized, err, "wrap "+typ.name)
	}

	h := &Handle{typ: typ, value: v, id: id, gen: gen}
	runtime.AddCleanup(h, r.collect, slot{id: id, gen: gen})
	r.created.Add(1)

	r.notify(Event{Type: EventCreated, ID: id, TypeName: typ.name, Value: v})
	return h, nil
}

// Ref returns a host reference term carrying h.
func Ref(h *Handle) term.Ref {
	return term.MakeResourceRef(h)
}

// Unwrap returns the live handle carried by t if it belongs to typ.
func (r *Registry) Unwrap(t term.Term, typ *Type) (*Handle, error) {
	if typ == nil {
		return nil, errors.InvalidInput(errors.PhaseResource, nil, "nil resource type")
	}
	ref, ok := t.(term.Ref)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseResource, nil, typeName(t), "resource reference")
	}
	obj, ok := ref.Resource()
	if !ok {
		return nil, errors.NotFound(errors.PhaseResource, "resource", term.Format(ref))
	}
	h, ok := obj.(*Handle)
	if !ok || h.typ != typ {
		return nil, errors.New(errors.PhaseResource, errors.KindNotFound).
			TermType("reference").
			Detail("not a %s resource", typ.Name()).
			Build()
	}
	if _, _, live := r.backend.Get(h.id, h.gen); !live {
		return nil, errors.NotFound(errors.PhaseResource, typ.name+" resource", term.Format(ref))
	}
	return h, nil
}

type slot struct {
	id  ID
	gen uint32
}

// collect runs on a collector goroutine after a handle became unreachable.
func (r *Registry) collect(s slot) {
	rel, ok := r.backend.Drop(s.id, s.gen)
	if !ok {
		return
	}
	r.destroy(rel)
}

func (r *Registry) destroy(rel Released) {
	rel.Type.destroy(rel.Value)
	r.released.Add(1)
	r.logger.Debug("resource released",
		zap.String("type", rel.Type.name),
		zap.Uint32("id", uint32(rel.ID)),
	)
	r.notify(Event{Type: EventReleased, ID: rel.ID, TypeName: rel.Type.name, Value: rel.Value})
}

type observerEntry struct {
	o  Observer
	id uint64
}

// Subscribe adds an observer for lifecycle events and returns a function
// that removes it.
func (r *Registry) Subscribe(o Observer) (unsubscribe func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.nextObs++
	id := r.nextObs
	r.observers = append(r.observers, observerEntry{o: o, id: id})
	return func() {
		r.obsMu.Lock()
		defer r.obsMu.Unlock()
		for i, e := range r.observers {
			if e.id == id {
				r.observers = append(r.observers[:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return r.backend.Len()
}

// Created returns how many handles were ever wrapped.
func (r *Registry) Created() uint64 { return r.created.Load() }

// Released returns how many values were handed to a destructor.
func (r *Registry) Released() uint64 { return r.released.Load() }

// Close releases every live value and refuses further Wrap calls.
// Cleanups of handles released here become no-ops.
func (r *Registry) Close() error {
	for _, rel := range r.backend.Close() {
		r.destroy(rel)
	}
	return nil
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, entry := range r.observers {
		entry.o.OnResourceEvent(e)
	}
}

func typeName(t term.Term) string {
	if t == nil {
		return "none"
	}
	return t.Type().String()
}
