package runtime

import (
	"sort"
	"strconv"

	"github.com/wippyai/bqn-bridge/term"
)

// Flags describe how a function is scheduled.
type Flags uint8

const (
	// DirtyCPU marks a function that must run on the CPU-bound lane.
	DirtyCPU Flags = 1 << iota
)

type handler func(r *Runtime, args []term.Term) (term.Term, error)

// Func is one entry of the function table.
type Func struct {
	fn    handler
	Name  string
	Arity int
	Flags Flags
}

func (f Func) String() string {
	return f.Name + "/" + strconv.Itoa(f.Arity)
}

type funcKey struct {
	name  string
	arity int
}

// FuncTable maps name and arity to a handler.
type FuncTable struct {
	funcs map[funcKey]Func
}

func newFuncTable(funcs ...Func) *FuncTable {
	t := &FuncTable{funcs: make(map[funcKey]Func, len(funcs))}
	for _, f := range funcs {
		t.funcs[funcKey{f.Name, f.Arity}] = f
	}
	return t
}

// Lookup returns the function registered under name and arity.
func (t *FuncTable) Lookup(name string, arity int) (Func, bool) {
	f, ok := t.funcs[funcKey{name, arity}]
	return f, ok
}

// List returns every function sorted by name then arity.
func (t *FuncTable) List() []Func {
	out := make([]Func, 0, len(t.funcs))
	for _, f := range t.funcs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Arity < out[j].Arity
	})
	return out
}

var bridgeFuncs = []Func{
	{Name: "make", Arity: 1, Flags: DirtyCPU, fn: (*Runtime).bqnMake},
	{Name: "make", Arity: 2, Flags: DirtyCPU, fn: (*Runtime).bqnMake},
	{Name: "read", Arity: 1, Flags: DirtyCPU, fn: (*Runtime).bqnRead},
	{Name: "read", Arity: 2, Flags: DirtyCPU, fn: (*Runtime).bqnRead},
}
