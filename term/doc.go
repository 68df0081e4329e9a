// Package term models the host runtime's terms.
//
// The set of shapes is closed: every Term is one of Atom, Binary, Float, Fun,
// Integer, List, ImproperList, Map, Pid, Port, Ref or Tuple, and reports the
// host's type tag through Type. Code that dispatches on terms should switch
// over the concrete types and keep an explicit default arm for the shapes it
// does not accept.
//
// Resource handles are references: a Ref built with MakeResourceRef carries
// the resource object, and keeps it reachable for as long as the Ref itself
// is reachable.
//
// Parse and Format convert between terms and the host's literal syntax:
//
//	t, err := term.Parse(`[{timing, true}]`)
//	fmt.Println(term.Format(t)) // [{timing,true}]
package term
