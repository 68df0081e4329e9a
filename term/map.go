package term

// Map is an association of unique keys to values. Iteration follows
// insertion order.
type Map struct {
	keys   []Term
	values []Term
}

// MapFromArrays builds a map from parallel key and value slices. It fails
// when the slices differ in length or a key repeats.
func MapFromArrays(keys, values []Term) (Map, bool) {
	if len(keys) != len(values) {
		return Map{}, false
	}
	m := Map{
		keys:   make([]Term, 0, len(keys)),
		values: make([]Term, 0, len(values)),
	}
	for i, k := range keys {
		if _, dup := m.Get(k); dup {
			return Map{}, false
		}
		m.keys = append(m.keys, k)
		m.values = append(m.values, values[i])
	}
	return m, true
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.keys) }

// Get returns the value stored under k.
func (m Map) Get(k Term) (Term, bool) {
	for i, key := range m.keys {
		if Equal(key, k) {
			return m.values[i], true
		}
	}
	return nil, false
}

// Each calls fn for every entry in order until fn returns false.
func (m Map) Each(fn func(k, v Term) bool) {
	for i := range m.keys {
		if !fn(m.keys[i], m.values[i]) {
			return
		}
	}
}
