// Package stats builds the auxiliary record returned next to a bridge
// result when a caller passes options.
package stats

import (
	"time"

	"github.com/wippyai/bqn-bridge/errors"
	"github.com/wippyai/bqn-bridge/term"
)

// MaxEntries bounds the number of entries a Record can hold.
const MaxEntries = 4

// KeyTSDiff holds the conversion's elapsed time in microseconds.
const KeyTSDiff term.Atom = "tsdiff"

// Record is an ordered, bounded atom to term mapping.
// The zero value is an empty record ready for use.
type Record struct {
	keys   [MaxEntries]term.Atom
	values [MaxEntries]term.Term
	count  int
}

// Add appends an entry. It fails when the record is full or already holds k.
func (r *Record) Add(k term.Atom, v term.Term) error {
	for i := 0; i < r.count; i++ {
		if r.keys[i] == k {
			return errors.Conflict(errors.PhaseRuntime, nil, string(k))
		}
	}
	if r.count == MaxEntries {
		return errors.Overflow(errors.PhaseRuntime, []string{string(k)}, r.count+1, MaxEntries)
	}
	r.keys[r.count] = k
	r.values[r.count] = v
	r.count++
	return nil
}

// Len returns the number of entries.
func (r *Record) Len() int { return r.count }

// Get returns the value stored under k.
func (r *Record) Get(k term.Atom) (term.Term, bool) {
	for i := 0; i < r.count; i++ {
		if r.keys[i] == k {
			return r.values[i], true
		}
	}
	return nil, false
}

// Term converts the record into a host map, in insertion order.
func (r *Record) Term() term.Map {
	keys := make([]term.Term, r.count)
	values := make([]term.Term, r.count)
	for i := 0; i < r.count; i++ {
		keys[i] = r.keys[i]
		values[i] = r.values[i]
	}
	// Add rejects duplicate keys, so this cannot fail.
	m, _ := term.MapFromArrays(keys, values)
	return m
}

// Clock returns monotonic timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the process monotonic clock.
var SystemClock Clock = systemClock{}

// Timer measures one conversion. A disabled Timer records nothing.
type Timer struct {
	clock   Clock
	start   time.Time
	enabled bool
}

// Start takes the first timestamp when enabled is set.
func Start(enabled bool, clock Clock) Timer {
	if !enabled {
		return Timer{}
	}
	if clock == nil {
		clock = SystemClock
	}
	return Timer{clock: clock, start: clock.Now(), enabled: true}
}

// Stop takes the second timestamp and records the elapsed microseconds
// under KeyTSDiff.
func (t Timer) Stop(rec *Record) error {
	if !t.enabled {
		return nil
	}
	elapsed := t.clock.Now().Sub(t.start)
	return rec.Add(KeyTSDiff, term.Integer(elapsed.Microseconds()))
}
