// Package store holds the immutable, load-time-populated transducer
// body: states, transitions, and final weights, laid out as a flat
// transition array plus a per-state offset index for O(1) access to a
// state's outgoing transitions. Modeled on the flattened
// row-per-state layout used for capture-slot tables in Thompson NFA
// simulators (table[stateID*stride+slot]), generalized here to a
// variable-width row per state via an offsets array.
package store

import (
	"fmt"
	"sort"

	"github.com/coregx/kfst/internal/sparse"
	"github.com/coregx/kfst/symtab"
)

// StateID identifies a transducer state. States are dense integers in
// [0, N). State 0 is always the start state.
type StateID uint32

// Transition is a single edge: consume/produce a symbol (or epsilon, or
// obey a flag-diacritic constraint) while moving from Src to Dst.
type Transition struct {
	Src    StateID
	Dst    StateID
	In     symtab.ID
	Out    symtab.ID
	Weight float64
}

// Store is the immutable transition/final-weight body of a transducer.
// All fields are read-only after Build; concurrent lookups need no
// synchronization against a *Store.
type Store struct {
	transitions []Transition // grouped by Src, original per-state order preserved
	offsets     []uint32     // len NumStates()+1; offsets[s]:offsets[s+1] is state s's block

	finalWeights []float64          // dense, valid only where finalSet.Contains(s)
	finalSet     *sparse.SparseSet  // which state ids are final
	numStates    uint32
	weighted     bool
}

// StartState is always state 0.
func (s *Store) StartState() StateID { return 0 }

// NumStates returns the dense state count N.
func (s *Store) NumStates() uint32 { return s.numStates }

// Weighted reports whether any transition or final weight in this
// transducer is non-zero-by-construction (i.e. the source format
// carried explicit weights).
func (s *Store) Weighted() bool { return s.weighted }

// TransitionsFrom returns state's outgoing transitions in source order.
// The returned slice aliases Store-owned memory and must not be
// modified or retained past the Store's lifetime assumptions (the
// Store never mutates it, so aliasing is safe for reads).
func (s *Store) TransitionsFrom(state StateID) []Transition {
	if uint32(state) >= s.numStates {
		return nil
	}
	return s.transitions[s.offsets[state]:s.offsets[state+1]]
}

// FinalWeight returns state's acceptance weight and whether it is final
// at all. Non-final states are absent from the underlying table, not
// merely zero-weighted.
func (s *Store) FinalWeight(state StateID) (float64, bool) {
	if uint32(state) >= s.numStates || !s.finalSet.Contains(uint32(state)) {
		return 0, false
	}
	return s.finalWeights[state], true
}

// FinalEntry pairs a final state id with its acceptance weight.
type FinalEntry struct {
	State  StateID
	Weight float64
}

// Finals returns every final state and its weight, sorted ascending by
// state id. Used by codecs that must enumerate final states (e.g. the
// tabular encoder); lookup itself only ever needs FinalWeight.
func (s *Store) Finals() []FinalEntry {
	ids := s.finalSet.Values()
	out := make([]FinalEntry, len(ids))
	for i, id := range ids {
		out[i] = FinalEntry{State: StateID(id), Weight: s.finalWeights[id]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}

// validate checks the structural invariants a loaded transducer must satisfy:
// loaded transducer: all referenced symbol/state ids are in range.
func (s *Store) validate(symbols *symtab.Table) error {
	n := symbols.Len()
	for _, tr := range s.transitions {
		if uint32(tr.Src) >= s.numStates || uint32(tr.Dst) >= s.numStates {
			return fmt.Errorf("store: transition references out-of-range state (src=%d dst=%d, N=%d)", tr.Src, tr.Dst, s.numStates)
		}
		if int(tr.In) >= n || int(tr.Out) >= n {
			return fmt.Errorf("store: transition references out-of-range symbol (in=%d out=%d, |symbols|=%d)", tr.In, tr.Out, n)
		}
	}
	return nil
}
