package store

import (
	"fmt"
	"sort"

	"github.com/coregx/kfst/internal/sparse"
	"github.com/coregx/kfst/symtab"
)

// Builder accumulates transitions and final-state weights incrementally
// during codec loading and produces an immutable *Store via Build. A
// Builder is not safe for concurrent use; codecs build one Store per
// load on a single goroutine.
type Builder struct {
	transitions []Transition
	finals      map[StateID]float64
	weighted    bool
	maxState    StateID
	sawState    bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{finals: make(map[StateID]float64)}
}

// AddTransition appends a transition. Transitions are grouped by Src at
// Build time via a stable sort, so transitions added for the same Src
// in a given order are preserved in that order — the ordering
// order search enumeration needs to stay deterministic.
func (b *Builder) AddTransition(tr Transition) {
	b.transitions = append(b.transitions, tr)
	b.noteState(tr.Src)
	b.noteState(tr.Dst)
	if tr.Weight != 0 {
		b.weighted = true
	}
}

// SetFinal marks state as final with the given weight. Re-declaring a
// final state that was already set is rejected: final-state entries must be
// final-state entries to be unique per state id.
func (b *Builder) SetFinal(state StateID, weight float64) error {
	if _, exists := b.finals[state]; exists {
		return fmt.Errorf("store: state %d declared final more than once", state)
	}
	b.finals[state] = weight
	if weight != 0 {
		b.weighted = true
	}
	b.noteState(state)
	return nil
}

// MarkWeighted forces the resulting Store to report Weighted() even if
// every transition/final weight happens to be zero. Binary loads use
// this to preserve the source format's explicit weighted flag.
func (b *Builder) MarkWeighted() { b.weighted = true }

func (b *Builder) noteState(s StateID) {
	if !b.sawState || s > b.maxState {
		b.maxState = s
		b.sawState = true
	}
}

// Build finalizes construction into an immutable Store, validated
// against symbols. numStatesHint, if larger than the inferred state
// count, replaces it (the binary format records N explicitly; the ATT
// format must infer it from the highest referenced state id). A hint
// smaller than the inferred count is ignored.
func (b *Builder) Build(symbols *symtab.Table, numStatesHint uint32) (*Store, error) {
	numStates := uint32(0)
	if b.sawState {
		numStates = uint32(b.maxState) + 1
	}
	if numStatesHint > numStates {
		numStates = numStatesHint
	}
	if numStates == 0 {
		// State 0 (the start state) always exists, even for a
		// transducer with no transitions and no final states.
		numStates = 1
	}

	sorted := make([]Transition, len(b.transitions))
	copy(sorted, b.transitions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Src < sorted[j].Src })

	offsets := make([]uint32, numStates+1)
	for _, tr := range sorted {
		offsets[tr.Src+1]++
	}
	for i := uint32(1); i <= numStates; i++ {
		offsets[i] += offsets[i-1]
	}

	finalWeights := make([]float64, numStates)
	finalSet := sparse.NewSparseSet(numStates)
	for state, weight := range b.finals {
		finalWeights[state] = weight
		finalSet.Insert(uint32(state))
	}

	s := &Store{
		transitions:  sorted,
		offsets:      offsets,
		finalWeights: finalWeights,
		finalSet:     finalSet,
		numStates:    numStates,
		weighted:     b.weighted,
	}
	if err := s.validate(symbols); err != nil {
		return nil, err
	}
	return s, nil
}
