package lookup

import (
	"hash/fnv"

	"github.com/coregx/kfst/symtab"
)

// flagValue is one feature's assignment: either a plain value (set by
// @P@) or a negatively-tagged one (set by @N@, the "not V" tag).
type flagValue struct {
	value    string
	negative bool
}

// flagState is a persistent, copy-on-write feature dictionary: a
// per-path mapping from feature name to value, mutated by flag
// diacritics. Branching a search path clones cheaply (refcount
// bump, no copy); a write copies the underlying map only when it is
// still shared with another path. Modeled on nfa/pikevm.go's
// cowCaptures/sharedCaptures pair, generalized from a fixed-size int
// slice to a string-keyed map since flag features are named, not
// positional.
type flagState struct {
	shared *sharedFlags
}

type sharedFlags struct {
	data map[string]flagValue
	refs int
}

// clone returns a reference to the same underlying map, bumping its
// refcount. No copy happens until the clone is written to.
func (f flagState) clone() flagState {
	if f.shared == nil {
		return f
	}
	f.shared.refs++
	return flagState{shared: f.shared}
}

func (f flagState) get(feature string) (flagValue, bool) {
	if f.shared == nil {
		return flagValue{}, false
	}
	v, ok := f.shared.data[feature]
	return v, ok
}

// with returns a flagState reflecting data[feature] = v, copying the
// underlying map only if it's shared with another live path.
func (f flagState) with(feature string, v flagValue) flagState {
	if f.shared == nil {
		return flagState{shared: &sharedFlags{
			data: map[string]flagValue{feature: v},
			refs: 1,
		}}
	}
	if f.shared.refs > 1 {
		data := make(map[string]flagValue, len(f.shared.data)+1)
		for k, old := range f.shared.data {
			data[k] = old
		}
		data[feature] = v
		f.shared.refs--
		return flagState{shared: &sharedFlags{data: data, refs: 1}}
	}
	f.shared.data[feature] = v
	return f
}

// without returns a flagState with feature removed (the @C@ operator).
func (f flagState) without(feature string) flagState {
	if f.shared == nil {
		return f
	}
	if _, ok := f.shared.data[feature]; !ok {
		return f
	}
	if f.shared.refs > 1 {
		data := make(map[string]flagValue, len(f.shared.data))
		for k, old := range f.shared.data {
			if k != feature {
				data[k] = old
			}
		}
		f.shared.refs--
		return flagState{shared: &sharedFlags{data: data, refs: 1}}
	}
	delete(f.shared.data, feature)
	return f
}

// apply runs one flag-diacritic's precondition/effect
// against f, returning the successor state and whether the transition
// fires at all. A false ok means the branch is pruned without
// consuming input — not an error.
func (f flagState) apply(flag symtab.Flag) (flagState, bool) {
	switch flag.Op {
	case 'P':
		return f.with(flag.Feature, flagValue{value: flag.Value}), true
	case 'N':
		return f.with(flag.Feature, flagValue{value: flag.Value, negative: true}), true
	case 'R':
		v, defined := f.get(flag.Feature)
		if !defined {
			return f, false
		}
		if flag.HasValue && (v.negative || v.value != flag.Value) {
			return f, false
		}
		return f, true
	case 'D':
		v, defined := f.get(flag.Feature)
		if !flag.HasValue {
			return f, !defined
		}
		if !defined {
			return f, true
		}
		return f, v.negative || v.value != flag.Value
	case 'C':
		return f.without(flag.Feature), true
	case 'U':
		v, defined := f.get(flag.Feature)
		if !defined || (!v.negative && v.value == flag.Value) || (v.negative && v.value != flag.Value) {
			return f.with(flag.Feature, flagValue{value: flag.Value}), true
		}
		return f, false
	default:
		// classify() rejects unknown operators at load time; reaching
		// here would be an internal invariant violation.
		return f, false
	}
}

// fingerprint returns a digest of the current feature assignment,
// suitable for the epsilon-cycle guard's configuration key. Combination
// is order-independent (XOR of
// per-entry hashes) so map iteration order never affects the result.
func (f flagState) fingerprint() uint64 {
	if f.shared == nil || len(f.shared.data) == 0 {
		return 0
	}
	var acc uint64
	for k, v := range f.shared.data {
		h := fnv.New64a()
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(v.value))
		if v.negative {
			_, _ = h.Write([]byte{1})
		}
		acc ^= h.Sum64()
	}
	return acc
}
