package symtab

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownSymbol is returned by ID when the requested text was never
// inserted into the table.
var ErrUnknownSymbol = errors.New("symtab: unknown symbol")

// ErrInvalidID is returned by Text/Kind when the id is outside the
// table's range.
var ErrInvalidID = errors.New("symtab: invalid symbol id")

// Table is the bidirectional mapping between symbol text and ids,
// classified once at insertion time. A Table is built incrementally by
// a codec via Insert and is immutable once construction finishes; reads
// are safe for concurrent use after that point without synchronization,
// save for the lazily-built tokenizer automaton guarded by acOnce (see
// package lookup).
type Table struct {
	texts []string
	kinds []Kind
	flags []Flag
	ids   map[string]ID

	// acOnce and acData cache the Aho-Corasick automaton the lookup package
	// builds over this table's Regular symbols on first use. Stored here
	// (rather than per-lookup) so every Lookup call against the same
	// Transducer shares one automaton, matching the "immutable after
	// construction" concurrency model.
	acOnce sync.Once
	acData any
}

// New creates an empty Table with epsilon pre-registered as id 0, per
// the invariant that the epsilon id is 0 iff "@0@" is the first symbol.
func New() *Table {
	t := &Table{
		ids: make(map[string]ID, 64),
	}
	// Insert can't fail on the canonical epsilon spelling.
	_, _ = t.Insert(EpsilonText)
	return t
}

// Insert registers text if not already present and returns its id.
// Re-inserting the same text (including the canonical-vs-legacy epsilon
// spellings, which alias to the same id) is a no-op that returns the
// existing id. Returns an error only when text looks like a flag
// diacritic envelope but fails to parse.
func (t *Table) Insert(text string) (ID, error) {
	if text == legacyEpsilonText {
		text = EpsilonText
	}
	if id, ok := t.ids[text]; ok {
		return id, nil
	}

	kind, flag, err := classify(text)
	if err != nil {
		return 0, err
	}

	id := ID(len(t.texts))
	t.texts = append(t.texts, text)
	t.kinds = append(t.kinds, kind)
	t.flags = append(t.flags, flag)
	t.ids[text] = id
	return id, nil
}

// ID looks up the id of text, failing with ErrUnknownSymbol if absent.
func (t *Table) ID(text string) (ID, error) {
	if text == legacyEpsilonText {
		text = EpsilonText
	}
	id, ok := t.ids[text]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, text)
	}
	return id, nil
}

// TryID is the non-erroring form of ID, for hot paths that already
// expect misses.
func (t *Table) TryID(text string) (ID, bool) {
	if text == legacyEpsilonText {
		text = EpsilonText
	}
	id, ok := t.ids[text]
	return id, ok
}

// Text returns the textual form of id.
func (t *Table) Text(id ID) (string, error) {
	if int(id) >= len(t.texts) {
		return "", fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return t.texts[id], nil
}

// Kind returns id's classification.
func (t *Table) Kind(id ID) (Kind, error) {
	if int(id) >= len(t.kinds) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return t.kinds[id], nil
}

// FlagOf returns the parsed flag-diacritic descriptor for id. ok is
// false if id is not a FlagDiacritic.
func (t *Table) FlagOf(id ID) (Flag, bool) {
	if int(id) >= len(t.kinds) || t.kinds[id] != FlagDiacritic {
		return Flag{}, false
	}
	return t.flags[id], true
}

// Len returns the number of registered symbols, including epsilon.
func (t *Table) Len() int {
	return len(t.texts)
}

// Texts returns the symbol texts in original insertion order. The slice
// is owned by the Table and must not be modified; codecs rely on this
// order to round-trip the binary format's symbol section.
func (t *Table) Texts() []string {
	return t.texts
}

// TokenizerCache returns the value cached on this table, calling build
// to produce it on the first call only; later calls return the same
// value without calling build. The lookup package stores its tokenizer
// automaton here.
func (t *Table) TokenizerCache(build func() any) any {
	t.acOnce.Do(func() {
		t.acData = build()
	})
	return t.acData
}
