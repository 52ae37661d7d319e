package lookup

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/kfst/symtab"
)

// Token is one unit of tokenized input: either an exact match against a
// Regular symbol (ID set, Literal false), or a single Unicode scalar
// that matched no symbol and must be consumed via an Identity/Unknown
// transition (Literal true, Rune/Text set).
type Token struct {
	ID      symtab.ID
	Literal bool
	Rune    rune
	Text    string // the bytes this token consumed, for output echoing
}

// automatonCache is built once per *symtab.Table (cached via
// Table.TokenizerCache) and shared by every Lookup against that table,
// matching the "immutable after construction, no synchronization for
// concurrent readers" model.
type automatonCache struct {
	ac     *ahocorasick.Automaton // presence accelerator, nil if no Regular symbols
	maxLen int                    // longest Regular symbol, in bytes
}

func getAutomatonCache(symbols *symtab.Table) *automatonCache {
	v := symbols.TokenizerCache(func() any { return buildAutomatonCache(symbols) })
	return v.(*automatonCache)
}

// buildAutomatonCache indexes every Regular symbol's text into an
// Aho-Corasick automaton. The automaton is used only as an IsMatch
// presence check — a fast "does any known symbol occur anywhere in the
// remaining input" test that lets Tokenize skip straight to
// identity/unknown fallback for long unrecognized runs (names,
// numbers, foreign text) without probing the symbol table at every
// byte. The authoritative longest-match decision still goes through a
// direct length-descending symbol-table scan (below), independent of
// whatever internal match-selection policy the automaton uses — this
// keeps correctness decoupled from the one part of the automaton's
// contract (IsMatch's boolean presence test) this codebase relies on.
func buildAutomatonCache(symbols *symtab.Table) *automatonCache {
	builder := ahocorasick.NewBuilder()
	maxLen := 0
	any := false
	for _, text := range symbols.Texts() {
		id, ok := symbols.TryID(text)
		if !ok {
			continue
		}
		kind, err := symbols.Kind(id)
		if err != nil || kind != symtab.Regular {
			continue
		}
		builder.AddPattern([]byte(text))
		any = true
		if len(text) > maxLen {
			maxLen = len(text)
		}
	}
	if !any {
		return &automatonCache{maxLen: maxLen}
	}
	auto, err := builder.Build()
	if err != nil {
		return &automatonCache{maxLen: maxLen}
	}
	return &automatonCache{ac: auto, maxLen: maxLen}
}

// Tokenize segments input into symbol ids by longest-match greedy
// tokenization against the Regular symbols of the table, falling back
// to Identity/Unknown for characters the table doesn't cover, per
// a longest-match scan against the Regular symbols.
func Tokenize(symbols *symtab.Table, input string) ([]Token, error) {
	cache := getAutomatonCache(symbols)
	hasFallback := hasIdentityOrUnknown(symbols)

	var tokens []Token
	pos := 0
	for pos < len(input) {
		if length, id, ok := longestRegularMatch(symbols, cache, input[pos:]); ok {
			tokens = append(tokens, Token{ID: id, Text: input[pos : pos+length]})
			pos += length
			continue
		}

		if !hasFallback {
			return nil, &LookupError{Kind: UntokenizableInput, Position: pos}
		}
		r, size := utf8.DecodeRuneInString(input[pos:])
		tokens = append(tokens, Token{Literal: true, Rune: r, Text: input[pos : pos+size]})
		pos += size
	}
	return tokens, nil
}

// longestRegularMatch finds the longest prefix of rest equal to the
// text of some Regular symbol, returning its byte length and id.
func longestRegularMatch(symbols *symtab.Table, cache *automatonCache, rest string) (int, symtab.ID, bool) {
	if cache.maxLen == 0 {
		return 0, 0, false
	}
	if cache.ac != nil && !cache.ac.IsMatch([]byte(rest)) {
		// No Regular symbol occurs anywhere in the remaining input;
		// skip the per-length probing entirely.
		return 0, 0, false
	}

	limit := cache.maxLen
	if limit > len(rest) {
		limit = len(rest)
	}
	for length := limit; length >= 1; length-- {
		id, ok := symbols.TryID(rest[:length])
		if !ok {
			continue
		}
		kind, err := symbols.Kind(id)
		if err != nil || kind != symtab.Regular {
			continue
		}
		return length, id, true
	}
	return 0, 0, false
}

func hasIdentityOrUnknown(symbols *symtab.Table) bool {
	if _, ok := symbols.TryID(symtab.IdentityText); ok {
		return true
	}
	if _, ok := symbols.TryID(symtab.UnknownText); ok {
		return true
	}
	return false
}
