package lookup

import (
	"sort"
	"strings"

	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// Options configures a Search call.
type Options struct {
	// StartState overrides the transducer's default start state (state
	// 0). Zero value means "use the default".
	StartState store.StateID
	// PostProcess strips flag-diacritic markers from the output before
	// returning it. Callers that want the raw surface form (with
	// @P.Feat.Val@ markers intact) set this false.
	PostProcess bool
	// MaxResults caps the number of results returned, 0 meaning
	// unbounded. Search still explores exhaustively and sorts before
	// truncating, so the cap never biases which results are kept.
	MaxResults int
}

// Result is one accepted derivation: its output string and accumulated
// weight (0 for unweighted transducers).
type Result struct {
	Output string
	Weight float64
}

// Engine runs Search against one immutable (symbols, body) pair. An
// Engine is safe for concurrent use: all mutable state for a single
// Search call lives on that call's goroutine stack.
type Engine struct {
	symbols *symtab.Table
	body    *store.Store
}

// NewEngine builds an Engine over the given symbol table and
// transducer body.
func NewEngine(symbols *symtab.Table, body *store.Store) *Engine {
	return &Engine{symbols: symbols, body: body}
}

// visitKey identifies a search configuration for epsilon-cycle
// detection: the transducer state, how many tokens have been consumed,
// and a digest of the current flag state. The key space is unbounded
// (flag fingerprints and token counts both grow with input), so this
// uses a plain Go map rather than internal/sparse.SparseSet, which
// assumes a bounded, dense integer universe known up front (as
// store.Builder's final-state tracking has, but this does not).
type visitKey struct {
	state store.StateID
	token int
	flags uint64
}

// searchState carries the per-call mutable context through the
// recursive descent: the tokenized input, the path-local cycle guard,
// and the accumulating result set.
type searchState struct {
	tokens  []Token
	visited map[visitKey]bool
	results []Result
}

// Search walks body from opts.StartState (or the default start state)
// consuming input, honoring flag diacritics and epsilon transitions, and
// collects every derivation that ends on a final state with the input
// fully consumed. Results are deduplicated by (output, weight),
// returned in ascending-weight order with ties broken by first
// discovery. Search returns an error only when input
// itself is untokenizable (propagated from Tokenize); finding zero
// analyses is not an error.
func (e *Engine) Search(input string, opts Options) ([]Result, error) {
	tokens, err := Tokenize(e.symbols, input)
	if err != nil {
		return nil, err
	}

	start := opts.StartState
	ss := &searchState{
		tokens:  tokens,
		visited: make(map[visitKey]bool),
	}

	var out strings.Builder
	e.walk(ss, start, 0, flagState{}, &out, 0)

	dedup(ss)
	if opts.PostProcess {
		stripFlagMarkers(ss.results, e.symbols)
		dedup(ss) // stripping can make two previously-distinct outputs collide
	}
	sortResults(ss.results)
	if opts.MaxResults > 0 && len(ss.results) > opts.MaxResults {
		ss.results = ss.results[:opts.MaxResults]
	}
	return ss.results, nil
}

// walk is the recursive backtracking step. pos indexes into
// ss.tokens; out accumulates the output surface form along the current
// path; weight accumulates the path's total weight.
func (e *Engine) walk(ss *searchState, state store.StateID, pos int, flags flagState, out *strings.Builder, weight float64) {
	key := visitKey{state: state, token: pos, flags: flags.fingerprint()}
	if ss.visited[key] {
		return
	}
	ss.visited[key] = true
	defer delete(ss.visited, key)

	if pos == len(ss.tokens) {
		if w, ok := e.body.FinalWeight(state); ok {
			ss.results = append(ss.results, Result{Output: out.String(), Weight: weight + w})
		}
	}

	for _, tr := range e.body.TransitionsFrom(state) {
		kind, err := e.symbols.Kind(tr.In)
		if err != nil {
			continue
		}

		switch kind {
		case symtab.EpsilonKind:
			mark := out.Len()
			e.appendOutput(out, tr.Out)
			e.walk(ss, tr.Dst, pos, flags, out, weight+tr.Weight)
			out.Truncate(mark)

		case symtab.FlagDiacritic:
			flag, ok := e.symbols.FlagOf(tr.In)
			if !ok {
				continue
			}
			next, fires := flags.clone().apply(flag)
			if !fires {
				continue
			}
			mark := out.Len()
			e.appendOutput(out, tr.Out)
			e.walk(ss, tr.Dst, pos, next, out, weight+tr.Weight)
			out.Truncate(mark)

		case symtab.Regular:
			if pos >= len(ss.tokens) {
				continue
			}
			tok := ss.tokens[pos]
			if tok.Literal || tok.ID != tr.In {
				continue
			}
			mark := out.Len()
			e.appendOutput(out, tr.Out)
			e.walk(ss, tr.Dst, pos+1, flags, out, weight+tr.Weight)
			out.Truncate(mark)

		case symtab.Identity, symtab.Unknown:
			if pos >= len(ss.tokens) {
				continue
			}
			tok := ss.tokens[pos]
			if !tok.Literal {
				continue
			}
			mark := out.Len()
			e.appendLiteralOutput(out, tr.Out, tok)
			e.walk(ss, tr.Dst, pos+1, flags, out, weight+tr.Weight)
			out.Truncate(mark)
		}
	}
}

// appendOutput writes tr's output symbol to out. Epsilon contributes
// nothing; flag-diacritic markers are written verbatim and stripped
// later by stripFlagMarkers if the caller asked for PostProcess
// (stripping is a separate, optional step from the search itself).
func (e *Engine) appendOutput(out *strings.Builder, outSym symtab.ID) {
	kind, err := e.symbols.Kind(outSym)
	if err != nil || kind == symtab.EpsilonKind {
		return
	}
	text, err := e.symbols.Text(outSym)
	if err != nil {
		return
	}
	out.WriteString(text)
}

// appendLiteralOutput writes the output side of an identity/unknown
// transition: if the output symbol is itself identity/unknown, the
// matched input token is echoed verbatim; otherwise the output
// symbol's own text is used (a transducer can map an unrecognized
// input character to a concrete replacement).
func (e *Engine) appendLiteralOutput(out *strings.Builder, outSym symtab.ID, tok Token) {
	kind, err := e.symbols.Kind(outSym)
	if err != nil {
		return
	}
	switch kind {
	case symtab.Identity, symtab.Unknown:
		out.WriteString(tok.Text)
	case symtab.EpsilonKind:
	default:
		text, err := e.symbols.Text(outSym)
		if err == nil {
			out.WriteString(text)
		}
	}
}

// stripFlagMarkers removes every flag-diacritic symbol's textual
// marker from each result's Output, in place. Flag
// diacritics are identified once from the symbol table rather than by
// re-parsing each Output string, since the table already classified
// every symbol at load time.
func stripFlagMarkers(results []Result, symbols *symtab.Table) {
	var markers []string
	for _, text := range symbols.Texts() {
		id, ok := symbols.TryID(text)
		if !ok {
			continue
		}
		if kind, err := symbols.Kind(id); err == nil && kind == symtab.FlagDiacritic {
			markers = append(markers, text)
		}
	}
	if len(markers) == 0 {
		return
	}
	for i, r := range results {
		s := r.Output
		for _, m := range markers {
			if strings.Contains(s, m) {
				s = strings.ReplaceAll(s, m, "")
			}
		}
		results[i].Output = s
	}
}

// dedup removes duplicate (Output, Weight) results in place, keeping
// the first occurrence.
func dedup(ss *searchState) {
	type key struct {
		output string
		weight float64
	}
	seen := make(map[key]bool, len(ss.results))
	out := ss.results[:0]
	for _, r := range ss.results {
		k := key{output: r.Output, weight: r.Weight}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	ss.results = out
}

// sortResults orders by ascending weight, breaking ties by the order
// results were discovered (sort.SliceStable preserves that order for
// equal weights).
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Weight < results[j].Weight
	})
}
