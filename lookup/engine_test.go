package lookup

import (
	"errors"
	"sync"
	"testing"

	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// buildEngine is a small helper for constructing a Store + Engine from
// a list of (src, dst, inText, outText, weight) transitions and a list
// of (state, weight) final entries, mirroring the concrete scenarios
// against a hand-built transducer.
func buildEngine(t testing.TB, trans [][5]any, finals [][2]any) (*Engine, *symtab.Table) {
	t.Helper()
	symbols := symtab.New()
	b := store.NewBuilder()

	insert := func(text string) symtab.ID {
		id, err := symbols.Insert(text)
		if err != nil {
			t.Fatalf("Insert(%q): %v", text, err)
		}
		return id
	}

	for _, tr := range trans {
		src := store.StateID(tr[0].(int))
		dst := store.StateID(tr[1].(int))
		in := insert(tr[2].(string))
		out := insert(tr[3].(string))
		weight := tr[4].(float64)
		b.AddTransition(store.Transition{Src: src, Dst: dst, In: in, Out: out, Weight: weight})
	}
	for _, f := range finals {
		state := store.StateID(f[0].(int))
		weight := f[1].(float64)
		if err := b.SetFinal(state, weight); err != nil {
			t.Fatalf("SetFinal(%d): %v", state, err)
		}
	}

	st, err := b.Build(symbols, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return NewEngine(symbols, st), symbols
}

func assertResults(t *testing.T, got []Result, want []Result) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d results %+v, want %d %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].Output != want[i].Output || got[i].Weight != want[i].Weight {
			t.Errorf("result[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// Scenario 1: two-state acceptor 0 -a:a-> 1, final 1 w=0; "a" -> [("a",0)].
func TestScenarioSimpleAccept(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{{0, 1, "a", "a", 0.0}},
		[][2]any{{1, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "a", Weight: 0}})
}

// Scenario 2: same transducer, "b" doesn't tokenize (no identity/unknown
// present) -> UntokenizableInput, not a result.
func TestScenarioSimpleRejectUntokenizable(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{{0, 1, "a", "a", 0.0}},
		[][2]any{{1, 0.0}},
	)
	_, err := e.Search("b", Options{PostProcess: true})
	if err == nil {
		t.Fatal("expected an UntokenizableInput error for an input symbol absent from the table")
	}
	var lerr *LookupError
	if !errors.As(err, &lerr) || lerr.Kind != UntokenizableInput {
		t.Errorf("expected UntokenizableInput, got %v", err)
	}
}

// Scenario 3: @P.CASE.NOM@ then @R.CASE.NOM@:+N, final. "" -> [("+N",0)].
func TestScenarioFlagRequireSatisfied(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "@P.CASE.NOM@", "@P.CASE.NOM@", 0.0},
			{1, 2, "@R.CASE.NOM@", "+N", 0.0},
		},
		[][2]any{{2, 0.0}},
	)
	got, err := e.Search("", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "+N", Weight: 0}})
}

// Scenario 4: @P.CASE.NOM@ then @R.CASE.GEN@:+N -> require fails, no results.
func TestScenarioFlagRequireFails(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "@P.CASE.NOM@", "@P.CASE.NOM@", 0.0},
			{1, 2, "@R.CASE.GEN@", "+N", 0.0},
		},
		[][2]any{{2, 0.0}},
	)
	got, err := e.Search("", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results when a @R@ precondition fails, got %+v", got)
	}
}

// Scenario 5: weighted branch, "a" -> [("x",1.0),("y",2.0)] sorted ascending.
func TestScenarioWeightedSort(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "a", "x", 1.0},
			{0, 2, "a", "y", 2.0},
		},
		[][2]any{{1, 0.0}, {2, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "x", Weight: 1.0}, {Output: "y", Weight: 2.0}})
}

// Scenario 6: epsilon transition 0 -@0@:h-> 1 -a:i-> 2, final 2. "a" -> [("hi",0)].
func TestScenarioEpsilonOutput(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "@0@", "h", 0.0},
			{1, 2, "a", "i", 0.0},
		},
		[][2]any{{2, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "hi", Weight: 0}})
}

// Property 5: lookup(t, "") returns [] unless state 0 is final.
func TestEmptyInputNotFinalReturnsEmpty(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{{0, 1, "a", "a", 0.0}},
		[][2]any{{1, 0.0}},
	)
	got, err := e.Search("", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results for empty input against a non-final start state, got %+v", got)
	}
}

func TestEmptyInputFinalStartState(t *testing.T) {
	e, _ := buildEngine(t, nil, [][2]any{{0, 1.5}})
	got, err := e.Search("", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "", Weight: 1.5}})
}

// Property 4: no duplicate (output, weight) pairs even when multiple
// paths produce the same result.
func TestDeduplicatesIdenticalOutputsAndWeights(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "a", "x", 0.0},
			{0, 2, "a", "x", 0.0},
		},
		[][2]any{{1, 0.0}, {2, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "x", Weight: 0}})
}

// Property 3: PostProcess strips flag markers, and the unstripped
// result set has identical cardinality.
func TestPostProcessStripsFlagMarkersSameCardinality(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "@P.CASE.NOM@", "@P.CASE.NOM@", 0.0},
			{1, 2, "a", "a", 0.0},
		},
		[][2]any{{2, 0.0}},
	)
	stripped, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	raw, err := e.Search("a", Options{PostProcess: false})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(stripped) != len(raw) {
		t.Fatalf("post-processed and raw result counts differ: %d vs %d", len(stripped), len(raw))
	}
	assertResults(t, stripped, []Result{{Output: "a", Weight: 0}})
	assertResults(t, raw, []Result{{Output: "@P.CASE.NOM@a", Weight: 0}})
}

// Epsilon-cycle protection: a pure epsilon loop must not hang the
// search, and must still admit the accepting path once it exits.
func TestEpsilonCyclePruned(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 0, "@0@", "@0@", 0.0}, // pure epsilon self-loop
			{0, 1, "a", "a", 0.0},
		},
		[][2]any{{1, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "a", Weight: 0}})
}

// Property 6: concurrent lookups against the same Engine yield the
// same results as sequential calls.
func TestConcurrentLookupsAreConsistent(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "a", "x", 1.0},
			{0, 2, "a", "y", 2.0},
		},
		[][2]any{{1, 0.0}, {2, 0.0}},
	)
	want := []Result{{Output: "x", Weight: 1.0}, {Output: "y", Weight: 2.0}}

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([][]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Search("a", Options{PostProcess: true})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: Search: %v", i, errs[i])
		}
		assertResults(t, results[i], want)
	}
}

// MaxResults truncates after sorting, never before, so it can't bias
// which results survive.
func TestMaxResultsTruncatesAfterSort(t *testing.T) {
	e, _ := buildEngine(t,
		[][5]any{
			{0, 1, "a", "y", 2.0},
			{0, 2, "a", "x", 1.0},
		},
		[][2]any{{1, 0.0}, {2, 0.0}},
	)
	got, err := e.Search("a", Options{PostProcess: true, MaxResults: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	assertResults(t, got, []Result{{Output: "x", Weight: 1.0}})
}
