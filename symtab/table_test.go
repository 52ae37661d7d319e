package symtab

import (
	"errors"
	"testing"
)

func TestNewHasEpsilonAtZero(t *testing.T) {
	tbl := New()
	if tbl.Len() != 1 {
		t.Fatalf("fresh table should have exactly epsilon, got len %d", tbl.Len())
	}
	id, err := tbl.ID(EpsilonText)
	if err != nil {
		t.Fatalf("ID(EpsilonText): %v", err)
	}
	if id != Epsilon {
		t.Errorf("epsilon id = %d, want %d", id, Epsilon)
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	tbl := New()
	id1, err := tbl.Insert("foo")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id2, err := tbl.Insert("foo")
	if err != nil {
		t.Fatalf("Insert (repeat): %v", err)
	}
	if id1 != id2 {
		t.Errorf("re-inserting the same text should return the same id: %d != %d", id1, id2)
	}
	if tbl.Len() != 2 {
		t.Errorf("len should be 2 (epsilon + foo), got %d", tbl.Len())
	}
}

func TestInsertAliasesLegacyEpsilon(t *testing.T) {
	tbl := New()
	id, err := tbl.Insert(legacyEpsilonText)
	if err != nil {
		t.Fatalf("Insert(legacyEpsilonText): %v", err)
	}
	if id != Epsilon {
		t.Errorf("legacy epsilon spelling should alias id 0, got %d", id)
	}
	if tbl.Len() != 1 {
		t.Errorf("legacy epsilon insert should not grow the table, len=%d", tbl.Len())
	}
}

func TestInsertRejectsMalformedFlag(t *testing.T) {
	tbl := New()
	if _, err := tbl.Insert("@X.Foo@"); err == nil {
		t.Error("expected an error for an unknown flag operator")
	}
}

func TestIDUnknownSymbol(t *testing.T) {
	tbl := New()
	_, err := tbl.ID("never-inserted")
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("ID of an absent symbol should be ErrUnknownSymbol, got %v", err)
	}
}

func TestTryID(t *testing.T) {
	tbl := New()
	id, _ := tbl.Insert("cat")
	got, ok := tbl.TryID("cat")
	if !ok || got != id {
		t.Errorf("TryID(cat) = (%d, %v), want (%d, true)", got, ok, id)
	}
	if _, ok := tbl.TryID("dog"); ok {
		t.Error("TryID of an absent symbol should report ok=false")
	}
}

func TestTextAndKindRoundTrip(t *testing.T) {
	tbl := New()
	id, err := tbl.Insert("+Noun")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	text, err := tbl.Text(id)
	if err != nil || text != "+Noun" {
		t.Errorf("Text(id) = (%q, %v), want (\"+Noun\", nil)", text, err)
	}
	kind, err := tbl.Kind(id)
	if err != nil || kind != Regular {
		t.Errorf("Kind(id) = (%v, %v), want (Regular, nil)", kind, err)
	}
}

func TestTextAndKindInvalidID(t *testing.T) {
	tbl := New()
	if _, err := tbl.Text(ID(999)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Text of an out-of-range id should be ErrInvalidID, got %v", err)
	}
	if _, err := tbl.Kind(ID(999)); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Kind of an out-of-range id should be ErrInvalidID, got %v", err)
	}
}

func TestFlagOf(t *testing.T) {
	tbl := New()
	id, err := tbl.Insert("@P.Case.Gen@")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	flag, ok := tbl.FlagOf(id)
	if !ok {
		t.Fatal("FlagOf should report ok=true for a flag-diacritic symbol")
	}
	want := Flag{Op: 'P', Feature: "Case", Value: "Gen", HasValue: true}
	if flag != want {
		t.Errorf("FlagOf = %+v, want %+v", flag, want)
	}

	regID, _ := tbl.Insert("bar")
	if _, ok := tbl.FlagOf(regID); ok {
		t.Error("FlagOf should report ok=false for a Regular symbol")
	}
}

func TestTexts(t *testing.T) {
	tbl := New()
	tbl.Insert("a")
	tbl.Insert("b")
	texts := tbl.Texts()
	want := []string{EpsilonText, "a", "b"}
	if len(texts) != len(want) {
		t.Fatalf("Texts() = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("Texts()[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestTokenizerCacheBuildsOnce(t *testing.T) {
	tbl := New()
	calls := 0
	build := func() any {
		calls++
		return 42
	}
	v1 := tbl.TokenizerCache(build)
	v2 := tbl.TokenizerCache(build)
	if calls != 1 {
		t.Errorf("build should run exactly once, ran %d times", calls)
	}
	if v1 != 42 || v2 != 42 {
		t.Errorf("both calls should return the cached value, got %v and %v", v1, v2)
	}
}
