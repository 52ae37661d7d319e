// Package lookup implements the weighted backtracking search that
// walks a transducer over an input string, honoring flag diacritics and
// epsilon transitions, and returns deduplicated, weight-sorted results.
package lookup

import "fmt"

// LookupErrorKind classifies a lookup failure. No-analysis is not an
// error and has no Kind.
type LookupErrorKind uint8

const (
	// UntokenizableInput indicates the input couldn't be segmented into
	// symbol ids: no known symbol matched at Position and the table has
	// neither an identity nor an unknown symbol to fall back on.
	UntokenizableInput LookupErrorKind = iota
)

// String renders a LookupErrorKind for diagnostics.
func (k LookupErrorKind) String() string {
	switch k {
	case UntokenizableInput:
		return "UntokenizableInput"
	default:
		return fmt.Sprintf("UnknownLookupErrorKind(%d)", uint8(k))
	}
}

// LookupError reports why a lookup call failed outright, as opposed to
// simply finding no analyses (which returns an empty, non-error result).
type LookupError struct {
	Kind     LookupErrorKind
	Position int
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Kind, e.Position)
}

// Is implements error comparison so callers can write
// errors.Is(err, &lookup.LookupError{Kind: lookup.UntokenizableInput}).
func (e *LookupError) Is(target error) bool {
	t, ok := target.(*LookupError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
