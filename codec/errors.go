// Package codec implements the two on-disk transducer formats this
// engine reads: the line-oriented tabular ("ATT") format and the
// compressed binary ("KFST") format.
package codec

import "fmt"

// ParseErrorKind classifies why a load failed.
type ParseErrorKind uint8

const (
	// BadMagic indicates a binary file's magic bytes don't read "KFST".
	BadMagic ParseErrorKind = iota
	// UnsupportedVersion indicates a binary file's version field isn't
	// one this codec understands.
	UnsupportedVersion
	// Truncated indicates fewer bytes were available than the format
	// requires at the point of failure.
	Truncated
	// MalformedRecord indicates a tabular line didn't parse as either a
	// final-state or transition record.
	MalformedRecord
	// UnknownSymbol indicates a binary transition record referenced a
	// symbol id outside the declared symbol table.
	UnknownSymbol
	// MalformedFlagDiacritic indicates a "@...@" envelope looked like a
	// flag diacritic but didn't parse as one.
	MalformedFlagDiacritic
)

// String renders a ParseErrorKind for diagnostics.
func (k ParseErrorKind) String() string {
	switch k {
	case BadMagic:
		return "BadMagic"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case Truncated:
		return "Truncated"
	case MalformedRecord:
		return "MalformedRecord"
	case UnknownSymbol:
		return "UnknownSymbol"
	case MalformedFlagDiacritic:
		return "MalformedFlagDiacritic"
	default:
		return fmt.Sprintf("UnknownParseErrorKind(%d)", uint8(k))
	}
}

// ParseError reports a failure to load a transducer from either format.
// All parse errors are fatal to the load; no partial transducer is ever
// returned alongside one.
type ParseError struct {
	Kind ParseErrorKind

	// Line is the 1-based source line for tabular MalformedRecord
	// errors; zero when not applicable.
	Line int
	// Offset is the byte offset for binary-format errors; zero when not
	// applicable.
	Offset int64
	// Symbol carries the offending symbol text (MalformedFlagDiacritic)
	// or id (UnknownSymbol, rendered into a string) when relevant.
	Symbol string

	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var where string
	switch {
	case e.Line > 0:
		where = fmt.Sprintf(" (line %d)", e.Line)
	case e.Offset > 0:
		where = fmt.Sprintf(" (offset %d)", e.Offset)
	}
	msg := e.Kind.String() + where
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Symbol)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, if any, for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Cause }

// Is reports whether target is a *ParseError with the same Kind,
// allowing callers to write errors.Is(err, &codec.ParseError{Kind: codec.BadMagic}).
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
