// Package symtab implements the bidirectional mapping between textual
// transducer symbols and the compact integer ids the rest of the engine
// operates on, along with classification of each symbol's special meaning
// (epsilon, flag diacritic, identity/unknown).
package symtab

import "fmt"

// ID is a compact integer identifying a symbol. Id 0 always denotes
// epsilon.
type ID uint32

// Epsilon is the distinguished symbol id that consumes no input and
// produces no output.
const Epsilon ID = 0

// EpsilonText is the canonical textual form recorded for the epsilon
// symbol; "@_EPSILON_SYMBOL_@" is accepted on input and normalized to
// this form.
const EpsilonText = "@0@"

// legacyEpsilonText is an alternate spelling for epsilon some ATT
// producers emit; both map to ID 0.
const legacyEpsilonText = "@_EPSILON_SYMBOL_@"

// IdentityText and UnknownText are the reserved textual forms for the
// identity and unknown symbols.
const (
	IdentityText = "@_IDENTITY_SYMBOL_@"
	UnknownText  = "@_UNKNOWN_SYMBOL_@"
)

const (
	identityText = IdentityText
	unknownText  = UnknownText
)

// Kind classifies a symbol's role in the transducer.
type Kind uint8

const (
	// Regular is an ordinary token: a grapheme or multi-character symbol
	// like "+Noun", compared as an atomic unit.
	Regular Kind = iota
	// EpsilonKind marks the epsilon symbol, which consumes no input and
	// produces no output.
	EpsilonKind
	// FlagDiacritic carries no string content; it mutates flag state.
	FlagDiacritic
	// Identity matches any input character not in the symbol table and
	// echoes it verbatim to the output.
	Identity
	// Unknown is identical to Identity for matching and output purposes.
	Unknown
)

// String renders a Kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case Regular:
		return "Regular"
	case EpsilonKind:
		return "Epsilon"
	case FlagDiacritic:
		return "FlagDiacritic"
	case Identity:
		return "Identity"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("UnknownKind(%d)", uint8(k))
	}
}

// Flag describes the operation encoded by a flag-diacritic symbol's
// textual form "@<OP><.FEATURE>[.VALUE]@".
type Flag struct {
	Op       byte   // one of 'P', 'N', 'R', 'D', 'C', 'U'
	Feature  string
	Value    string
	HasValue bool
}
