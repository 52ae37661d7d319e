package symtab

import (
	"fmt"
	"strings"
)

// validOps is the set of recognized flag-diacritic operators.
const validOps = "PNRDCU"

// classify pattern-matches text against the "@...@" envelopes the format
// reserves: epsilon, identity, unknown, and flag diacritics. Any other
// text is a Regular symbol. An envelope that looks like a flag diacritic
// but does not parse cleanly is reported as a malformed-flag error rather
// than silently treated as Regular, since "@...@" is a reserved envelope.
func classify(text string) (Kind, Flag, error) {
	switch text {
	case EpsilonText, legacyEpsilonText:
		return EpsilonKind, Flag{}, nil
	case identityText:
		return Identity, Flag{}, nil
	case unknownText:
		return Unknown, Flag{}, nil
	}

	if len(text) >= 2 && text[0] == '@' && text[len(text)-1] == '@' {
		flag, err := parseFlag(text)
		if err != nil {
			return Regular, Flag{}, err
		}
		return FlagDiacritic, flag, nil
	}

	return Regular, Flag{}, nil
}

// parseFlag parses the body of a "@<OP>.<FEATURE>[.<VALUE>]@" envelope.
func parseFlag(text string) (Flag, error) {
	inner := text[1 : len(text)-1]
	parts := strings.Split(inner, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return Flag{}, fmt.Errorf("malformed flag diacritic %q: expected OP.FEATURE[.VALUE]", text)
	}

	op := parts[0]
	if len(op) != 1 || strings.IndexByte(validOps, op[0]) < 0 {
		return Flag{}, fmt.Errorf("malformed flag diacritic %q: unknown operator %q", text, op)
	}

	feature := parts[1]
	if feature == "" {
		return Flag{}, fmt.Errorf("malformed flag diacritic %q: empty feature name", text)
	}

	flag := Flag{Op: op[0], Feature: feature}
	if len(parts) == 3 {
		flag.Value = parts[2]
		flag.HasValue = true
	}
	return flag, nil
}
