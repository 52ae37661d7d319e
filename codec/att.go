package codec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// attScanBufLimit bounds a single tabular line's length. HFST analysis
// lines for deeply ambiguous entries can exceed bufio.Scanner's default
// 64KB token limit; pre-sizing avoids a surprising ErrTooLong mid-file.
const attScanBufLimit = 16 * 1024 * 1024

// ReadTabular parses the line-oriented tab-separated ("ATT") format.
// Only the first transducer in a blank-line-separated file is loaded;
// subsequent transducers are scanned for syntactic validity and
// discarded.
func ReadTabular(r io.Reader) (*symtab.Table, *store.Store, error) {
	symbols := symtab.New()
	builder := store.NewBuilder()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), attScanBufLimit)

	lineNo := 0
	loadingFirst := true

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			loadingFirst = false
			continue
		}

		fields := strings.Split(line, "\t")
		if !loadingFirst {
			if err := validateTrailingRecord(fields); err != nil {
				return nil, nil, &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
			}
			continue
		}

		if err := loadRecord(symbols, builder, fields, lineNo); err != nil {
			return nil, nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}

	st, err := builder.Build(symbols, 0)
	if err != nil {
		return nil, nil, &ParseError{Kind: MalformedRecord, Cause: err}
	}
	return symbols, st, nil
}

func loadRecord(symbols *symtab.Table, builder *store.Builder, fields []string, lineNo int) error {
	switch len(fields) {
	case 1:
		state, err := parseStateField(fields[0])
		if err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		if err := builder.SetFinal(state, 0); err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		return nil

	case 2:
		state, err := parseStateField(fields[0])
		if err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		weight, err := parseWeightField(fields[1])
		if err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		if err := builder.SetFinal(state, weight); err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		builder.MarkWeighted()
		return nil

	case 4, 5:
		src, err := parseStateField(fields[0])
		if err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		dst, err := parseStateField(fields[1])
		if err != nil {
			return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
		}
		inID, err := symbols.Insert(fields[2])
		if err != nil {
			return &ParseError{Kind: MalformedFlagDiacritic, Line: lineNo, Symbol: fields[2], Cause: err}
		}
		outID, err := symbols.Insert(fields[3])
		if err != nil {
			return &ParseError{Kind: MalformedFlagDiacritic, Line: lineNo, Symbol: fields[3], Cause: err}
		}

		tr := store.Transition{Src: src, Dst: dst, In: inID, Out: outID}
		if len(fields) == 5 {
			weight, err := parseWeightField(fields[4])
			if err != nil {
				return &ParseError{Kind: MalformedRecord, Line: lineNo, Cause: err}
			}
			tr.Weight = weight
			builder.MarkWeighted()
		}
		builder.AddTransition(tr)
		return nil

	default:
		return &ParseError{
			Kind:  MalformedRecord,
			Line:  lineNo,
			Cause: fmt.Errorf("expected 1, 2, 4, or 5 tab-separated fields, got %d", len(fields)),
		}
	}
}

// validateTrailingRecord checks only that a record in a discarded
// (non-first) transducer has a plausible shape; it never touches the
// symbol table or builder being loaded.
func validateTrailingRecord(fields []string) error {
	switch len(fields) {
	case 1:
		_, err := parseStateField(fields[0])
		return err
	case 2:
		if _, err := parseStateField(fields[0]); err != nil {
			return err
		}
		_, err := parseWeightField(fields[1])
		return err
	case 4, 5:
		if _, err := parseStateField(fields[0]); err != nil {
			return err
		}
		if _, err := parseStateField(fields[1]); err != nil {
			return err
		}
		if len(fields) == 5 {
			_, err := parseWeightField(fields[4])
			return err
		}
		return nil
	default:
		return fmt.Errorf("expected 1, 2, 4, or 5 tab-separated fields, got %d", len(fields))
	}
}

func parseStateField(s string) (store.StateID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid state id %q: %w", s, err)
	}
	return store.StateID(n), nil
}

func parseWeightField(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	return w, nil
}

// WriteTabular encodes symbols/body back into the tabular format. This
// is supplemental to the required load-only entry point — an
// ATT-to-binary-to-ATT round trip needs an encoder, and the store's
// iteration order makes one straightforward.
func WriteTabular(w io.Writer, symbols *symtab.Table, body *store.Store) error {
	bw := bufio.NewWriter(w)
	weighted := body.Weighted()

	for state := store.StateID(0); state < store.StateID(body.NumStates()); state++ {
		for _, tr := range body.TransitionsFrom(state) {
			inText, err := symbols.Text(tr.In)
			if err != nil {
				return err
			}
			outText, err := symbols.Text(tr.Out)
			if err != nil {
				return err
			}
			if weighted {
				_, err = fmt.Fprintf(bw, "%d\t%d\t%s\t%s\t%s\n", tr.Src, tr.Dst, inText, outText, formatWeight(tr.Weight))
			} else {
				_, err = fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", tr.Src, tr.Dst, inText, outText)
			}
			if err != nil {
				return err
			}
		}
	}

	for _, fin := range body.Finals() {
		var err error
		if weighted {
			_, err = fmt.Fprintf(bw, "%d\t%s\n", fin.State, formatWeight(fin.Weight))
		} else {
			_, err = fmt.Fprintf(bw, "%d\n", fin.State)
		}
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
