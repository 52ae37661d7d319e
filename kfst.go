package kfst

import (
	"io"

	"github.com/coregx/kfst/codec"
	"github.com/coregx/kfst/lookup"
	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// Transducer is a loaded finite-state transducer, ready for lookup.
// The zero value is not usable; construct one with FromTabular,
// FromBinary, or OpenBinaryFile.
type Transducer struct {
	symbols *symtab.Table
	body    *store.Store
	closer  io.Closer // non-nil only for mmap-backed transducers
}

// Result is one accepted analysis or generation: its output string and
// accumulated weight (0 for unweighted transducers).
type Result = lookup.Result

// Options configures a Lookup call. The zero value runs an unbounded,
// non-post-processed search from the transducer's default start state.
type Options = lookup.Options

// FromTabular loads a transducer from the line-oriented tab-separated
// ("ATT") text format. Only the first transducer in a
// blank-line-separated stream is loaded.
func FromTabular(r io.Reader) (*Transducer, error) {
	symbols, body, err := codec.ReadTabular(r)
	if err != nil {
		return nil, err
	}
	return &Transducer{symbols: symbols, body: body}, nil
}

// FromBinary loads a transducer from the compressed KFST binary
// format.
func FromBinary(r io.Reader) (*Transducer, error) {
	symbols, body, err := codec.ReadBinary(r)
	if err != nil {
		return nil, err
	}
	return &Transducer{symbols: symbols, body: body}, nil
}

// OpenBinaryFile memory-maps path and loads it as a KFST binary
// transducer, avoiding a full read of large compiled morphologies into
// the heap before decompression. The caller must call Close when done.
func OpenBinaryFile(path string) (*Transducer, error) {
	symbols, body, closer, err := codec.OpenBinaryFile(path)
	if err != nil {
		return nil, err
	}
	return &Transducer{symbols: symbols, body: body, closer: closer}, nil
}

// Close releases resources backing a memory-mapped Transducer. It is a
// no-op for transducers loaded via FromTabular or FromBinary.
func (t *Transducer) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// ToTabular writes t back out in the ATT tabular format.
func (t *Transducer) ToTabular(w io.Writer) error {
	return codec.WriteTabular(w, t.symbols, t.body)
}

// ToBinary writes t out in the compressed KFST binary format.
func (t *Transducer) ToBinary(w io.Writer) error {
	return codec.WriteBinary(w, t.symbols, t.body)
}

// NumStates returns the number of states in the loaded transducer.
func (t *Transducer) NumStates() uint32 {
	return t.body.NumStates()
}

// Weighted reports whether the loaded transducer carries explicit
// transition/final weights.
func (t *Transducer) Weighted() bool {
	return t.body.Weighted()
}

// Lookup analyzes or generates against input, walking the transducer
// from its start state (or opts.StartState, if set) and returning
// every accepted derivation. An error is returned only if input itself
// can't be tokenized against the transducer's symbol alphabet; finding
// no analyses is reported as a nil, non-error result slice.
func (t *Transducer) Lookup(input string, opts Options) ([]Result, error) {
	return lookup.NewEngine(t.symbols, t.body).Search(input, opts)
}

// Analyze runs Lookup with flag-diacritic markers stripped from the
// output, the common case for surface-to-lexical analysis.
func (t *Transducer) Analyze(input string) ([]Result, error) {
	return t.Lookup(input, Options{PostProcess: true})
}

// Generate runs Lookup over a lexical-form input (typically containing
// tag symbols like "+Pl"), the common case for generation transducers
// run in the reverse direction. Behavior is identical to Analyze; the
// name documents intent at call sites.
func (t *Transducer) Generate(input string) ([]Result, error) {
	return t.Lookup(input, Options{PostProcess: true})
}
