package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ulikunitz/xz/lzma"

	"github.com/coregx/kfst/internal/conv"
	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// magic is the 4-byte tag every KFST binary file begins with.
var magic = [4]byte{'K', 'F', 'S', 'T'}

// supportedVersion is the only binary format version this codec reads
// or writes.
const supportedVersion = 0

// Fixed record sizes (little-endian) inside the LZMA-decompressed
// payload.
const (
	transitionRecNoWeight = 4 + 4 + 2 + 2 // src, dst, in, out
	transitionRecWeight   = transitionRecNoWeight + 8
	finalRecNoWeight      = 4 // state
	finalRecWeight        = finalRecNoWeight + 8
)

// ReadBinary decodes the compact compressed binary ("KFST") format.
func ReadBinary(r io.Reader) (*symtab.Table, *store.Store, error) {
	var hdr [17]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, nil, &ParseError{Kind: Truncated, Offset: 0, Cause: err}
	}
	if !bytes.Equal(hdr[0:4], magic[:]) {
		return nil, nil, &ParseError{Kind: BadMagic, Offset: 0}
	}
	version := binary.LittleEndian.Uint16(hdr[4:6])
	if version != supportedVersion {
		return nil, nil, &ParseError{Kind: UnsupportedVersion, Offset: 4, Cause: fmt.Errorf("version %d", version)}
	}
	numSymbols := int(binary.LittleEndian.Uint16(hdr[6:8]))
	numStates := binary.LittleEndian.Uint32(hdr[8:12])
	numFinal := binary.LittleEndian.Uint32(hdr[12:16])
	weighted := hdr[16] != 0

	symbols := symtab.New()
	offset := int64(len(hdr))
	br := newByteReader(r, offset)
	for i := 0; i < numSymbols; i++ {
		text, err := br.readCString()
		if err != nil {
			return nil, nil, &ParseError{Kind: Truncated, Offset: br.offset, Cause: err}
		}
		if _, err := symbols.Insert(text); err != nil {
			return nil, nil, &ParseError{Kind: MalformedFlagDiacritic, Offset: br.offset, Symbol: text, Cause: err}
		}
	}

	lr, err := lzma.NewReader(br.r)
	if err != nil {
		return nil, nil, &ParseError{Kind: Truncated, Offset: br.offset, Cause: fmt.Errorf("lzma stream: %w", err)}
	}
	payload, err := io.ReadAll(lr)
	if err != nil {
		return nil, nil, &ParseError{Kind: Truncated, Offset: br.offset, Cause: fmt.Errorf("lzma payload: %w", err)}
	}

	builder, err := decodePayload(payload, numFinal, weighted, numSymbols)
	if err != nil {
		return nil, nil, err
	}
	if weighted {
		builder.MarkWeighted()
	}

	st, err := builder.Build(symbols, numStates)
	if err != nil {
		return nil, nil, &ParseError{Kind: Truncated, Cause: err}
	}
	return symbols, st, nil
}

// decodePayload reads transitions then final-state records from the
// decompressed payload. The binary format does not store a transition
// count; this codec takes option (a) (see DESIGN.md): the transition
// count is inferred as whatever fills the payload once the trailing
// finalcount*recordSize final-state bytes are subtracted.
func decodePayload(payload []byte, numFinal uint32, weighted bool, numSymbols int) (*store.Builder, error) {
	finalRecSize := finalRecNoWeight
	transRecSize := transitionRecNoWeight
	if weighted {
		finalRecSize = finalRecWeight
		transRecSize = transitionRecWeight
	}

	finalBytes := int64(numFinal) * int64(finalRecSize)
	transBytes := int64(len(payload)) - finalBytes
	if transBytes < 0 || transBytes%int64(transRecSize) != 0 {
		return nil, &ParseError{
			Kind:  Truncated,
			Cause: fmt.Errorf("payload length %d inconsistent with %d final records and %d-byte transitions", len(payload), numFinal, transRecSize),
		}
	}
	numTransitions := transBytes / int64(transRecSize)

	builder := store.NewBuilder()
	pos := 0
	for i := int64(0); i < numTransitions; i++ {
		rec := payload[pos : pos+transRecSize]
		src := binary.LittleEndian.Uint32(rec[0:4])
		dst := binary.LittleEndian.Uint32(rec[4:8])
		in := binary.LittleEndian.Uint16(rec[8:10])
		out := binary.LittleEndian.Uint16(rec[10:12])
		if int(in) >= numSymbols || int(out) >= numSymbols {
			return nil, &ParseError{Kind: UnknownSymbol, Symbol: fmt.Sprintf("in=%d out=%d", in, out)}
		}
		var weight float64
		if weighted {
			weight = decodeFloat64(rec[12:20])
		}
		builder.AddTransition(store.Transition{
			Src: store.StateID(src), Dst: store.StateID(dst),
			In: symtab.ID(in), Out: symtab.ID(out), Weight: weight,
		})
		pos += transRecSize
	}

	for i := uint32(0); i < numFinal; i++ {
		rec := payload[pos : pos+finalRecSize]
		state := binary.LittleEndian.Uint32(rec[0:4])
		var weight float64
		if weighted {
			weight = decodeFloat64(rec[4:12])
		}
		if err := builder.SetFinal(store.StateID(state), weight); err != nil {
			return nil, &ParseError{Kind: Truncated, Cause: err}
		}
		pos += finalRecSize
	}

	return builder, nil
}

// WriteBinary encodes symbols/body into the KFST binary format.
func WriteBinary(w io.Writer, symbols *symtab.Table, body *store.Store) error {
	texts := symbols.Texts()
	numSymbols := conv.IntToUint16(len(texts))
	numStates := body.NumStates()
	finals := body.Finals()
	numFinal := conv.IntToUint32(len(finals))
	weighted := body.Weighted()

	var hdr [17]byte
	copy(hdr[0:4], magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], supportedVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], numSymbols)
	binary.LittleEndian.PutUint32(hdr[8:12], numStates)
	binary.LittleEndian.PutUint32(hdr[12:16], numFinal)
	if weighted {
		hdr[16] = 1
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, text := range texts {
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}

	payload := encodePayload(body, weighted)

	lw, err := lzma.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := lw.Write(payload); err != nil {
		return err
	}
	return lw.Close()
}

func encodePayload(body *store.Store, weighted bool) []byte {
	var buf bytes.Buffer
	for state := store.StateID(0); state < store.StateID(body.NumStates()); state++ {
		for _, tr := range body.TransitionsFrom(state) {
			var rec [20]byte
			binary.LittleEndian.PutUint32(rec[0:4], uint32(tr.Src))
			binary.LittleEndian.PutUint32(rec[4:8], uint32(tr.Dst))
			binary.LittleEndian.PutUint16(rec[8:10], conv.IntToUint16(int(tr.In)))
			binary.LittleEndian.PutUint16(rec[10:12], conv.IntToUint16(int(tr.Out)))
			n := transitionRecNoWeight
			if weighted {
				encodeFloat64(rec[12:20], tr.Weight)
				n = transitionRecWeight
			}
			buf.Write(rec[:n])
		}
	}
	for _, fin := range body.Finals() {
		var rec [12]byte
		binary.LittleEndian.PutUint32(rec[0:4], uint32(fin.State))
		n := finalRecNoWeight
		if weighted {
			encodeFloat64(rec[4:12], fin.Weight)
			n = finalRecWeight
		}
		buf.Write(rec[:n])
	}
	return buf.Bytes()
}

func decodeFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func encodeFloat64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
