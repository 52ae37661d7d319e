package codec

import (
	"bytes"
	"strings"
	"testing"
)

// FuzzTabularBinaryRoundTrip checks that any ATT source that parses
// also survives an ATT -> binary -> ATT round trip with the same number
// of states and symbols and the same weighted-ness. Malformed seeds are expected
// to fail ReadTabular and are skipped, not reported as fuzz failures.
func FuzzTabularBinaryRoundTrip(f *testing.F) {
	f.Add("0\t1\tc\tc\n1\n")
	f.Add("0\t1\ta\ta\t1.5\n1\t0.25\n")
	f.Add("0\t1\t@P.CASE.NOM@\t@P.CASE.NOM@\n1\t2\t@R.CASE.NOM@\t+N\n2\n")
	f.Add("0\t1\t@0@\th\n1\t2\ta\ti\n2\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, att string) {
		symbols, body, err := ReadTabular(strings.NewReader(att))
		if err != nil {
			t.Skip("not a valid ATT source")
		}

		var binBuf bytes.Buffer
		if err := WriteBinary(&binBuf, symbols, body); err != nil {
			t.Fatalf("WriteBinary: %v", err)
		}
		symbols2, body2, err := ReadBinary(&binBuf)
		if err != nil {
			t.Fatalf("ReadBinary after WriteBinary: %v", err)
		}

		var attBuf strings.Builder
		if err := WriteTabular(&attBuf, symbols2, body2); err != nil {
			t.Fatalf("WriteTabular: %v", err)
		}
		symbols3, body3, err := ReadTabular(strings.NewReader(attBuf.String()))
		if err != nil {
			t.Fatalf("ReadTabular after round trip: %v", err)
		}

		if symbols3.Len() != symbols.Len() {
			t.Errorf("round-tripped symbol count = %d, want %d", symbols3.Len(), symbols.Len())
		}
		if body3.NumStates() != body.NumStates() {
			t.Errorf("round-tripped state count = %d, want %d", body3.NumStates(), body.NumStates())
		}
		if body3.Weighted() != body.Weighted() {
			t.Errorf("round-tripped Weighted() = %v, want %v", body3.Weighted(), body.Weighted())
		}
	})
}
