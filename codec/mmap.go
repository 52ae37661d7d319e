package codec

import (
	"bytes"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/coregx/kfst/store"
	"github.com/coregx/kfst/symtab"
)

// mmapCloser releases an mmap.MMap and the file descriptor it was
// mapped from.
type mmapCloser struct {
	m mmap.MMap
	f *os.File
}

// Close unmaps the file and closes its descriptor.
func (c *mmapCloser) Close() error {
	if err := c.m.Unmap(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}

// OpenBinaryFile memory-maps path and decodes it as a KFST binary
// transducer, avoiding a full heap copy of large compiled morphologies
// before decompression. Decoding goes through ReadBinary, which copies
// the symbol texts and the decompressed transition/final data into
// ordinary heap memory, so the returned table and store do not
// reference the mapping. The returned closer unmaps the file and
// closes its descriptor.
func OpenBinaryFile(path string) (*symtab.Table, *store.Store, *mmapCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, err
	}

	symbols, body, err := ReadBinary(bytes.NewReader(m))
	if err != nil {
		_ = m.Unmap()
		_ = f.Close()
		return nil, nil, nil, err
	}
	return symbols, body, &mmapCloser{m: m, f: f}, nil
}
