package codec

import (
	"bufio"
	"io"
)

// byteReader wraps an io.Reader with a running byte offset (for error
// reporting) and a NUL-terminated string reader for the binary format's
// symbol section. The underlying bufio.Reader is handed to the LZMA
// decoder afterward, so symbol-section reads and payload reads share
// one buffered stream with no bytes lost to double-buffering.
type byteReader struct {
	r      *bufio.Reader
	offset int64
}

func newByteReader(r io.Reader, startOffset int64) *byteReader {
	return &byteReader{r: bufio.NewReader(r), offset: startOffset}
}

// readCString reads bytes up to and including the next NUL byte and
// returns the string without the terminator.
func (b *byteReader) readCString() (string, error) {
	s, err := b.r.ReadString(0)
	if err != nil {
		return "", err
	}
	b.offset += int64(len(s))
	return s[:len(s)-1], nil
}
