package zstd

import (
	"io"
)

type reader struct {
	data      []byte
	readIndex int64
}

// NewReader creates a new ReadCloser.
// Reads from the returned ReadCloser read and decompress data from r.
// It is the caller's responsibility to call Close on the ReadCloser when done.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	size, known, err := DecompressedSize(src)
	if err != nil {
		return nil, err
	}

	zstdReader := new(reader)
	if known {
		dst := make([]byte, size)
		n, err := Decompress(dst, src)
		if err != nil {
			return nil, err
		}
		zstdReader.data = dst[:n]
		return zstdReader, nil
	}

	// No declared content size; grow the destination until the frame fits.
	guess := 2 * len(src)
	if guess < 1<<20 {
		guess = 1 << 20
	}
	for {
		dst := make([]byte, guess)
		n, err := Decompress(dst, src)
		if err == ErrOutputTooSmall {
			guess *= 2
			continue
		}
		if err != nil {
			return nil, err
		}
		zstdReader.data = dst[:n]
		return zstdReader, nil
	}
}

func (r *reader) Read(p []byte) (n int, err error) {
	if r.readIndex >= int64(len(r.data)) {
		err = io.EOF
		return
	}
	n = copy(p, r.data[r.readIndex:])
	r.readIndex += int64(n)
	return
}

func (r *reader) Close() error {
	return nil
}
