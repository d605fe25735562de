/*
Package zstd implements reading of single-frame Zstandard compressed data,
as defined by the Zstandard compression format (RFC 8878).

The decoder operates on complete in-memory buffers. For example, to
decompress a frame whose content size is known:

	size, _, err := zstd.DecompressedSize(compressed)
	dst := make([]byte, size)
	n, err := zstd.Decompress(dst, compressed)

An io.ReadCloser wrapper is available through NewReader.
*/
package zstd

import "errors"

var (
	// ErrFrameMagic is returned when the input does not begin with a
	// Zstandard frame magic number.
	ErrFrameMagic = errors.New("zstd: not a zstd frame")
	// ErrReservedBlock is returned when a block carries the reserved
	// block type.
	ErrReservedBlock = errors.New("zstd: reserved block type")
	// ErrCorruption is returned when the compressed data violates an
	// invariant of the format.
	ErrCorruption = errors.New("zstd: corruption detected while decompressing")
	// ErrInputTooSmall is returned when the input ends before the frame does.
	ErrInputTooSmall = errors.New("zstd: input buffer too small")
	// ErrOutputTooSmall is returned when the destination cannot hold the
	// decompressed content.
	ErrOutputTooSmall = errors.New("zstd: output buffer too small")
	// ErrDictionary is returned when reading an invalid dictionary.
	ErrDictionary = errors.New("zstd: invalid dictionary")
	// ErrDictionaryMismatch is returned when the frame requires a
	// dictionary with an id different from the one provided.
	ErrDictionaryMismatch = errors.New("zstd: wrong dictionary")
)

// Decompress decompresses the single Zstandard frame in src into dst and
// returns the number of bytes written. dst must be large enough to hold the
// frame's entire content; it is not grown.
func Decompress(dst, src []byte) (int, error) {
	return DecompressDict(dst, src, nil)
}

// DecompressDict is Decompress with a preloaded dictionary. A nil dict is
// equivalent to no dictionary. The dictionary is only read, never modified,
// so it may be shared between concurrent calls.
func DecompressDict(dst, src []byte, dict *Dictionary) (int, error) {
	in := istream{b: src}
	out := ostream{b: dst}
	if err := decodeFrame(&out, &in, dict); err != nil {
		return 0, err
	}
	return out.pos, nil
}

// DecompressedSize parses only the frame header of src and reports the
// frame's declared content size. ok is false when the frame does not declare
// one, which a caller should treat as "unknown" rather than zero.
func DecompressedSize(src []byte) (size uint64, ok bool, err error) {
	in := istream{b: src}
	h, err := readFrameHeader(&in)
	if err != nil {
		return 0, false, err
	}
	// Without the single-segment flag, a size is declared only when the
	// Frame_Content_Size_flag (top two bits of the descriptor) is non-zero.
	if !h.singleSegmentFlag && src[4]>>6 == 0 {
		return 0, false, nil
	}
	return h.frameContentSize, true, nil
}

func readFrameHeader(in *istream) (frameHeader, error) {
	var h frameHeader
	magic, err := in.readBits(32)
	if err != nil {
		return h, err
	}
	if magic != frameMagic {
		return h, ErrFrameMagic
	}
	err = h.parse(in)
	return h, err
}
