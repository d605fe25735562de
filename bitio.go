package zstd

import "math/bits"

/*
 * Two bit-reading disciplines coexist in a Zstandard frame. Headers and
 * block structure are read forward, least significant bit first, the same
 * convention as every other little-endian field in the format. Entropy
 * coded payloads (Huffman and FSE) are instead read backward from their
 * last byte, which carries a 1-bit end marker in its highest set bit.
 */

// istream is a bounded forward bit stream over a byte slice. Bits are
// consumed LSB first within each byte.
type istream struct {
	b   []byte
	pos int // byte position of the next read
	off int // bit offset into b[pos], 0-7
}

// remaining reports the number of whole bytes left in the stream.
func (in *istream) remaining() int {
	return len(in.b) - in.pos
}

// readBits reads n bits little-endian, 1 <= n <= 64, and advances the
// cursor past them.
func (in *istream) readBits(n int) (uint64, error) {
	if n <= 0 || n > 64 {
		return 0, ErrCorruption
	}
	if in.pos*8+in.off+n > len(in.b)*8 {
		return 0, ErrInputTooSmall
	}
	v := readBitsLE(in.b[in.pos:], n, in.off)
	t := in.off + n
	in.pos += t / 8
	in.off = t % 8
	return v, nil
}

// rewindBits moves the bit cursor back by n bits. The caller must not
// rewind past the start of the stream.
func (in *istream) rewindBits(n int) {
	t := in.pos*8 + in.off - n
	in.pos = t / 8
	in.off = t % 8
}

// align discards the remaining bits of the current byte, if any.
func (in *istream) align() error {
	if in.off != 0 {
		if in.remaining() == 0 {
			return ErrInputTooSmall
		}
		in.pos++
		in.off = 0
	}
	return nil
}

// readPtr returns the next n bytes and advances past them. The stream must
// be byte aligned.
func (in *istream) readPtr(n int) ([]byte, error) {
	if in.off != 0 {
		return nil, ErrCorruption
	}
	if n > in.remaining() {
		return nil, ErrInputTooSmall
	}
	p := in.b[in.pos : in.pos+n]
	in.pos += n
	return p, nil
}

// advance skips n bytes of a byte-aligned stream.
func (in *istream) advance(n int) error {
	_, err := in.readPtr(n)
	return err
}

// subStream splits off a bounded stream over the next n bytes and advances
// the parent past them.
func (in *istream) subStream(n int) (istream, error) {
	p, err := in.readPtr(n)
	if err != nil {
		return istream{}, err
	}
	return istream{b: p}, nil
}

// ostream is a bounded byte sink over a caller-provided buffer. Earlier
// output stays addressable, which match copies rely on.
type ostream struct {
	b   []byte
	pos int
}

func (out *ostream) writeByte(c byte) error {
	if out.pos >= len(out.b) {
		return ErrOutputTooSmall
	}
	out.b[out.pos] = c
	out.pos++
	return nil
}

// writePtr reserves the next n bytes of the sink and returns them.
func (out *ostream) writePtr(n int) ([]byte, error) {
	if n > len(out.b)-out.pos {
		return nil, ErrOutputTooSmall
	}
	p := out.b[out.pos : out.pos+n]
	out.pos += n
	return p, nil
}

// readBitsLE reads n bits from src starting at the given bit offset,
// least significant bit first. n may be 0, in which case the result is 0.
// The caller guarantees the read stays within src.
func readBitsLE(src []byte, n, bitOffset int) uint64 {
	src = src[bitOffset/8:]
	bitOffset %= 8
	var v uint64
	shift := 0
	for left := n; left > 0; {
		mask := uint64(0xff)
		if left < 8 {
			mask = 1<<uint(left) - 1
		}
		v += (uint64(src[0]) >> uint(bitOffset) & mask) << uint(shift)
		shift += 8 - bitOffset
		left -= 8 - bitOffset
		bitOffset = 0
		src = src[1:]
	}
	return v
}

// streamReadBits reads n bits from the tail of a backward entropy stream.
// offset is decremented by n before reading. If it underflows below zero
// the read is truncated at position 0 and the result is shifted left so the
// missing low bits come back as zeros; entropy streams terminate by
// underflowing, so this is the normal end-of-stream behavior, not an error.
func streamReadBits(src []byte, n int, offset *int64) uint64 {
	*offset -= int64(n)
	pos := *offset
	actual := n
	if pos < 0 {
		actual = n + int(pos)
		pos = 0
	}
	if actual < 0 {
		actual = 0
	}
	v := readBitsLE(src, actual, int(pos))
	if *offset < 0 {
		if -*offset >= 64 {
			return 0
		}
		v <<= uint(-*offset)
	}
	return v
}

// backwardBitstream locates the 1-bit end marker in the last byte of an
// entropy stream and returns the initial backward bit offset. A last byte
// of zero has no marker and means the stream is corrupt.
func backwardBitstream(src []byte) (int64, error) {
	if len(src) == 0 {
		return 0, ErrInputTooSmall
	}
	last := src[len(src)-1]
	if last == 0 {
		return 0, ErrCorruption
	}
	padding := 8 - highestSetBit(uint64(last))
	return int64(len(src)*8 - padding), nil
}

// highestSetBit returns the largest i such that 2^i <= x, or -1 for x == 0.
func highestSetBit(x uint64) int {
	return bits.Len64(x) - 1
}
