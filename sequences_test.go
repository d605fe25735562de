package zstd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOffset(t *testing.T) {
	tests := []struct {
		name       string
		offset     uint64
		litLen     uint32
		wantOffset uint64
		wantHist   [3]uint64
	}{
		{"literal offset", 10, 1, 7, [3]uint64{7, 11, 22}},
		{"repeat 1", 1, 1, 11, [3]uint64{11, 22, 33}},
		{"repeat 2", 2, 1, 22, [3]uint64{22, 11, 33}},
		{"repeat 3", 3, 1, 33, [3]uint64{33, 11, 22}},
		{"repeat 1, no literals", 1, 0, 22, [3]uint64{22, 11, 33}},
		{"repeat 2, no literals", 2, 0, 33, [3]uint64{33, 11, 22}},
		{"repeat 3, no literals", 3, 0, 10, [3]uint64{10, 11, 22}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hist := [3]uint64{11, 22, 33}
			seq := sequenceCommand{literalLength: tc.litLen, matchLength: 3, offset: tc.offset}
			got := computeOffset(seq, &hist)
			assert.Equal(t, tc.wantOffset, got)
			assert.Equal(t, tc.wantHist, hist)
		})
	}
}

func TestMatchCopyOverlap(t *testing.T) {
	ctx := frameContext{
		header:          frameHeader{windowSize: 100},
		previousOffsets: [3]uint64{1, 4, 8},
	}
	out := ostream{b: make([]byte, 6)}

	// Offset 1 with match length 5 extends the last byte five times.
	seqs := []sequenceCommand{{literalLength: 1, matchLength: 5, offset: 4}}
	require.NoError(t, ctx.executeSequences(&out, []byte("A"), seqs))

	assert.Equal(t, []byte("AAAAAA"), out.b)
	assert.Equal(t, uint64(6), ctx.currentTotalOutput)
}

func TestMatchCopyPattern(t *testing.T) {
	ctx := frameContext{
		header:          frameHeader{windowSize: 100},
		previousOffsets: [3]uint64{1, 4, 8},
	}
	out := ostream{b: make([]byte, 9)}

	// Offset 3 with match length 6 repeats the three literals twice over.
	seqs := []sequenceCommand{{literalLength: 3, matchLength: 6, offset: 6}}
	require.NoError(t, ctx.executeSequences(&out, []byte("abc"), seqs))

	assert.Equal(t, []byte("abcabcabc"), out.b)
}

func TestMatchCopyOffsetTooFar(t *testing.T) {
	ctx := frameContext{
		header:          frameHeader{windowSize: 100},
		previousOffsets: [3]uint64{1, 4, 8},
	}
	out := ostream{b: make([]byte, 8)}

	// Offset 5 with only one byte of prior output and no dictionary.
	seqs := []sequenceCommand{{literalLength: 1, matchLength: 3, offset: 8}}
	assert.Equal(t, ErrCorruption, ctx.executeSequences(&out, []byte("A"), seqs))
}

func TestLiteralsUnderflow(t *testing.T) {
	ctx := frameContext{
		header:          frameHeader{windowSize: 100},
		previousOffsets: [3]uint64{1, 4, 8},
	}
	out := ostream{b: make([]byte, 8)}

	seqs := []sequenceCommand{{literalLength: 4, matchLength: 3, offset: 4}}
	assert.Equal(t, ErrCorruption, ctx.executeSequences(&out, []byte("AB"), seqs))
}

func TestLeftoverLiterals(t *testing.T) {
	ctx := frameContext{
		header:          frameHeader{windowSize: 100},
		previousOffsets: [3]uint64{1, 4, 8},
	}
	out := ostream{b: make([]byte, 5)}

	// No sequences at all: the block is its literals.
	require.NoError(t, ctx.executeSequences(&out, []byte("hello"), nil))
	assert.Equal(t, []byte("hello"), out.b)
}

func TestDecodeSequencesRLEMode(t *testing.T) {
	ctx := frameContext{header: frameHeader{windowSize: 1 << 20}}

	// One sequence, all three tables in RLE mode (symbols 0, 2, 0), then
	// a bitstream holding just the two offset extra bits.
	in := istream{b: []byte{0x01, 0x54, 0x00, 0x02, 0x00, 0x06}}
	seqs, err := ctx.decodeSequences(&in)
	require.NoError(t, err)
	require.Len(t, seqs, 1)

	assert.Equal(t, uint32(0), seqs[0].literalLength)
	assert.Equal(t, uint32(3), seqs[0].matchLength)
	assert.Equal(t, uint64(6), seqs[0].offset)
}

func TestDecodeSequencesEmpty(t *testing.T) {
	ctx := frameContext{}
	in := istream{b: []byte{0x00}}
	seqs, err := ctx.decodeSequences(&in)
	require.NoError(t, err)
	assert.Nil(t, seqs)
}

func TestDecodeSequencesReservedModeBits(t *testing.T) {
	ctx := frameContext{}
	in := istream{b: []byte{0x01, 0x55, 0x00, 0x00, 0x00, 0x01}}
	_, err := ctx.decodeSequences(&in)
	assert.Equal(t, ErrCorruption, err)
}

func TestDecodeSequencesRepeatWithoutTable(t *testing.T) {
	ctx := frameContext{}
	// LL mode repeat (bits 7-6 = 11) with no previous table installed.
	in := istream{b: []byte{0x01, 0xC0, 0x01}}
	_, err := ctx.decodeSequences(&in)
	assert.Equal(t, ErrCorruption, err)
}

func TestSequenceBitstreamMustDrain(t *testing.T) {
	ctx := frameContext{}

	// Same section as the RLE test but with a spare data bit in front of
	// the marker, leaving the stream at offset 1 after the last sequence.
	in := istream{b: []byte{0x01, 0x54, 0x00, 0x02, 0x00, 0x0C}}
	_, err := ctx.decodeSequences(&in)
	assert.Equal(t, ErrCorruption, err)
}
