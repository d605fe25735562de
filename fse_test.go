package zstd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkDistribution verifies that every symbol owns exactly as many cells
// as its normalized frequency (one cell for a frequency of -1) and that
// the cells fill the table.
func checkDistribution(t *testing.T, table *fseTable, freqs []int16) {
	t.Helper()
	counts := make(map[byte]int)
	for _, s := range table.symbols {
		counts[s]++
	}
	total := 0
	for s, f := range freqs {
		want := int(f)
		if f == -1 {
			want = 1
		}
		assert.Equal(t, want, counts[byte(s)], "symbol %d cell count", s)
		total += want
	}
	assert.Equal(t, 1<<table.accuracyLog, total)
}

func TestFSEBuildPredefined(t *testing.T) {
	for _, tc := range []struct {
		name string
		spec seqTableSpec
	}{
		{"literal-lengths", llTableSpec},
		{"offsets", ofTableSpec},
		{"match-lengths", mlTableSpec},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var table fseTable
			require.NoError(t, table.build(tc.spec.defaultDist, tc.spec.defaultAccuracy))
			assert.Equal(t, tc.spec.defaultAccuracy, table.accuracyLog)
			checkDistribution(t, &table, tc.spec.defaultDist)
		})
	}
}

func TestFSEBuildTransitions(t *testing.T) {
	var table fseTable
	freqs := []int16{16, 16}
	require.NoError(t, table.build(freqs, 5))
	checkDistribution(t, &table, freqs)

	// With every frequency at half the table size, every transition reads
	// exactly one bit.
	for i := range table.numBits {
		assert.Equal(t, byte(1), table.numBits[i])
		assert.Less(t, int(table.newStateBase[i]), 1<<5)
	}
}

func TestFSEReadHeader(t *testing.T) {
	// Accuracy log 5, two symbols of probability 16 each: the first value
	// fits the small-value threshold and gives one bit back.
	in := istream{b: []byte{0x10, 0x3F}}
	var table fseTable
	require.NoError(t, table.readHeader(&in, 9))

	assert.Equal(t, 5, table.accuracyLog)
	checkDistribution(t, &table, []int16{16, 16})
	// The header parser aligns to the next byte when done.
	assert.Equal(t, 0, in.remaining())
}

func TestFSEReadHeaderAccuracyTooLarge(t *testing.T) {
	// Accuracy log 5 + 4 = 9, over the offsets cap of 8.
	in := istream{b: []byte{0x04, 0x00, 0x00}}
	var table fseTable
	assert.Equal(t, ErrCorruption, table.readHeader(&in, 8))
}

func TestFSERLETable(t *testing.T) {
	var table fseTable
	table.buildRLE(0x41)

	src := []byte{0x01}
	offset := int64(0)
	state := table.initState(src, &offset)
	assert.Equal(t, uint16(0), state)
	assert.Equal(t, byte(0x41), table.peekSymbol(state))

	// The single state consumes no bits.
	table.updateState(&state, src, &offset)
	assert.Equal(t, int64(0), offset)
	assert.Equal(t, uint16(0), state)
}

func TestFSEInterleaved2(t *testing.T) {
	var table fseTable
	require.NoError(t, table.build([]int16{16, 16}, 5))

	// Two 5-bit initial states (3 and 10), then immediate underflow: each
	// state still owes one symbol.
	in := istream{b: []byte{0x6A, 0x04}}
	out := ostream{b: make([]byte, 8)}
	require.NoError(t, table.decompressInterleaved2(&out, &in))

	assert.Equal(t, 2, out.pos)
	assert.Equal(t, []byte{1, 0}, out.b[:2])
}

func TestFSETableClone(t *testing.T) {
	var table fseTable
	require.NoError(t, table.build([]int16{16, 16}, 5))

	cp := table.clone()
	cp.symbols[0] ^= 1
	assert.NotEqual(t, table.symbols[0], cp.symbols[0])

	var empty fseTable
	emptyClone := empty.clone()
	assert.False(t, emptyClone.initialized())
}
