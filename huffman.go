package zstd

const (
	hufMaxBits  = 16
	hufMaxSymbs = 256
)

// hufTable is a flat canonical Huffman decoding table of size 1<<maxBits.
// Each cell holds the symbol selected by the top bits of a decoder state
// and the number of those bits the code actually uses; the low bits carry
// over into the next state.
type hufTable struct {
	symbols []byte
	numBits []byte
	maxBits int
}

func (t *hufTable) initialized() bool {
	return len(t.symbols) != 0
}

func (t *hufTable) clone() hufTable {
	if !t.initialized() {
		return hufTable{}
	}
	return hufTable{
		symbols: append([]byte(nil), t.symbols...),
		numBits: append([]byte(nil), t.numBits...),
		maxBits: t.maxBits,
	}
}

// build constructs the table from per-symbol code bit-lengths, zero meaning
// the symbol is absent. Codes are canonical: assigned by increasing length,
// then symbol order.
func (t *hufTable) build(bitLens []byte) error {
	if len(bitLens) > hufMaxSymbs {
		return ErrCorruption
	}

	maxBits := 0
	var rankCount [hufMaxBits + 1]int
	for _, b := range bitLens {
		if int(b) > hufMaxBits {
			return ErrCorruption
		}
		if int(b) > maxBits {
			maxBits = int(b)
		}
		rankCount[b]++
	}

	size := 1 << maxBits
	t.maxBits = maxBits
	t.symbols = make([]byte, size)
	t.numBits = make([]byte, size)

	// Longest codes sit at the bottom of the table, each shorter rank
	// following the range of the rank below it.
	var rankIdx [hufMaxBits + 1]int
	for i := maxBits; i >= 1; i-- {
		rankIdx[i-1] = rankIdx[i] + rankCount[i]*(1<<(maxBits-i))
		if rankIdx[i-1] > size {
			// Oversubscribed lengths.
			return ErrCorruption
		}
	}
	if rankIdx[0] != size {
		// The lengths do not describe a complete code.
		return ErrCorruption
	}
	for i := maxBits; i >= 1; i-- {
		for j := rankIdx[i]; j < rankIdx[i-1]; j++ {
			t.numBits[j] = byte(i)
		}
	}

	// Each present symbol covers every state whose low maxBits-len bits
	// are "don't care".
	for s, b := range bitLens {
		if b == 0 {
			continue
		}
		cell := rankIdx[b]
		run := 1 << (maxBits - int(b))
		for j := 0; j < run; j++ {
			t.symbols[cell+j] = byte(s)
		}
		rankIdx[b] += run
	}
	return nil
}

// buildFromWeights constructs the table from the format's weight
// representation. The last symbol's weight is implicit: the weights must
// leave a power-of-two gap below the next power of two, and that gap is the
// missing symbol's share.
func (t *hufTable) buildFromWeights(weights []byte) error {
	if len(weights)+1 > hufMaxSymbs {
		return ErrCorruption
	}

	var weightSum uint64
	for _, w := range weights {
		if int(w) > hufMaxBits {
			return ErrCorruption
		}
		if w > 0 {
			weightSum += 1 << (w - 1)
		}
	}

	maxBits := highestSetBit(weightSum) + 1
	leftOver := uint64(1)<<uint(maxBits) - weightSum
	if leftOver&(leftOver-1) != 0 {
		return ErrCorruption
	}
	lastWeight := highestSetBit(leftOver) + 1

	bitLens := make([]byte, len(weights)+1)
	for i, w := range weights {
		if w > 0 {
			bitLens[i] = byte(maxBits + 1 - int(w))
		}
	}
	bitLens[len(weights)] = byte(maxBits + 1 - lastWeight)
	return t.build(bitLens)
}

// readDescription parses a Huffman tree description and rebuilds t from it.
// Weights are either stored directly as nibbles or FSE compressed.
func (t *hufTable) readDescription(in *istream) error {
	header, err := in.readBits(8)
	if err != nil {
		return err
	}

	var weights [hufMaxSymbs]byte
	var numSymbs int
	if header >= 128 {
		// Direct representation: one weight per 4-bit field, the even
		// indexed weight in the high nibble.
		numSymbs = int(header) - 127
		src, err := in.readPtr((numSymbs + 1) / 2)
		if err != nil {
			return err
		}
		for i := 0; i < numSymbs; i++ {
			if i%2 == 0 {
				weights[i] = src[i/2] >> 4
			} else {
				weights[i] = src[i/2] & 0xf
			}
		}
	} else {
		// header is the compressed size of an FSE coded weight list.
		sub, err := in.subStream(int(header))
		if err != nil {
			return err
		}
		numSymbs, err = fseDecodeHufWeights(weights[:], &sub)
		if err != nil {
			return err
		}
	}
	return t.buildFromWeights(weights[:numSymbs])
}

func (t *hufTable) initState(src []byte, offset *int64) uint16 {
	return uint16(streamReadBits(src, t.maxBits, offset))
}

func (t *hufTable) decodeSymbol(state *uint16, src []byte, offset *int64) byte {
	symb := t.symbols[*state]
	n := int(t.numBits[*state])
	rest := uint16(streamReadBits(src, n, offset))
	// Shift out the bits the code consumed, keep the rest, pull new bits
	// in at the bottom.
	*state = (*state<<uint(n) + rest) & uint16(1<<uint(t.maxBits)-1)
	return symb
}

// decompress1Stream decodes one backward Huffman bitstream into out and
// returns the number of symbols written.
func (t *hufTable) decompress1Stream(out *ostream, in *istream) (int, error) {
	n := in.remaining()
	if n == 0 {
		return 0, ErrInputTooSmall
	}
	src, err := in.readPtr(n)
	if err != nil {
		return 0, err
	}
	offset, err := backwardBitstream(src)
	if err != nil {
		return 0, err
	}

	state := t.initState(src, &offset)
	written := 0
	for offset > -int64(t.maxBits) {
		if err := out.writeByte(t.decodeSymbol(&state, src, &offset)); err != nil {
			return 0, err
		}
		written++
	}
	// The final state must have pulled in exactly maxBits of padding zeros,
	// no more and no less, or the stream was not fully consumed.
	if offset != -int64(t.maxBits) {
		return 0, ErrCorruption
	}
	return written, nil
}

// decompress4Streams decodes the four-stream layout: three 16-bit sizes,
// then four back-to-back bitstreams sharing one table, appended in order.
func (t *hufTable) decompress4Streams(out *ostream, in *istream) (int, error) {
	csize1, err := in.readBits(16)
	if err != nil {
		return 0, err
	}
	csize2, err := in.readBits(16)
	if err != nil {
		return 0, err
	}
	csize3, err := in.readBits(16)
	if err != nil {
		return 0, err
	}

	sizes := [4]int{int(csize1), int(csize2), int(csize3), 0}
	total := sizes[0] + sizes[1] + sizes[2]
	if total > in.remaining() {
		return 0, ErrInputTooSmall
	}
	sizes[3] = in.remaining() - total

	written := 0
	for _, size := range sizes {
		sub, err := in.subStream(size)
		if err != nil {
			return 0, err
		}
		n, err := t.decompress1Stream(out, &sub)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}
