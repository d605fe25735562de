package zstd

/*
 * Sequences are the LZ77 half of the format: each one asks for a run of
 * literals followed by a match copy at some offset. The three symbol types
 * (literal lengths, offsets, match lengths) are FSE coded and interleaved
 * with their raw extra bits in a single backward bitstream.
 */

// Sequence table modes from the compression modes byte.
const (
	seqPredefined = 0
	seqRLE        = 1
	seqFSE        = 2
	seqRepeat     = 3
)

const (
	maxLiteralLengthCode = 35
	maxMatchLengthCode   = 52
)

// Baseline and extra-bit tables for literal length and match length codes,
// and the predefined distributions for each symbol type. The values are
// fixed by the Zstandard format specification.
var literalLengthBaselines = [36]uint32{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11,
	12, 13, 14, 15, 16, 18, 20, 22, 24, 28, 32, 40,
	48, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536,
}

var literalLengthExtraBits = [36]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 3, 3, 4, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
}

var matchLengthBaselines = [53]uint32{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30,
	31, 32, 33, 34, 35, 37, 39, 41, 43, 47, 51, 59, 67, 83,
	99, 131, 259, 515, 1027, 2051, 4099, 8195, 16387, 32771, 65539,
}

var matchLengthExtraBits = [53]byte{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1,
	2, 2, 3, 3, 4, 4, 5, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
}

var literalLengthDefaultDist = [36]int16{
	4, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 3, 2, 1, 1, 1, 1, 1, -1, -1, -1, -1,
}

var offsetDefaultDist = [29]int16{
	1, 1, 1, 1, 1, 1, 2, 2, 2, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1,
}

var matchLengthDefaultDist = [53]int16{
	1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1, -1, -1,
}

// seqTableSpec carries the per-symbol-type constants: the predefined
// distribution with its accuracy, and the cap an FSE described table may
// use.
type seqTableSpec struct {
	defaultDist     []int16
	defaultAccuracy int
	maxAccuracy     int
}

var (
	llTableSpec = seqTableSpec{literalLengthDefaultDist[:], 6, 9}
	ofTableSpec = seqTableSpec{offsetDefaultDist[:], 5, 8}
	mlTableSpec = seqTableSpec{matchLengthDefaultDist[:], 6, 9}
)

// sequenceCommand is one decoded sequence before repeat-offset resolution.
type sequenceCommand struct {
	literalLength uint32
	matchLength   uint32
	offset        uint64 // raw offset value, 1-3 select a repeat offset
}

// decodeSeqTable installs the FSE table for one symbol type according to
// its mode. Repeat mode keeps the existing table and requires one.
func decodeSeqTable(t *fseTable, in *istream, spec seqTableSpec, mode int) error {
	switch mode {
	case seqPredefined:
		return t.build(spec.defaultDist, spec.defaultAccuracy)
	case seqRLE:
		src, err := in.readPtr(1)
		if err != nil {
			return err
		}
		t.buildRLE(src[0])
		return nil
	case seqFSE:
		return t.readHeader(in, spec.maxAccuracy)
	default: // seqRepeat
		if !t.initialized() {
			return ErrCorruption
		}
		return nil
	}
}

// decodeSequences reads the sequences section of a compressed block: the
// sequence count, the three table installs, then the interleaved bitstream.
// A nil result means the block is literals only.
func (ctx *frameContext) decodeSequences(in *istream) ([]sequenceCommand, error) {
	header, err := in.readBits(8)
	if err != nil {
		return nil, err
	}
	if header == 0 {
		return nil, nil
	}

	var numSequences int
	switch {
	case header < 128:
		numSequences = int(header)
	case header < 255:
		b1, err := in.readBits(8)
		if err != nil {
			return nil, err
		}
		numSequences = int(header-128)<<8 + int(b1)
	default:
		v, err := in.readBits(16)
		if err != nil {
			return nil, err
		}
		numSequences = int(v) + 0x7F00
	}

	modes, err := in.readBits(8)
	if err != nil {
		return nil, err
	}
	if modes&3 != 0 {
		// Reserved bits.
		return nil, ErrCorruption
	}
	if err := decodeSeqTable(&ctx.llTable, in, llTableSpec, int(modes>>6)&3); err != nil {
		return nil, err
	}
	if err := decodeSeqTable(&ctx.ofTable, in, ofTableSpec, int(modes>>4)&3); err != nil {
		return nil, err
	}
	if err := decodeSeqTable(&ctx.mlTable, in, mlTableSpec, int(modes>>2)&3); err != nil {
		return nil, err
	}

	src, err := in.readPtr(in.remaining())
	if err != nil {
		return nil, err
	}
	offset, err := backwardBitstream(src)
	if err != nil {
		return nil, err
	}

	// Initial states come first, in LL, OF, ML order.
	llState := ctx.llTable.initState(src, &offset)
	ofState := ctx.ofTable.initState(src, &offset)
	mlState := ctx.mlTable.initState(src, &offset)

	sequences := make([]sequenceCommand, numSequences)
	for i := range sequences {
		ofCode := ctx.ofTable.peekSymbol(ofState)
		llCode := ctx.llTable.peekSymbol(llState)
		mlCode := ctx.mlTable.peekSymbol(mlState)
		if llCode > maxLiteralLengthCode || mlCode > maxMatchLengthCode {
			return nil, ErrCorruption
		}

		// Extra bits are interleaved in OF, ML, LL order.
		sequences[i].offset = uint64(1)<<ofCode + streamReadBits(src, int(ofCode), &offset)
		sequences[i].matchLength = matchLengthBaselines[mlCode] +
			uint32(streamReadBits(src, int(matchLengthExtraBits[mlCode]), &offset))
		sequences[i].literalLength = literalLengthBaselines[llCode] +
			uint32(streamReadBits(src, int(literalLengthExtraBits[llCode]), &offset))

		// States update in LL, ML, OF order, except after the final
		// sequence, which leaves the stream exactly drained.
		if i < len(sequences)-1 {
			ctx.llTable.updateState(&llState, src, &offset)
			ctx.mlTable.updateState(&mlState, src, &offset)
			ctx.ofTable.updateState(&ofState, src, &offset)
		}
	}
	if offset != 0 {
		return nil, ErrCorruption
	}
	return sequences, nil
}

// executeSequences produces the block's output: for each sequence a literal
// copy and a match copy, then whatever literals remain.
func (ctx *frameContext) executeSequences(out *ostream, literals []byte, sequences []sequenceCommand) error {
	litStream := istream{b: literals}
	totalOutput := ctx.currentTotalOutput

	for _, seq := range sequences {
		if err := copyLiterals(int(seq.literalLength), &litStream, out); err != nil {
			return err
		}
		totalOutput += uint64(seq.literalLength)

		offset := computeOffset(seq, &ctx.previousOffsets)
		if err := ctx.executeMatchCopy(offset, int(seq.matchLength), totalOutput, out); err != nil {
			return err
		}
		totalOutput += uint64(seq.matchLength)
	}

	leftover := litStream.remaining()
	if err := copyLiterals(leftover, &litStream, out); err != nil {
		return err
	}
	totalOutput += uint64(leftover)

	ctx.currentTotalOutput = totalOutput
	return nil
}

func copyLiterals(n int, litStream *istream, out *ostream) error {
	if n > litStream.remaining() {
		// The sequence asks for more literals than the block decoded.
		return ErrCorruption
	}
	src, err := litStream.readPtr(n)
	if err != nil {
		return err
	}
	dst, err := out.writePtr(n)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// computeOffset resolves a raw offset value against the repeat offset
// history and updates the history. Values 1-3 select a repeat offset,
// shifted by one when the sequence has no literals; everything above 3 is
// a literal offset plus 3.
func computeOffset(seq sequenceCommand, hist *[3]uint64) uint64 {
	if seq.offset > 3 {
		offset := seq.offset - 3
		hist[2], hist[1], hist[0] = hist[1], hist[0], offset
		return offset
	}

	idx := seq.offset - 1
	if seq.literalLength == 0 {
		idx++
	}
	if idx == 0 {
		return hist[0]
	}

	var offset uint64
	if idx < 3 {
		offset = hist[idx]
	} else {
		offset = hist[0] - 1
	}
	if idx > 1 {
		hist[2] = hist[1]
	}
	hist[1] = hist[0]
	hist[0] = offset
	return offset
}

// executeMatchCopy copies matchLength bytes from offset bytes back in the
// output, falling back to the dictionary content for the part of the match
// that precedes the frame's own output. The in-output part is copied one
// byte at a time so overlapping copies repeat their pattern.
func (ctx *frameContext) executeMatchCopy(offset uint64, matchLength int, totalOutput uint64, out *ostream) error {
	dst, err := out.writePtr(matchLength)
	if err != nil {
		return err
	}
	if offset == 0 {
		return ErrCorruption
	}

	if totalOutput <= ctx.header.windowSize {
		if offset > totalOutput+uint64(len(ctx.dictContent)) {
			return ErrCorruption
		}
		if offset > totalOutput {
			back := int(offset - totalOutput)
			dictCopy := back
			if matchLength < dictCopy {
				dictCopy = matchLength
			}
			dictOffset := len(ctx.dictContent) - back
			copy(dst, ctx.dictContent[dictOffset:dictOffset+dictCopy])
			matchLength -= dictCopy
		}
	} else if offset > ctx.header.windowSize {
		return ErrCorruption
	}

	writePos := out.pos - matchLength
	for j := 0; j < matchLength; j++ {
		out.b[writePos+j] = out.b[writePos+j-int(offset)]
	}
	return nil
}
