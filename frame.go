package zstd

import "encoding/binary"

const frameMagic = 0xFD2FB528

// Block types from the block header.
const (
	blockRaw        = 0
	blockRLE        = 1
	blockCompressed = 2
	blockReserved   = 3
)

// frameHeader holds the fields parsed once per frame.
type frameHeader struct {
	windowSize          uint64
	frameContentSize    uint64 // 0 when the frame does not declare one
	dictionaryID        uint32
	contentChecksumFlag bool
	singleSegmentFlag   bool
}

// frameContext is the mutable state of one frame being decoded: running
// output count, dictionary view, the entropy tables blocks leave behind for
// reuse, and the repeat offset history.
type frameContext struct {
	header             frameHeader
	currentTotalOutput uint64

	dictContent []byte

	literalsTable hufTable
	llTable       fseTable
	mlTable       fseTable
	ofTable       fseTable

	previousOffsets [3]uint64
}

// decodeFrame decodes the single frame in `in` into `out`, optionally with
// a dictionary.
func decodeFrame(out *ostream, in *istream, dict *Dictionary) error {
	h, err := readFrameHeader(in)
	if err != nil {
		return err
	}

	ctx := frameContext{
		header:          h,
		previousOffsets: [3]uint64{1, 4, 8},
	}
	if err := ctx.applyDict(dict); err != nil {
		return err
	}
	if h.frameContentSize != 0 && h.frameContentSize > uint64(len(out.b)-out.pos) {
		return ErrOutputTooSmall
	}
	return ctx.decompressData(out, in)
}

// parse reads the frame header that follows the magic number. The
// descriptor byte tells which optional fields are present:
//
//	bits 7-6  Frame_Content_Size_flag
//	bit  5    Single_Segment_flag
//	bit  4    unused
//	bit  3    reserved, must be zero
//	bit  2    Content_Checksum_flag
//	bits 1-0  Dictionary_ID_flag
func (h *frameHeader) parse(in *istream) error {
	descriptor, err := in.readBits(8)
	if err != nil {
		return err
	}
	fcsFlag := int(descriptor >> 6)
	h.singleSegmentFlag = descriptor>>5&1 != 0
	if descriptor>>3&1 != 0 {
		return ErrCorruption
	}
	h.contentChecksumFlag = descriptor>>2&1 != 0
	dictIDFlag := int(descriptor & 3)

	if !h.singleSegmentFlag {
		// Window descriptor: 5-bit exponent, 3-bit mantissa.
		wd, err := in.readBits(8)
		if err != nil {
			return err
		}
		windowBase := uint64(1) << (10 + wd>>3)
		h.windowSize = windowBase + windowBase/8*(wd&7)
	}

	h.dictionaryID = 0
	if dictIDFlag != 0 {
		idBytes := [4]int{0, 1, 2, 4}[dictIDFlag]
		id, err := in.readBits(idBytes * 8)
		if err != nil {
			return err
		}
		h.dictionaryID = uint32(id)
	}

	h.frameContentSize = 0
	if h.singleSegmentFlag || fcsFlag != 0 {
		// Single segment frames always carry a content size, even with
		// flag 0 (one byte).
		fcsBytes := [4]int{1, 2, 4, 8}[fcsFlag]
		fcs, err := in.readBits(fcsBytes * 8)
		if err != nil {
			return err
		}
		if fcsBytes == 2 {
			fcs += 256
		}
		h.frameContentSize = fcs
	}

	if h.singleSegmentFlag {
		// No window descriptor; the window is the content itself.
		h.windowSize = h.frameContentSize
	}
	return nil
}

// decompressData runs the block loop until the last-block flag, then skips
// the content checksum if the frame carries one. The checksum is not
// verified here.
func (ctx *frameContext) decompressData(out *ostream, in *istream) error {
	for {
		lastBlock, err := in.readBits(1)
		if err != nil {
			return err
		}
		blockType, err := in.readBits(2)
		if err != nil {
			return err
		}
		blockSize, err := in.readBits(21)
		if err != nil {
			return err
		}

		switch blockType {
		case blockRaw:
			src, err := in.readPtr(int(blockSize))
			if err != nil {
				return err
			}
			dst, err := out.writePtr(int(blockSize))
			if err != nil {
				return err
			}
			copy(dst, src)
			ctx.currentTotalOutput += blockSize
		case blockRLE:
			src, err := in.readPtr(1)
			if err != nil {
				return err
			}
			dst, err := out.writePtr(int(blockSize))
			if err != nil {
				return err
			}
			for i := range dst {
				dst[i] = src[0]
			}
			ctx.currentTotalOutput += blockSize
		case blockCompressed:
			block, err := in.subStream(int(blockSize))
			if err != nil {
				return err
			}
			if err := ctx.decompressBlock(out, &block); err != nil {
				return err
			}
		default:
			return ErrReservedBlock
		}

		if lastBlock != 0 {
			break
		}
	}

	if ctx.header.contentChecksumFlag {
		return in.advance(4)
	}
	return nil
}

// decompressBlock decodes one compressed block: literals, then sequences,
// then sequence execution against both.
func (ctx *frameContext) decompressBlock(out *ostream, in *istream) error {
	literals, err := ctx.decodeLiterals(in)
	if err != nil {
		return err
	}
	sequences, err := ctx.decodeSequences(in)
	if err != nil {
		return err
	}
	return ctx.executeSequences(out, literals, sequences)
}

// ContentChecksum returns the frame's trailing XXH64 content checksum (its
// low 32 bits, as stored) when the frame carries one. The decoder itself
// never verifies it; callers that want verification can hash the
// decompressed output and compare.
func ContentChecksum(src []byte) (sum uint32, present bool, err error) {
	in := istream{b: src}
	h, err := readFrameHeader(&in)
	if err != nil {
		return 0, false, err
	}
	if !h.contentChecksumFlag {
		return 0, false, nil
	}
	if len(src) < 4 {
		return 0, false, ErrInputTooSmall
	}
	return binary.LittleEndian.Uint32(src[len(src)-4:]), true, nil
}
