package zstd

// A block regenerates at most 128 KiB, and so does its literals section.
const maxLiteralsSize = 128 << 10

// Literals block types, from the two low bits of the section header.
const (
	literalsRaw        = 0
	literalsRLE        = 1
	literalsCompressed = 2
	literalsTreeless   = 3
)

// decodeLiterals reads the literals section of a compressed block and
// returns the regenerated literal bytes. Compressed literals may install a
// new Huffman table in the context or reuse the previous one.
func (ctx *frameContext) decodeLiterals(in *istream) ([]byte, error) {
	blockType, err := in.readBits(2)
	if err != nil {
		return nil, err
	}
	sizeFormat, err := in.readBits(2)
	if err != nil {
		return nil, err
	}
	if blockType <= literalsRLE {
		return decodeLiteralsSimple(in, int(blockType), int(sizeFormat))
	}
	return ctx.decodeLiteralsCompressed(in, int(blockType), int(sizeFormat))
}

// decodeLiteralsSimple handles raw and RLE literal blocks.
func decodeLiteralsSimple(in *istream, blockType, sizeFormat int) ([]byte, error) {
	var size uint64
	var err error
	switch sizeFormat {
	case 0, 2:
		// 1-bit size format; the second format bit read above is really
		// the low bit of the 5-bit size.
		in.rewindBits(1)
		size, err = in.readBits(5)
	case 1:
		size, err = in.readBits(12)
	case 3:
		size, err = in.readBits(20)
	}
	if err != nil {
		return nil, err
	}
	if size > maxLiteralsSize {
		return nil, ErrCorruption
	}

	literals := make([]byte, size)
	switch blockType {
	case literalsRaw:
		src, err := in.readPtr(int(size))
		if err != nil {
			return nil, err
		}
		copy(literals, src)
	case literalsRLE:
		src, err := in.readPtr(1)
		if err != nil {
			return nil, err
		}
		for i := range literals {
			literals[i] = src[0]
		}
	}
	return literals, nil
}

// decodeLiteralsCompressed handles Huffman compressed literal blocks,
// with either a freshly transmitted table or the context's previous one.
func (ctx *frameContext) decodeLiteralsCompressed(in *istream, blockType, sizeFormat int) ([]byte, error) {
	var regenSize, compSize uint64
	var err error
	numStreams := 4
	switch sizeFormat {
	case 0:
		// A single stream; sizes are laid out as in format 1.
		numStreams = 1
		fallthrough
	case 1:
		if regenSize, err = in.readBits(10); err == nil {
			compSize, err = in.readBits(10)
		}
	case 2:
		if regenSize, err = in.readBits(14); err == nil {
			compSize, err = in.readBits(14)
		}
	case 3:
		if regenSize, err = in.readBits(18); err == nil {
			compSize, err = in.readBits(18)
		}
	}
	if err != nil {
		return nil, err
	}
	if regenSize > maxLiteralsSize {
		return nil, ErrCorruption
	}

	literals := make([]byte, regenSize)
	litStream := ostream{b: literals}
	hufStream, err := in.subStream(int(compSize))
	if err != nil {
		return nil, err
	}

	if blockType == literalsCompressed {
		if err := ctx.literalsTable.readDescription(&hufStream); err != nil {
			return nil, err
		}
	} else if !ctx.literalsTable.initialized() {
		// Treeless blocks repeat the previous table, which must exist.
		return nil, ErrCorruption
	}

	var decoded int
	if numStreams == 1 {
		decoded, err = ctx.literalsTable.decompress1Stream(&litStream, &hufStream)
	} else {
		decoded, err = ctx.literalsTable.decompress4Streams(&litStream, &hufStream)
	}
	if err != nil {
		return nil, err
	}
	if decoded != int(regenSize) {
		return nil, ErrCorruption
	}
	return literals, nil
}
