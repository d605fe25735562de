package zstd

const dictMagic = 0xEC30A437

// Dictionary holds the parsed contents of a Zstandard dictionary: raw
// content used as a virtual past for back-references, and, for formatted
// dictionaries, precomputed entropy tables and a seeded offset history.
// A Dictionary is read-only once built and safe for concurrent use.
type Dictionary struct {
	id      uint32
	content []byte

	literalsTable hufTable
	llTable       fseTable
	ofTable       fseTable
	mlTable       fseTable

	previousOffsets [3]uint64
}

// ID returns the dictionary id, 0 for raw content dictionaries.
func (d *Dictionary) ID() uint32 {
	return d.id
}

// NewDictionary parses data as a Zstandard dictionary. Input starting with
// the dictionary magic number is parsed as a formatted dictionary; anything
// else is taken whole as raw content. Input shorter than 8 bytes is rejected
// with ErrDictionary.
func NewDictionary(data []byte) (*Dictionary, error) {
	if len(data) < 8 {
		return nil, ErrDictionary
	}

	d := new(Dictionary)
	in := istream{b: data}

	magic, err := in.readBits(32)
	if err != nil {
		return nil, err
	}
	if magic != dictMagic {
		d.content = append([]byte(nil), data...)
		return d, nil
	}

	id, err := in.readBits(32)
	if err != nil {
		return nil, err
	}
	d.id = uint32(id)

	// Entropy tables follow the same layout as in compressed blocks, in
	// the order: literals Huffman, then offset, match length, and literal
	// length FSE.
	if err := d.literalsTable.readDescription(&in); err != nil {
		return nil, err
	}
	if err := d.ofTable.readHeader(&in, ofTableSpec.maxAccuracy); err != nil {
		return nil, err
	}
	if err := d.mlTable.readHeader(&in, mlTableSpec.maxAccuracy); err != nil {
		return nil, err
	}
	if err := d.llTable.readHeader(&in, llTableSpec.maxAccuracy); err != nil {
		return nil, err
	}

	for i := range d.previousOffsets {
		v, err := in.readBits(32)
		if err != nil {
			return nil, err
		}
		if v >= uint64(len(data)) {
			return nil, ErrDictionary
		}
		d.previousOffsets[i] = v
	}

	content, err := in.readPtr(in.remaining())
	if err != nil {
		return nil, err
	}
	d.content = append([]byte(nil), content...)
	return d, nil
}

// applyDict installs a dictionary into the frame context. The content is
// borrowed for the duration of the frame; entropy tables and the offset
// history are deep copied so the dictionary's lifetime stays independent.
func (ctx *frameContext) applyDict(dict *Dictionary) error {
	if dict == nil || len(dict.content) == 0 {
		return nil
	}
	if ctx.header.dictionaryID != 0 && ctx.header.dictionaryID != dict.id {
		return ErrDictionaryMismatch
	}

	ctx.dictContent = dict.content

	if dict.id != 0 {
		ctx.literalsTable = dict.literalsTable.clone()
		ctx.llTable = dict.llTable.clone()
		ctx.ofTable = dict.ofTable.clone()
		ctx.mlTable = dict.mlTable.clone()
		ctx.previousOffsets = dict.previousOffsets
	}
	return nil
}
