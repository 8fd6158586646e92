package decode

// bitReader renders a byte slice as an MSB-first bit sequence.
type bitReader struct {
	src []byte
	pos int
	buf byte
	cnt uint8
}

// newBitReaderAt returns a reader positioned at an absolute bit offset.
func newBitReaderAt(src []byte, bitOffset int) *bitReader {
	r := &bitReader{src: src, pos: bitOffset / 8}
	if rem := uint8(bitOffset % 8); rem > 0 && r.pos < len(src) {
		r.buf = src[r.pos]
		r.pos++
		r.cnt = 8 - rem
	}
	return r
}

func (r *bitReader) readBit() (uint64, bool) {
	if r.cnt == 0 {
		if r.pos >= len(r.src) {
			return 0, false
		}
		r.buf = r.src[r.pos]
		r.pos++
		r.cnt = 8
	}
	r.cnt--
	return uint64((r.buf >> r.cnt) & 1), true
}

// readBits reads n bits, most significant first.
func (r *bitReader) readBits(n int) (uint64, bool) {
	var v uint64
	for i := 0; i < n; i++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, false
		}
		v = v<<1 | bit
	}
	return v, true
}
