package tile

import "iter"

func lowerNibble(b byte) byte {
	return b & 0x0f
}

func upperNibble(b byte) byte {
	return b >> 4
}

// Nibbles returns the pixels of a 4bpp tile, low nibble first. Each call to
// the returned sequence starts again from the beginning of t.
func Nibbles(t []byte) iter.Seq[uint8] {
	return func(yield func(uint8) bool) {
		for _, b := range t {
			if !yield(lowerNibble(b)) || !yield(upperNibble(b)) {
				return
			}
		}
	}
}

// Bytes returns the pixels of an 8bpp tile.
func Bytes(t []byte) iter.Seq[uint8] {
	return func(yield func(uint8) bool) {
		for _, b := range t {
			if !yield(b) {
				return
			}
		}
	}
}

// Pixels returns the pixels of t stored at depth d.
func Pixels(t []byte, d Depth) iter.Seq[uint8] {
	if d == Depth4 {
		return Nibbles(t)
	}
	return Bytes(t)
}

// Pack packs pixel values two to a byte. Only the low four bits of each value
// are kept and an odd trailing pixel leaves the high nibble empty.
func Pack(px []uint8) []byte {
	b := make([]byte, (len(px)+1)>>1)
	for i, p := range px {
		if i&1 == 0 {
			b[i>>1] |= p & 0x0f
		} else {
			b[i>>1] |= p & 0x0f << 4
		}
	}
	return b
}
