package tile

// FlipHorizontal mirrors a 4bpp tile left to right. The input is not
// modified.
func FlipHorizontal(t []byte, dim int) []byte {
	flipped := make([]byte, len(t))
	for i, b := range t {
		x := i << 1 % dim
		y := i << 1 / dim
		// The pixel pair lands at the mirrored column in the opposite order
		flipped[(y*dim+(dim-1-x))>>1] = lowerNibble(b)<<4 | upperNibble(b)
	}
	return flipped
}

// FlipVertical mirrors a 4bpp tile top to bottom. The input is not
// modified.
func FlipVertical(t []byte, dim int) []byte {
	flipped := make([]byte, len(t))
	for i, b := range t {
		x := i << 1 % dim
		y := i << 1 / dim
		flipped[((dim-1-y)*dim+x)>>1] = b
	}
	return flipped
}

func flipBytes(t []byte, dim int, x, y bool) []byte {
	flipped := make([]byte, len(t))
	for i, b := range t {
		dx, dy := i%dim, i/dim
		if x {
			dx = dim - 1 - dx
		}
		if y {
			dy = dim - 1 - dy
		}
		flipped[dy*dim+dx] = b
	}
	return flipped
}

// Flip returns a copy of t stored at depth d, mirrored horizontally if x is
// set and vertically if y is set.
func Flip(t []byte, dim int, d Depth, x, y bool) []byte {
	if d == Depth8 {
		return flipBytes(t, dim, x, y)
	}
	switch {
	case x && y:
		return FlipVertical(FlipHorizontal(t, dim), dim)
	case x:
		return FlipHorizontal(t, dim)
	case y:
		return FlipVertical(t, dim)
	}
	return append([]byte(nil), t...)
}

// ShiftPalette moves unpacked pixel values into sub-palette palette of a
// flattened palette. A new slice is returned. Results wrap modulo 256, so
// palette should be between 0 and 15 and 8bpp values plus the shift should
// stay below 256.
func ShiftPalette(px []uint8, palette int) []uint8 {
	shift := uint8(ColorsPerPalette * palette)
	shifted := make([]uint8, len(px))
	for i, p := range px {
		shifted[i] = p + shift
	}
	return shifted
}
