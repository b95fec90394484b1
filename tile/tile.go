/*
Package tile implements the packed pixel tiles the tiled codec works with.

A tile is a square block of dim by dim pixels stored either as 4 bits per
pixel, two pixels to a byte with the leftmost pixel in the low nibble, or as 8
bits per pixel. Pixel values are indices into a single sub-palette.
*/
package tile

import (
	"errors"
	"fmt"
)

// Depth is the number of bits used to store each pixel.
type Depth int

const (
	// Depth4 packs two pixels into each byte
	Depth4 Depth = 4
	// Depth8 stores one pixel per byte
	Depth8 Depth = 8
)

// ColorsPerPalette is the fixed stride between sub-palettes in a flattened
// palette.
const ColorsPerPalette = 16

// ErrTileSize is returned when tile data is not a whole number of tiles.
var ErrTileSize = errors.New("tile: data is not a multiple of the tile size")

func (d Depth) String() string {
	return fmt.Sprintf("%dbpp", int(d))
}

// Valid reports whether d is a supported depth.
func (d Depth) Valid() bool {
	return d == Depth4 || d == Depth8
}

// Size returns the number of bytes in a tile of dim by dim pixels.
func Size(dim int, d Depth) int {
	if d == Depth4 {
		return dim * dim >> 1
	}
	return dim * dim
}

// Split cuts data into tiles of dim by dim pixels. The returned tiles share
// memory with data.
func Split(data []byte, dim int, d Depth) ([][]byte, error) {
	size := Size(dim, d)
	if size == 0 || len(data)%size != 0 {
		return nil, ErrTileSize
	}
	tiles := make([][]byte, 0, len(data)/size)
	for i := 0; i < len(data); i += size {
		tiles = append(tiles, data[i:i+size:i+size])
	}
	return tiles, nil
}

// Join concatenates tiles back into one buffer.
func Join(tiles [][]byte) []byte {
	var n int
	for _, t := range tiles {
		n += len(t)
	}
	b := make([]byte, 0, n)
	for _, t := range tiles {
		b = append(b, t...)
	}
	return b
}

// Checksum returns the sum of all pixel values in t. It is the same for a
// tile and any flipped version of it.
func Checksum(t []byte, d Depth) int {
	var sum int
	for p := range Pixels(t, d) {
		sum += int(p)
	}
	return sum
}
