package image

import (
	"errors"
	"image/color"

	"github.com/bodgit/tiled/tile"
)

var errBadPalette = errors.New("image: palette is not a whole number of RGB triplets")

func padPalette(p color.Palette) color.Palette {
	// Pad palette to multiple of tile.ColorsPerPalette
	if mod := len(p) % tile.ColorsPerPalette; mod > 0 || len(p) == 0 {
		for i := 0; i < tile.ColorsPerPalette-mod; i++ {
			p = append(p, color.RGBA{0, 0, 0, 0xff})
		}
	}
	return p
}

// EncodePalette flattens p into RGB triplets. Alpha is discarded.
func EncodePalette(p color.Palette) []byte {
	b := make([]byte, 0, len(p)*3)
	for _, c := range p {
		r, g, bl, _ := c.RGBA()
		b = append(b, byte(r>>8), byte(g>>8), byte(bl>>8))
	}
	return b
}

// DecodePalette expands RGB triplets into an opaque palette.
func DecodePalette(b []byte) (color.Palette, error) {
	if len(b)%3 != 0 {
		return nil, errBadPalette
	}
	p := make(color.Palette, 0, len(b)/3)
	for i := 0; i < len(b); i += 3 {
		p = append(p, color.RGBA{b[i], b[i+1], b[i+2], 0xff})
	}
	return p, nil
}

// SubPalettes splits a flat palette into its sub-palettes.
func SubPalettes(b []byte) [][]byte {
	const size = tile.ColorsPerPalette * 3
	var out [][]byte
	for i := 0; i < len(b); i += size {
		end := i + size
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[i:end])
	}
	return out
}
