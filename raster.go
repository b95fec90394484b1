package tiled

import "github.com/bodgit/tiled/tile"

// Raster is a rectangle of palette indices stored row by row.
type Raster struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewRaster returns a blank raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Pix:    make([]uint8, width*height),
		Width:  width,
		Height: height,
	}
}

// Crop returns a copy of the part of r enclosed by (x, y, x+w, y+h). Parts
// outside of r are left blank.
func (r *Raster) Crop(x, y, w, h int) *Raster {
	out := NewRaster(w, h)
	for dy := 0; dy < h; dy++ {
		sy := y + dy
		if sy < 0 || sy >= r.Height {
			continue
		}
		for dx := 0; dx < w; dx++ {
			sx := x + dx
			if sx < 0 || sx >= r.Width {
				continue
			}
			out.Pix[dy*w+dx] = r.Pix[sy*r.Width+sx]
		}
	}
	return out
}

func (r *Raster) paste(src *Raster, x, y int, keep func(uint8) bool) {
	for sy := 0; sy < src.Height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= r.Height {
			continue
		}
		for sx := 0; sx < src.Width; sx++ {
			dx := x + sx
			if dx < 0 || dx >= r.Width {
				continue
			}
			if p := src.Pix[sy*src.Width+sx]; keep(p) {
				r.Pix[dy*r.Width+dx] = p
			}
		}
	}
}

// Paste copies src into r with its top-left corner at (x, y).
func (r *Raster) Paste(src *Raster, x, y int) {
	r.paste(src, x, y, func(uint8) bool { return true })
}

// PasteMasked is like Paste but treats color 0 as transparent. If
// subPalettes is set, the first color of every sub-palette is transparent.
func (r *Raster) PasteMasked(src *Raster, x, y int, subPalettes bool) {
	r.paste(src, x, y, func(p uint8) bool {
		if subPalettes {
			return p%tile.ColorsPerPalette != 0
		}
		return p != 0
	})
}
