package tiled

import (
	"bytes"

	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
)

type builtTile struct {
	sum     int
	data    []byte
	palette int
}

// realPixel returns the color of a pixel relative to the sub-palette of its
// tile. Colors outside of the sub-palette are clamped to zero.
func (c *Converter) realPixel(pix, x, y, id int, t *builtTile) (uint8, error) {
	size := c.cfg.SinglePaletteSize
	v := pix - t.palette*size
	if v >= 0 && v < size {
		return uint8(v), nil
	}
	err := &PixelOutOfRangeError{
		X:       x,
		Y:       y,
		Tile:    id,
		Color:   pix,
		Palette: t.palette,
		Size:    size,
	}
	if c.cfg.Strict {
		return 0, err
	}
	c.logger.Printf("warning: %v", err)
	return 0, nil
}

// ToTiled converts img into 4bpp tiles, a tilemap and a palette.
func (c *Converter) ToTiled(img *IndexedImage) (*TiledImage, error) {
	r := &img.Raster
	if r.Width != c.cfg.Width || r.Height != c.cfg.Height || len(r.Pix) != r.Width*r.Height {
		return nil, &DimensionMismatchError{
			Width:      r.Width,
			Height:     r.Height,
			WantWidth:  c.cfg.Width,
			WantHeight: c.cfg.Height,
		}
	}

	dim := c.cfg.TileDim
	size := c.cfg.SinglePaletteSize
	offset := c.cfg.PaletteOffset * size

	tiles := make([]builtTile, c.cfg.Tiles())

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x += 2 {
			id := c.cfg.tileID(x/dim, y/dim)
			t := &tiles[id]

			p0 := int(r.Pix[y*r.Width+x]) + offset
			p1 := int(r.Pix[y*r.Width+x+1]) + offset

			// The first pixel of a tile decides its sub-palette
			if t.data == nil {
				t.data = make([]byte, tile.Size(dim, tile.Depth4))
				t.palette = p0 / size
				if t.palette > tilemap.MaxPalette {
					return nil, &SubPaletteError{Tile: id, Palette: t.palette}
				}
			}

			lo, err := c.realPixel(p0, x, y, id, t)
			if err != nil {
				return nil, err
			}
			hi, err := c.realPixel(p1, x+1, y, id, t)
			if err != nil {
				return nil, err
			}

			t.sum += int(lo) + int(hi)
			t.data[(y%dim*dim+x%dim)>>1] = lo | hi<<4
		}
	}

	out := &TiledImage{
		Palette: append([]byte(nil), img.Palette...),
		Tilemap: make([]tilemap.Entry, 0, len(tiles)),
	}

	if !c.cfg.OptimizeChunks {
		out.Tiles = make([][]byte, 0, len(tiles))
		for i, t := range tiles {
			out.Tiles = append(out.Tiles, t.data)
			out.Tilemap = append(out.Tilemap, tilemap.Entry{Index: i, Palette: t.palette})
		}
	} else {
		unique := make([]builtTile, 0, len(tiles))
		for i := range tiles {
			t := &tiles[i]
			idx, flipX, flipY, ok := searchTile(unique, t, dim)
			if !ok {
				unique = append(unique, *t)
				idx = len(unique) - 1
			}
			out.Tilemap = append(out.Tilemap, tilemap.Entry{
				Index:   idx,
				FlipX:   flipX,
				FlipY:   flipY,
				Palette: t.palette,
			})
		}
		out.Tiles = make([][]byte, 0, len(unique))
		for _, t := range unique {
			out.Tiles = append(out.Tiles, t.data)
		}
	}

	if len(out.Tiles) > MaxTiles {
		return nil, &TooManyTilesError{Count: len(out.Tiles)}
	}

	return out, nil
}

// searchTile looks for needle, or a flipped version of it, in tiles and
// returns its index and how it was flipped. Checksums are compared first as
// they are the same for every flipped version of a tile.
func searchTile(tiles []builtTile, needle *builtTile, dim int) (int, bool, bool, bool) {
	for i, candidate := range tiles {
		if candidate.sum != needle.sum {
			continue
		}
		if bytes.Equal(candidate.data, needle.data) {
			return i, false, false, true
		}
		flippedX := tile.FlipHorizontal(candidate.data, dim)
		if bytes.Equal(flippedX, needle.data) {
			return i, true, false, true
		}
		if bytes.Equal(tile.FlipVertical(candidate.data, dim), needle.data) {
			return i, false, true, true
		}
		if bytes.Equal(tile.FlipVertical(flippedX, dim), needle.data) {
			return i, true, true, true
		}
	}
	return 0, false, false, false
}
