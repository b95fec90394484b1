package tiled

import (
	"fmt"
	"iter"
	"slices"

	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
)

// Sequence returns n entries referencing tiles 0 to n-1 in order, unflipped
// and using the first sub-palette.
func Sequence(n int) iter.Seq[tilemap.Entry] {
	return func(yield func(tilemap.Entry) bool) {
		for i := 0; i < n; i++ {
			if !yield(tilemap.Entry{Index: i}) {
				return
			}
		}
	}
}

// Entries adapts a tilemap slice for use with ToNative.
func Entries(entries []tilemap.Entry) iter.Seq[tilemap.Entry] {
	return slices.Values(entries)
}

func checkTiles(tiles [][]byte, dim int, d tile.Depth) error {
	if len(tiles) == 0 {
		return ErrNoTiles
	}
	if !d.Valid() {
		return fmt.Errorf("tiled: unsupported depth %v", d)
	}
	size := tile.Size(dim, d)
	for i, t := range tiles {
		if len(t) != size {
			return fmt.Errorf("tiled: tile %d: %w", i, tile.ErrTileSize)
		}
	}
	return nil
}

// lookup returns the tile and sub-palette referenced by e, falling back to
// the first tile or sub-palette when either reference is invalid.
func (c *Converter) lookup(tiles [][]byte, e tilemap.Entry) ([]byte, int) {
	t, palette := tiles[0], 0
	if e.Index >= 0 && e.Index < len(tiles) {
		t = tiles[e.Index]
	} else {
		c.logger.Printf("warning: tilemap entry %+v contains invalid tile reference, replaced with 0", e)
	}
	if e.Palette >= 0 && e.Palette <= tilemap.MaxPalette {
		palette = e.Palette
	} else {
		c.logger.Printf("warning: tilemap entry %+v contains invalid sub-palette, replaced with 0", e)
	}
	return t, palette
}

// ToNative places tiles stored at depth d according to entries and returns
// the resulting image. Entries are consumed in chunk order.
func (c *Converter) ToNative(entries iter.Seq[tilemap.Entry], tiles [][]byte, d tile.Depth, palette []byte) (*IndexedImage, error) {
	dim := c.cfg.TileDim
	if err := checkTiles(tiles, dim, d); err != nil {
		return nil, err
	}

	r := NewRaster(c.cfg.Width, c.cfg.Height)
	slots := c.cfg.Tiles()

	i := 0
	for e := range entries {
		if i >= slots {
			return nil, ErrTooManyEntries
		}
		tx, ty := c.cfg.tilePos(i)

		t, palette := c.lookup(tiles, e)
		px := tile.ShiftPalette(slices.Collect(tile.Pixels(t, d)), palette)
		for j, p := range px {
			x, y := j%dim, j/dim
			// Mirror the read position rather than the tile
			if e.FlipX {
				x = dim - 1 - x
			}
			if e.FlipY {
				y = dim - 1 - y
			}
			r.Pix[(ty*dim+y)*r.Width+tx*dim+x] = p
		}
		i++
	}

	return &IndexedImage{
		Raster:  *r,
		Palette: append([]byte(nil), palette...),
	}, nil
}

// ToNativeSeq places tiles in order, as produced by a Converter created with
// NewSequential.
func (c *Converter) ToNativeSeq(tiles [][]byte, d tile.Depth, palette []byte) (*IndexedImage, error) {
	return c.ToNative(Sequence(c.cfg.Tiles()), tiles, d, palette)
}
