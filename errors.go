package tiled

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for unusable configurations
	ErrInvalidConfig = errors.New("tiled: invalid configuration")
	// ErrNoTiles is returned when converting with an empty tile list
	ErrNoTiles = errors.New("tiled: no tiles")
	// ErrTooManyEntries is returned when a tilemap has more entries than
	// the image has room for
	ErrTooManyEntries = errors.New("tiled: too many tilemap entries")
)

// DimensionMismatchError is returned when an image does not have the
// configured dimensions.
type DimensionMismatchError struct {
	Width, Height         int
	WantWidth, WantHeight int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("tiled: image is %dx%d, dimensions must be %dx%d", e.Width, e.Height, e.WantWidth, e.WantHeight)
}

// TooManyTilesError is returned when an image needs more unique tiles than a
// tilemap entry can address.
type TooManyTilesError struct {
	Count int
}

func (e *TooManyTilesError) Error() string {
	return fmt.Sprintf("tiled: image has too many unique tiles (%d, max allowed are %d), unique tiles are sections of the image that can't be found anywhere else in it, including flipped or with a different sub-palette", e.Count, MaxTiles)
}

// PixelOutOfRangeError describes a pixel whose color is not in the
// sub-palette of its tile.
type PixelOutOfRangeError struct {
	X, Y    int
	Tile    int
	Color   int
	Palette int
	Size    int
}

func (e *PixelOutOfRangeError) Error() string {
	return fmt.Sprintf("tiled: color %d (from palette %d) used by pixel %dx%d in tile %d is out of range, expected colors from palette %d (%d - %d)",
		e.Color, e.Color/e.Size, e.X, e.Y, e.Tile, e.Palette, e.Palette*e.Size, (e.Palette+1)*e.Size-1)
}

// SubPaletteError is returned when a tile would need a sub-palette that
// cannot be stored in a tilemap entry.
type SubPaletteError struct {
	Tile    int
	Palette int
}

func (e *SubPaletteError) Error() string {
	return fmt.Sprintf("tiled: tile %d uses sub-palette %d, max allowed is 15", e.Tile, e.Palette)
}
