/*
Package tiled converts palette-indexed images to and from the tiled form used
by console graphics hardware.

The tiled form is a list of unique 4bpp tiles, a tilemap of entries that place
those tiles (possibly flipped and using one of several sub-palettes) and a flat
palette made up of 16 colour sub-palettes. Tilemap entries may be grouped into
square chunks of tiles which are laid out contiguously.
*/
package tiled

import (
	"fmt"
	"io"
	"log"

	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
)

// MaxTiles is the number of distinct tiles a tilemap entry can address.
const MaxTiles = tilemap.MaxIndex + 1

// IndexedImage is a raster of palette indices along with the palette as
// packed RGB triplets.
type IndexedImage struct {
	Raster  Raster
	Palette []byte
}

// TiledImage is the result of converting an IndexedImage.
type TiledImage struct {
	Tiles   [][]byte
	Palette []byte
	Tilemap []tilemap.Entry
}

// Config describes the geometry shared by both directions of conversion.
type Config struct {
	// TileDim is the width and height of a tile in pixels
	TileDim int
	// Width and Height are the expected image dimensions in pixels
	Width  int
	Height int
	// ChunkDim is the width and height of a chunk in tiles, 1 disables
	// chunking
	ChunkDim int
	// SinglePaletteSize is the number of colors in each sub-palette
	SinglePaletteSize int
	// PaletteOffset is added to the sub-palette of every source pixel
	PaletteOffset int
	// OptimizeChunks removes duplicate and flipped duplicate tiles
	OptimizeChunks bool
	// Strict fails a conversion on pixels outside their tile's sub-palette
	// instead of clamping them to zero
	Strict bool
}

func (c Config) validate() error {
	switch {
	case c.TileDim <= 0 || c.TileDim&1 != 0:
		return fmt.Errorf("%w: tile dimension %d must be a positive even number", ErrInvalidConfig, c.TileDim)
	case c.ChunkDim < 1:
		return fmt.Errorf("%w: chunk dimension %d must be at least 1", ErrInvalidConfig, c.ChunkDim)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: image dimensions %dx%d must be positive", ErrInvalidConfig, c.Width, c.Height)
	case c.Width%(c.TileDim*c.ChunkDim) != 0 || c.Height%(c.TileDim*c.ChunkDim) != 0:
		return fmt.Errorf("%w: image dimensions %dx%d must be a multiple of %d", ErrInvalidConfig, c.Width, c.Height, c.TileDim*c.ChunkDim)
	case c.SinglePaletteSize < 1 || c.SinglePaletteSize > tile.ColorsPerPalette:
		return fmt.Errorf("%w: sub-palette size %d must be between 1 and %d", ErrInvalidConfig, c.SinglePaletteSize, tile.ColorsPerPalette)
	case c.PaletteOffset < 0:
		return fmt.Errorf("%w: palette offset %d must not be negative", ErrInvalidConfig, c.PaletteOffset)
	}
	return nil
}

// Tiles returns the number of tile slots in an image.
func (c Config) Tiles() int {
	return c.Width * c.Height / (c.TileDim * c.TileDim)
}

// tileID returns the position of the tile at tile coordinates (tx, ty) when
// tiles are numbered chunk by chunk.
func (c Config) tileID(tx, ty int) int {
	cd := c.ChunkDim
	cx, cy := tx/cd, ty/cd
	return cy*cd*(c.Width/c.TileDim) + cx*cd*cd + ty%cd*cd + tx%cd
}

// tilePos is the inverse of tileID.
func (c Config) tilePos(i int) (int, int) {
	cd := c.ChunkDim
	chunksPerRow := c.Width / c.TileDim / cd
	chunk := i / (cd * cd)
	cx, cy := chunk%chunksPerRow, chunk/chunksPerRow
	return cx*cd + i%cd, cy*cd + i/cd%cd
}

// Converter converts images between their native and tiled forms.
type Converter struct {
	cfg    Config
	logger *log.Logger
}

// New returns a Converter for the given configuration. Recoverable problems
// found during conversion are reported to logger, which may be nil.
func New(cfg Config, logger *log.Logger) (*Converter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Converter{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// NewSequential returns a Converter that neither chunks nor deduplicates
// tiles, so the tiles of an image are produced in order.
func NewSequential(tileDim, width, height int, logger *log.Logger) (*Converter, error) {
	return New(Config{
		TileDim:           tileDim,
		Width:             width,
		Height:            height,
		ChunkDim:          1,
		SinglePaletteSize: tile.ColorsPerPalette,
	}, logger)
}

// Config returns the configuration c was created with.
func (c *Converter) Config() Config {
	return c.cfg
}
