package tiled_test

import (
	"slices"
	"testing"

	"github.com/bodgit/tiled"
	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTiles(t *testing.T) {
	// 2x2 tile: 1 2 / 3 4
	tiles := [][]byte{{0x21, 0x43}}
	entries := []tilemap.Entry{
		{Index: 0},
		{Index: 0, FlipX: true},
		{Index: 0, FlipY: true, Palette: 1},
		{Index: 0, FlipX: true, FlipY: true},
		{Index: 3},
		{Index: 0, Palette: 16},
	}

	var got [][]uint8
	for i, px := range tiled.ResolveTiles(entries, tiles, 2, tile.Depth4) {
		assert.Equal(t, len(got), i)
		got = append(got, px)
	}

	assert.Equal(t, [][]uint8{
		{1, 2, 3, 4},
		{2, 1, 4, 3},
		{19, 20, 17, 18},
		{4, 3, 2, 1},
		nil,
		nil,
	}, got)
}

func TestChunkTable(t *testing.T) {
	a := tilemap.Entry{Index: 1}
	b := tilemap.Entry{Index: 2, FlipX: true}

	entries := []tilemap.Entry{
		a, a, a, a,
		a, b, b, a,
		a, a, a, a,
		b, b, b, b,
	}

	chunks, layout, err := tiled.ChunkTable(entries, 2)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	assert.Equal(t, []int{0, 1, 0, 2}, layout)
	assert.Equal(t, []tilemap.Entry{a, b, b, a}, chunks[1])

	_, _, err = tiled.ChunkTable(entries[:6], 2)
	assert.Error(t, err)

	_, _, err = tiled.ChunkTable(entries, 0)
	assert.Error(t, err)
}

func TestRasterCropPaste(t *testing.T) {
	r := tiled.NewRaster(4, 3)
	for i := range r.Pix {
		r.Pix[i] = uint8(i)
	}

	c := r.Crop(1, 1, 2, 2)
	assert.Equal(t, []uint8{5, 6, 9, 10}, c.Pix)

	// Out of bounds parts are blank
	c = r.Crop(3, 2, 2, 2)
	assert.Equal(t, []uint8{11, 0, 0, 0}, c.Pix)

	dst := tiled.NewRaster(3, 3)
	dst.Paste(&tiled.Raster{Pix: []uint8{1, 2, 3, 4}, Width: 2, Height: 2}, 2, 1)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0, 1, 0, 0, 3}, dst.Pix)
}

func TestRasterPasteMasked(t *testing.T) {
	src := &tiled.Raster{Pix: []uint8{0, 1, 16, 17}, Width: 4, Height: 1}

	dst := &tiled.Raster{Pix: slices.Repeat([]uint8{9}, 4), Width: 4, Height: 1}
	dst.PasteMasked(src, 0, 0, false)
	assert.Equal(t, []uint8{9, 1, 16, 17}, dst.Pix)

	dst = &tiled.Raster{Pix: slices.Repeat([]uint8{9}, 4), Width: 4, Height: 1}
	dst.PasteMasked(src, 0, 0, true)
	assert.Equal(t, []uint8{9, 1, 9, 17}, dst.Pix)
}
