package tile_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/bodgit/tiled/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTile(r *rand.Rand, dim int, d tile.Depth) []byte {
	t := make([]byte, tile.Size(dim, d))
	r.Read(t)
	return t
}

// naiveFlip unpacks, mirrors and repacks a 4bpp tile
func naiveFlip(t []byte, dim int, x, y bool) []byte {
	px := slices.Collect(tile.Nibbles(t))
	out := make([]uint8, len(px))
	for i, p := range px {
		dx, dy := i%dim, i/dim
		if x {
			dx = dim - 1 - dx
		}
		if y {
			dy = dim - 1 - dy
		}
		out[dy*dim+dx] = p
	}
	return tile.Pack(out)
}

func TestNibbles(t *testing.T) {
	seq := tile.Nibbles([]byte{0x21, 0x43, 0xf0})
	assert.Equal(t, []uint8{1, 2, 3, 4, 0, 15}, slices.Collect(seq))
	// Restartable
	assert.Equal(t, []uint8{1, 2, 3, 4, 0, 15}, slices.Collect(seq))

	var first []uint8
	for p := range seq {
		first = append(first, p)
		if len(first) == 3 {
			break
		}
	}
	assert.Equal(t, []uint8{1, 2, 3}, first)
}

func TestPixels(t *testing.T) {
	b := []byte{0x21, 0x43}
	assert.Len(t, slices.Collect(tile.Pixels(b, tile.Depth4)), 4)
	assert.Equal(t, []uint8{0x21, 0x43}, slices.Collect(tile.Pixels(b, tile.Depth8)))
	assert.Equal(t, b, tile.Pack(slices.Collect(tile.Nibbles(b))))
}

func TestSize(t *testing.T) {
	assert.Equal(t, 32, tile.Size(8, tile.Depth4))
	assert.Equal(t, 64, tile.Size(8, tile.Depth8))
	assert.True(t, tile.Depth4.Valid())
	assert.False(t, tile.Depth(2).Valid())
	assert.Equal(t, "4bpp", tile.Depth4.String())
}

func TestSplitJoin(t *testing.T) {
	data := make([]byte, 96)
	for i := range data {
		data[i] = byte(i)
	}

	tiles, err := tile.Split(data, 8, tile.Depth4)
	require.NoError(t, err)
	require.Len(t, tiles, 3)
	assert.Equal(t, byte(32), tiles[1][0])
	assert.Equal(t, data, tile.Join(tiles))

	_, err = tile.Split(data[:95], 8, tile.Depth4)
	assert.ErrorIs(t, err, tile.ErrTileSize)

	tiles, err = tile.Split(data, 8, tile.Depth8)
	require.Error(t, err)
	assert.Nil(t, tiles)
}

func TestFlipMatchesNaive(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, dim := range []int{2, 4, 8, 16} {
		for i := 0; i < 50; i++ {
			in := randomTile(r, dim, tile.Depth4)
			orig := append([]byte(nil), in...)

			assert.Equal(t, naiveFlip(in, dim, true, false), tile.FlipHorizontal(in, dim))
			assert.Equal(t, naiveFlip(in, dim, false, true), tile.FlipVertical(in, dim))
			assert.Equal(t, naiveFlip(in, dim, true, true), tile.Flip(in, dim, tile.Depth4, true, true))
			assert.Equal(t, orig, in, "input modified")
		}
	}
}

func TestFlipInvolution(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		in := randomTile(r, 8, tile.Depth4)
		assert.Equal(t, in, tile.FlipHorizontal(tile.FlipHorizontal(in, 8), 8))
		assert.Equal(t, in, tile.FlipVertical(tile.FlipVertical(in, 8), 8))

		in8 := randomTile(r, 8, tile.Depth8)
		for _, f := range [][2]bool{{true, false}, {false, true}, {true, true}} {
			flipped := tile.Flip(in8, 8, tile.Depth8, f[0], f[1])
			assert.Equal(t, in8, tile.Flip(flipped, 8, tile.Depth8, f[0], f[1]))
		}
	}
}

func TestFlipExample(t *testing.T) {
	// A 2x2 tile: pixels 1 2 / 3 4
	in := []byte{0x21, 0x43}
	assert.Equal(t, []byte{0x12, 0x34}, tile.FlipHorizontal(in, 2))
	assert.Equal(t, []byte{0x43, 0x21}, tile.FlipVertical(in, 2))
	assert.Equal(t, in, tile.Flip(in, 2, tile.Depth4, false, false))
}

func TestChecksum(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	in := randomTile(r, 8, tile.Depth4)
	sum := tile.Checksum(in, tile.Depth4)
	assert.Equal(t, sum, tile.Checksum(tile.FlipHorizontal(in, 8), tile.Depth4))
	assert.Equal(t, sum, tile.Checksum(tile.FlipVertical(in, 8), tile.Depth4))
	assert.Equal(t, 1+2+3+4, tile.Checksum([]byte{0x21, 0x43}, tile.Depth4))
	assert.Equal(t, 0x21+0x43, tile.Checksum([]byte{0x21, 0x43}, tile.Depth8))
}

func TestShiftPalette(t *testing.T) {
	px := []uint8{0, 1, 15}
	assert.Equal(t, []uint8{32, 33, 47}, tile.ShiftPalette(px, 2))
	assert.Equal(t, []uint8{0, 1, 15}, px)
	assert.Equal(t, px, tile.ShiftPalette(px, 0))
}
