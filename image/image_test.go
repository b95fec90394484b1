package image_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/tiled"
	timage "github.com/bodgit/tiled/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), uint8(x * y), 0xff})
		}
	}
	return m
}

func TestFromImagePaletted(t *testing.T) {
	p := color.Palette{
		color.RGBA{0x10, 0x20, 0x30, 0xff},
		color.RGBA{0x40, 0x50, 0x60, 0xff},
	}
	m := image.NewPaletted(image.Rect(4, 4, 12, 12), p)
	m.SetColorIndex(5, 4, 1)

	img, err := timage.FromImage(m, timage.Options{})
	require.NoError(t, err)

	assert.Equal(t, 8, img.Raster.Width)
	assert.Equal(t, 8, img.Raster.Height)
	assert.Equal(t, uint8(1), img.Raster.Pix[1])
	assert.Len(t, img.Palette, 16*3)
	assert.Equal(t, []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60}, img.Palette[:6])
}

func TestFromImageQuantized(t *testing.T) {
	for _, dither := range []bool{false, true} {
		img, err := timage.FromImage(gradient(16, 16), timage.Options{Palettes: 1, Dither: dither})
		require.NoError(t, err)

		assert.Len(t, img.Palette, 16*3)
		for _, p := range img.Raster.Pix {
			assert.Less(t, p, uint8(16))
		}
	}
}

// twoTiles returns a 16x8 image with 16 shades of red in the left tile and
// 16 shades of blue in the right tile.
func twoTiles() *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8((y*8+x)%16*16 + 15)
			m.Set(x, y, color.RGBA{v, 0, 0, 0xff})
			m.Set(x+8, y, color.RGBA{0, 0, v, 0xff})
		}
	}
	return m
}

func TestFromImageSubPalettes(t *testing.T) {
	m := twoTiles()

	img, err := timage.FromImage(m, timage.Options{})
	require.NoError(t, err)
	require.Len(t, img.Palette, 32*3)

	p, err := timage.DecodePalette(img.Palette)
	require.NoError(t, err)

	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			i := img.Raster.Pix[y*16+x]
			assert.Equal(t, x/8, int(i)/16, "pixel %dx%d", x, y)
			assert.Equal(t, m.At(x, y), p[i], "pixel %dx%d", x, y)
		}
	}

	c, err := tiled.New(tiled.Config{
		TileDim:           8,
		Width:             16,
		Height:            8,
		ChunkDim:          1,
		SinglePaletteSize: 16,
	}, nil)
	require.NoError(t, err)

	out, err := c.ToTiled(img)
	require.NoError(t, err)
	require.Len(t, out.Tilemap, 2)
	assert.Equal(t, 0, out.Tilemap[0].Palette)
	assert.Equal(t, 1, out.Tilemap[1].Palette)

	back, err := c.ToNative(tiled.Entries(out.Tilemap), out.Tiles, 4, out.Palette)
	require.NoError(t, err)
	assert.Equal(t, img.Raster.Pix, back.Raster.Pix)
}

func TestFromImageLimitedPalettes(t *testing.T) {
	img, err := timage.FromImage(twoTiles(), timage.Options{Palettes: 1})
	require.NoError(t, err)

	assert.Len(t, img.Palette, 16*3)
	for _, p := range img.Raster.Pix {
		assert.Less(t, p, uint8(16))
	}
}

func TestFromImagePalettedLayout(t *testing.T) {
	p := make(color.Palette, 32)
	for i := range p {
		p[i] = color.RGBA{uint8(i * 8), 0, 0, 0xff}
	}

	// Already one sub-palette per tile
	m := image.NewPaletted(image.Rect(0, 0, 16, 8), p)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.SetColorIndex(x, y, uint8(x))
			m.SetColorIndex(x+8, y, uint8(16+y))
		}
	}

	img, err := timage.FromImage(m, timage.Options{})
	require.NoError(t, err)
	assert.Equal(t, m.Pix, img.Raster.Pix)
	assert.Len(t, img.Palette, 32*3)

	// Mixing sub-palettes within a tile gets repacked
	m = image.NewPaletted(image.Rect(0, 0, 8, 8), p)
	m.SetColorIndex(3, 3, 17)

	img, err = timage.FromImage(m, timage.Options{})
	require.NoError(t, err)
	require.Len(t, img.Palette, 16*3)

	decoded, err := timage.DecodePalette(img.Palette)
	require.NoError(t, err)
	assert.Equal(t, p[0], decoded[img.Raster.Pix[0]])
	assert.Equal(t, p[17], decoded[img.Raster.Pix[3*8+3]])
}

func TestToImage(t *testing.T) {
	r := tiled.NewRaster(2, 1)
	r.Pix[1] = 1
	img := &tiled.IndexedImage{Raster: *r, Palette: []byte{1, 2, 3, 4, 5, 6}}

	m, err := timage.ToImage(img)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), m.Bounds())
	assert.Equal(t, color.RGBA{4, 5, 6, 0xff}, m.At(1, 0))
	assert.Len(t, m.Palette, 256)

	_, err = timage.ToImage(&tiled.IndexedImage{Raster: *r, Palette: []byte{1, 2}})
	assert.Error(t, err)
}

func TestPalette(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5, 6}
	p, err := timage.DecodePalette(b)
	require.NoError(t, err)
	assert.Equal(t, b, timage.EncodePalette(p))

	_, err = timage.DecodePalette(b[:4])
	assert.Error(t, err)

	flat := make([]byte, 48*2+3)
	subs := timage.SubPalettes(flat)
	require.Len(t, subs, 3)
	assert.Len(t, subs[0], 48)
	assert.Len(t, subs[2], 3)
}

func TestEncodeDecode(t *testing.T) {
	img, err := timage.FromImage(gradient(8, 8), timage.Options{})
	require.NoError(t, err)
	m, err := timage.ToImage(img)
	require.NoError(t, err)

	for _, format := range []string{"png", "bmp"} {
		var buf bytes.Buffer
		require.NoError(t, timage.Encode(&buf, m, format))

		decoded, name, err := timage.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, format, name)

		back, err := timage.FromImage(decoded, timage.Options{})
		require.NoError(t, err)
		assert.Equal(t, img.Raster.Pix, back.Raster.Pix)
	}

	assert.Error(t, timage.Encode(&bytes.Buffer{}, m, "tga"))
	assert.Equal(t, "png", timage.FormatFromFilename("out/Screen.PNG"))
}
