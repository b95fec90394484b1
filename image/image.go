/*
Package image converts between the standard library image types and the
indexed images used by the tiled codec.

Every tile of the result only uses colors from one 16 color sub-palette.
Paletted images already laid out that way are used as is. Otherwise the colors
of each tile are merged down to 16 and the tile palettes are packed into as
few sub-palettes as possible. If that needs too many sub-palettes the image is
reduced to fewer colors first, either with a median cut quantizer or, when
dithering is requested, with a Floyd-Steinberg ditherer.
*/
package image

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	"github.com/bodgit/tiled"
	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/esimov/colorquant"
)

const (
	maxColors      = 256
	defaultTileDim = 8
)

var errTooManyColors = errors.New("image: too many colors")

// Options control how images are fitted to sub-palettes.
type Options struct {
	// TileDim is the size of the tiles colors are grouped by, 8 if zero
	TileDim int
	// Palettes is the maximum number of 16 color sub-palettes, 16 if zero
	Palettes int
	// Dither enables error diffusion when reducing colors
	Dither bool
}

func (o Options) withDefaults() Options {
	if o.TileDim <= 0 {
		o.TileDim = defaultTileDim
	}
	if o.Palettes <= 0 || o.Palettes > tilemap.MaxPalette+1 {
		o.Palettes = tilemap.MaxPalette + 1
	}
	return o
}

var floydSteinberg = colorquant.Dither{
	[][]float32{
		{0.0, 0.0, 0.0, 7.0 / 48.0, 5.0 / 48.0},
		{3.0 / 48.0, 5.0 / 48.0, 7.0 / 48.0, 5.0 / 48.0, 3.0 / 48.0},
		{1.0 / 48.0, 3.0 / 48.0, 5.0 / 48.0, 3.0 / 48.0, 1.0 / 48.0},
	},
}

// compact rebuilds m using only the colors that actually appear in it, in
// order of first appearance.
func compact(m image.Image, limit int) (*image.Paletted, error) {
	b := m.Bounds()
	var p color.Palette
	index := make(map[color.Color]uint8)
	pm := image.NewPaletted(b, nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(m.At(x, y))
			i, ok := index[c]
			if !ok {
				if len(p) == limit {
					return nil, errTooManyColors
				}
				i = uint8(len(p))
				index[c] = i
				p = append(p, c)
			}
			pm.SetColorIndex(x, y, i)
		}
	}
	pm.Palette = p
	return pm, nil
}

// reduceColors returns m reduced to no more than n colors.
func reduceColors(m image.Image, n int, dither bool) *image.Paletted {
	b := m.Bounds()
	if dither {
		dst := image.NewPaletted(b, palette.WebSafe)
		dithered := floydSteinberg.Quantize(m, dst, n, true, true)
		if pm, err := compact(dithered, n); err == nil {
			return pm
		}
		// Snapping to the web safe palette can leave too many colors
		m = dithered
	}
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// reduce fits m into sub-palettes, first with its own colors and then with
// fewer and fewer colors until the tiles can be packed.
func reduce(m image.Image, pm *image.Paletted, opts Options) (*image.Paletted, error) {
	limit := opts.Palettes * tile.ColorsPerPalette

	if pm == nil {
		pm, _ = compact(m, limit)
	}
	if pm != nil {
		if packed, ok := pack(pm, opts.TileDim, opts.Palettes); ok {
			return packed, nil
		}
	}

	// A single sub-palette always fits so this loop cannot fall through
	for n := limit; n >= tile.ColorsPerPalette; n -= tile.ColorsPerPalette {
		if packed, ok := pack(reduceColors(m, n, opts.Dither), opts.TileDim, opts.Palettes); ok {
			return packed, nil
		}
	}

	return nil, errTooManyColors
}

// Paletted returns m as a paletted image with its top-left corner at (0, 0)
// where every tile only uses colors from one 16 color sub-palette. Paletted
// images that are already laid out that way are used as is.
func Paletted(m image.Image, opts Options) (*image.Paletted, error) {
	opts = opts.withDefaults()

	b := m.Bounds()
	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}

	if pm == nil || len(pm.Palette) > maxColors || !aligned(pm, opts.TileDim) {
		var err error
		if pm, err = reduce(m, pm, opts); err != nil {
			return nil, err
		}
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return pm, nil
}

// FromImage converts m into an indexed image for the tiled codec.
func FromImage(m image.Image, opts Options) (*tiled.IndexedImage, error) {
	pm, err := Paletted(m, opts)
	if err != nil {
		return nil, err
	}

	b := pm.Bounds()
	r := tiled.NewRaster(b.Dx(), b.Dy())
	for y := 0; y < r.Height; y++ {
		copy(r.Pix[y*r.Width:(y+1)*r.Width], pm.Pix[y*pm.Stride:])
	}

	return &tiled.IndexedImage{
		Raster:  *r,
		Palette: EncodePalette(padPalette(pm.Palette)),
	}, nil
}

// ToImage converts an indexed image back into a paletted image.
func ToImage(img *tiled.IndexedImage) (*image.Paletted, error) {
	p, err := DecodePalette(img.Palette)
	if err != nil {
		return nil, err
	}

	// Every index must resolve to a color
	if len(p) > maxColors {
		p = p[:maxColors]
	}
	for len(p) < maxColors {
		p = append(p, color.RGBA{0, 0, 0, 0xff})
	}

	r := &img.Raster
	pm := image.NewPaletted(image.Rect(0, 0, r.Width, r.Height), p)
	copy(pm.Pix, r.Pix)
	return pm, nil
}
