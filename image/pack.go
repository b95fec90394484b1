package image

import (
	"image"
	"image/color"
	"maps"
	"slices"
	"sort"

	"github.com/bodgit/tiled/tile"
)

type paletteMap struct {
	colors []uint8
	tiles  []int
}

type byPaletteSize []paletteMap

func (p byPaletteSize) Len() int {
	return len(p)
}

func (p byPaletteSize) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func (p byPaletteSize) Less(i, j int) bool {
	return len(p[i].colors) < len(p[j].colors)
}

// tileRects returns the bounds of each tile in b, row by row. Tiles on the
// right and bottom edges are clipped to b.
func tileRects(b image.Rectangle, dim int) []image.Rectangle {
	var rects []image.Rectangle
	for y := b.Min.Y; y < b.Max.Y; y += dim {
		for x := b.Min.X; x < b.Max.X; x += dim {
			rects = append(rects, image.Rect(x, y, x+dim, y+dim).Intersect(b))
		}
	}
	return rects
}

func countIndices(m *image.Paletted, r image.Rectangle) map[uint8]int {
	counts := make(map[uint8]int)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			counts[m.ColorIndexAt(x, y)]++
		}
	}
	return counts
}

func uniqueIndices(m *image.Paletted, r image.Rectangle) []uint8 {
	return slices.Sorted(maps.Keys(countIndices(m, r)))
}

// Copied from color.sqDiff
func sqDiff(x, y uint32) uint32 {
	d := x - y
	return (d * d) >> 2
}

// Return the two closest colors out of the given palette indices
func closestColors(p color.Palette, indices []uint8) (uint8, uint8) {
	var rc1, rc2 uint8
	bestSum := uint32(1<<32 - 1)
	for i, c1 := range indices {
		r1, g1, b1, a1 := p[c1].RGBA()
		for _, c2 := range indices[i+1:] {
			r2, g2, b2, a2 := p[c2].RGBA()
			sum := sqDiff(r1, r2) + sqDiff(g1, g2) + sqDiff(b1, b2) + sqDiff(a1, a2)
			if sum < bestSum {
				bestSum, rc1, rc2 = sum, c1, c2
			}
		}
	}
	return rc1, rc2
}

// Replace all occurrences of one color index in an image with another
func replaceIndex(m *image.Paletted, o, n uint8) {
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.ColorIndexAt(x, y) == o {
				m.SetColorIndex(x, y, n)
			}
		}
	}
}

// Colors in p2 but not in p1
func paletteDifference(p1, p2 []uint8) (d []uint8) {
	for _, c := range p2 {
		if !slices.Contains(p1, c) {
			d = append(d, c)
		}
	}
	return
}

// Variation of bin-packing problem; maxPalettes number of bins each with
// capacity of tile.ColorsPerPalette. Based on First Fit Decreasing algorithm;
// relies on the incoming palettes being sorted in decreasing size
func packPalettes(in []paletteMap, maxPalettes int) ([]paletteMap, bool) {
	var out []paletteMap
next:
	for _, p := range in {
		for i := range out {
			// Either the candidate palette is a subset or the
			// difference can fit in the current palette
			d := paletteDifference(out[i].colors, p.colors)
			if len(d)+len(out[i].colors) <= tile.ColorsPerPalette {
				out[i].colors = append(out[i].colors, d...)
				out[i].tiles = append(out[i].tiles, p.tiles...)
				continue next
			}
		}
		// Last resort, start a new bin (palette)
		if len(out) == maxPalettes {
			return nil, false
		}
		out = append(out, paletteMap{
			colors: slices.Clone(p.colors),
			tiles:  slices.Clone(p.tiles),
		})
	}
	return out, true
}

// aligned reports whether every tile of m only uses colors from one
// sub-palette, so m can be used without repacking.
func aligned(m *image.Paletted, dim int) bool {
	for _, r := range tileRects(m.Bounds(), dim) {
		first := m.ColorIndexAt(r.Min.X, r.Min.Y) / tile.ColorsPerPalette
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if m.ColorIndexAt(x, y)/tile.ColorsPerPalette != first {
					return false
				}
			}
		}
	}
	return true
}

// pack rebuilds m so that each tile of dim by dim pixels only uses colors
// from one 16 color sub-palette, using no more than maxPalettes of them. Tiles
// with too many colors have their closest colors merged first.
func pack(m *image.Paletted, dim, maxPalettes int) (*image.Paletted, bool) {
	b := m.Bounds()

	// Create a copy of the image
	dup := image.NewPaletted(b, m.Palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		copy(dup.Pix[dup.PixOffset(b.Min.X, y):dup.PixOffset(b.Max.X, y)], m.Pix[m.PixOffset(b.Min.X, y):])
	}

	// Map of colors to frequency of occurrence
	global := countIndices(dup, b)

	rects := tileRects(b, dim)

	// Reduce the number of colors per tile to no more than 16
	for _, r := range rects {
		p := uniqueIndices(dup, r)
		for len(p) > tile.ColorsPerPalette {
			c1, c2 := closestColors(dup.Palette, p)

			// Keep whichever color appears more frequently in the
			// image and replace any occurrence of the other color
			keep, drop := c2, c1
			if global[c1] > global[c2] {
				keep, drop = c1, c2
			}
			replaceIndex(dup, drop, keep)

			global[keep] += global[drop]
			delete(global, drop)
			p = slices.DeleteFunc(p, func(c uint8) bool { return c == drop })
		}
	}

	palettes := make([]paletteMap, 0, len(rects))
	for i, r := range rects {
		palettes = append(palettes, paletteMap{
			colors: uniqueIndices(dup, r),
			tiles:  []int{i},
		})
	}

	// Sort with biggest palettes first
	sort.Stable(sort.Reverse(byPaletteSize(palettes)))

	packed, ok := packPalettes(palettes, maxPalettes)
	if !ok {
		return nil, false
	}

	var palette color.Palette
	lookup := make([][maxColors]uint8, len(packed))
	bins := make([]int, len(rects))
	for i, p := range packed {
		for j, c := range p.colors {
			lookup[i][c] = uint8(len(palette) + j)
		}
		for _, c := range p.colors {
			palette = append(palette, dup.Palette[c])
		}
		palette = padPalette(palette)
		for _, t := range p.tiles {
			bins[t] = i
		}
	}

	out := image.NewPaletted(b, palette)
	for i, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				out.SetColorIndex(x, y, lookup[bins[i]][dup.ColorIndexAt(x, y)])
			}
		}
	}

	return out, true
}
