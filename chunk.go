package tiled

import (
	"fmt"
	"iter"
	"slices"

	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
)

// ResolveTiles yields, for each entry, the pixels of the referenced tile
// flipped as requested and shifted into the entry's sub-palette. Entries
// with an invalid tile or sub-palette reference yield nil.
func ResolveTiles(entries []tilemap.Entry, tiles [][]byte, dim int, d tile.Depth) iter.Seq2[int, []uint8] {
	return func(yield func(int, []uint8) bool) {
		for i, e := range entries {
			var px []uint8
			if e.Valid() && e.Index < len(tiles) {
				t := tile.Flip(tiles[e.Index], dim, d, e.FlipX, e.FlipY)
				px = tile.ShiftPalette(slices.Collect(tile.Pixels(t, d)), e.Palette)
			}
			if !yield(i, px) {
				return
			}
		}
	}
}

// ChunkTable groups entries into chunks of chunkDim by chunkDim entries and
// removes duplicate chunks. It returns the unique chunks and, for every chunk
// position, which unique chunk is used there.
func ChunkTable(entries []tilemap.Entry, chunkDim int) ([][]tilemap.Entry, []int, error) {
	n := chunkDim * chunkDim
	if n == 0 || len(entries)%n != 0 {
		return nil, nil, fmt.Errorf("tiled: %d entries do not form chunks of %d", len(entries), n)
	}

	var (
		chunks [][]tilemap.Entry
		flat   []tilemap.Entry
		layout = make([]int, 0, len(entries)/n)
	)
	for i := 0; i < len(entries); i += n {
		chunk := entries[i : i+n]
		j, ok := tilemap.SearchChunk(chunk, flat)
		if !ok {
			chunks = append(chunks, chunk)
			flat = append(flat, chunk...)
			j = len(chunks) - 1
		}
		layout = append(layout, j)
	}
	return chunks, layout, nil
}
