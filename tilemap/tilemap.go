/*
Package tilemap implements the 16-bit tilemap entry used to place tiles on
screen.

Each entry is packed as:

	FEDC BA98 7654 3210
	PPPP YXII IIII IIII

where I is the tile index, X and Y are the horizontal and vertical flip flags
and P selects one of up to sixteen sub-palettes. Entries are stored little
endian.
*/
package tilemap

import (
	"encoding/binary"
	"errors"
)

const (
	// MaxIndex is the largest tile index an entry can address
	MaxIndex = 0x3ff
	// MaxPalette is the largest sub-palette index an entry can select
	MaxPalette = 0xf

	indexMask    = 0x03ff
	flipX        = 1 << 10
	flipY        = 1 << 11
	paletteShift = 12
)

var (
	// ErrOutOfRange is returned when an entry cannot be packed into 16 bits
	ErrOutOfRange = errors.New("tilemap: entry out of range")
	// ErrShortBuffer is returned when a packed buffer has an odd length
	ErrShortBuffer = errors.New("tilemap: short buffer")
)

// Entry references a tile along with how it should be drawn.
type Entry struct {
	Index   int
	FlipX   bool
	FlipY   bool
	Palette int
}

// Valid reports whether e can be encoded without loss.
func (e Entry) Valid() bool {
	return e.Index >= 0 && e.Index <= MaxIndex && e.Palette >= 0 && e.Palette <= MaxPalette
}

// Encode packs e into its 16-bit form.
func (e Entry) Encode() (uint16, error) {
	if !e.Valid() {
		return 0, ErrOutOfRange
	}
	v := uint16(e.Index) | uint16(e.Palette)<<paletteShift
	if e.FlipX {
		v |= flipX
	}
	if e.FlipY {
		v |= flipY
	}
	return v, nil
}

// Decode unpacks a 16-bit entry. Every value is a valid entry.
func Decode(v uint16) Entry {
	return Entry{
		Index:   int(v & indexMask),
		FlipX:   v&flipX != 0,
		FlipY:   v&flipY != 0,
		Palette: int(v >> paletteShift),
	}
}

// Marshal packs entries into a little endian buffer.
func Marshal(entries []Entry) ([]byte, error) {
	b := make([]byte, len(entries)<<1)
	for i, e := range entries {
		v, err := e.Encode()
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint16(b[i<<1:], v)
	}
	return b, nil
}

// Unmarshal unpacks a little endian buffer of entries.
func Unmarshal(b []byte) ([]Entry, error) {
	if len(b)&1 != 0 {
		return nil, ErrShortBuffer
	}
	entries := make([]Entry, len(b)>>1)
	for i := range entries {
		entries[i] = Decode(binary.LittleEndian.Uint16(b[i<<1:]))
	}
	return entries, nil
}

// SearchChunk looks for chunk amongst entries, which are treated as a list of
// consecutive chunks of len(chunk) entries each. It returns the chunk number
// of the first match.
func SearchChunk(chunk, entries []Entry) (int, bool) {
	n := len(chunk)
	if n == 0 {
		return 0, false
	}
	for i := 0; i+n <= len(entries); i += n {
		if equal(chunk, entries[i:i+n]) {
			return i / n, true
		}
	}
	return 0, false
}

func equal(a, b []Entry) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
