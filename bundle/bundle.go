/*
Package bundle implements a small container for the output of the tiled
codec so that it can be stored and converted back later.

A bundle is a 32 byte little endian header followed by a payload made up of
the tile data, the flat palette and the packed tilemap, in that order. The
payload can optionally be compressed with zstd. The header carries a CRC of
the uncompressed payload.
*/
package bundle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bodgit/tiled"
	"github.com/bodgit/tiled/crc32"
	"github.com/bodgit/tiled/tile"
	"github.com/bodgit/tiled/tilemap"
	"github.com/klauspost/compress/zstd"
)

const (
	// Ext is the expected file extension used when writing to disk
	Ext = ".tls"

	version  = 1
	flagZstd = 1 << 0
)

var magic = [4]byte{'T', 'L', 'S', 'T'}

var (
	// ErrBadMagic is returned when the data is not a bundle
	ErrBadMagic = errors.New("bundle: bad magic")
	// ErrVersion is returned for bundles written by a newer version
	ErrVersion = errors.New("bundle: unsupported version")
	// ErrChecksum is returned when the payload is corrupt
	ErrChecksum = errors.New("bundle: checksum mismatch")
	// ErrTruncated is returned when the payload is shorter than the
	// header describes
	ErrTruncated = errors.New("bundle: truncated")
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

type header struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	TileDim  uint8
	Depth    uint8
	Width    uint16
	Height   uint16
	ChunkDim uint8
	_        uint8
	Tiles    uint16
	Entries  uint32
	Palette  uint32
	Payload  uint32
	CRC      uint32
}

// Bundle holds tiles, a palette and a tilemap along with the geometry needed
// to turn them back into an image. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Bundle struct {
	TileDim  int
	Depth    tile.Depth
	Width    int
	Height   int
	ChunkDim int

	Tiles   [][]byte
	Palette []byte
	Tilemap []tilemap.Entry

	// Compress the payload when marshalling
	Compress bool
}

// New returns a bundle holding the result of a conversion made with cfg.
func New(cfg tiled.Config, t *tiled.TiledImage) *Bundle {
	return &Bundle{
		TileDim:  cfg.TileDim,
		Depth:    tile.Depth4,
		Width:    cfg.Width,
		Height:   cfg.Height,
		ChunkDim: cfg.ChunkDim,
		Tiles:    t.Tiles,
		Palette:  t.Palette,
		Tilemap:  t.Tilemap,
	}
}

// Config returns a codec configuration matching the bundle's geometry.
func (b *Bundle) Config() tiled.Config {
	return tiled.Config{
		TileDim:           b.TileDim,
		Width:             b.Width,
		Height:            b.Height,
		ChunkDim:          b.ChunkDim,
		SinglePaletteSize: tile.ColorsPerPalette,
	}
}

// TiledImage returns the bundle contents.
func (b *Bundle) TiledImage() *tiled.TiledImage {
	return &tiled.TiledImage{
		Tiles:   b.Tiles,
		Palette: b.Palette,
		Tilemap: b.Tilemap,
	}
}

func (b *Bundle) header() (header, error) {
	h := header{
		Magic:    magic,
		Version:  version,
		TileDim:  uint8(b.TileDim),
		Depth:    uint8(b.Depth),
		Width:    uint16(b.Width),
		Height:   uint16(b.Height),
		ChunkDim: uint8(b.ChunkDim),
		Tiles:    uint16(len(b.Tiles)),
		Entries:  uint32(len(b.Tilemap)),
		Palette:  uint32(len(b.Palette)),
	}

	switch {
	case b.TileDim <= 0 || b.TileDim > math.MaxUint8, b.ChunkDim <= 0 || b.ChunkDim > math.MaxUint8:
		return h, fmt.Errorf("bundle: tile dimension %d or chunk dimension %d out of range", b.TileDim, b.ChunkDim)
	case b.Width <= 0 || b.Width > math.MaxUint16, b.Height <= 0 || b.Height > math.MaxUint16:
		return h, fmt.Errorf("bundle: image dimensions %dx%d out of range", b.Width, b.Height)
	case !b.Depth.Valid():
		return h, fmt.Errorf("bundle: unsupported depth %v", b.Depth)
	case len(b.Tiles) > math.MaxUint16:
		return h, fmt.Errorf("bundle: more than %d tiles", math.MaxUint16)
	}

	size := tile.Size(b.TileDim, b.Depth)
	for i, t := range b.Tiles {
		if len(t) != size {
			return h, fmt.Errorf("bundle: tile %d: %w", i, tile.ErrTileSize)
		}
	}

	return h, nil
}

// MarshalBinary encodes the bundle into binary form and returns the result.
func (b *Bundle) MarshalBinary() ([]byte, error) {
	h, err := b.header()
	if err != nil {
		return nil, err
	}

	entries, err := tilemap.Marshal(b.Tilemap)
	if err != nil {
		return nil, err
	}

	payload := tile.Join(b.Tiles)
	payload = append(payload, b.Palette...)
	payload = append(payload, entries...)

	h.CRC = crc32.Checksum(payload)

	if b.Compress {
		h.Flags |= flagZstd
		payload = encoder.EncodeAll(payload, nil)
	}
	h.Payload = uint32(len(payload))

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if _, err := buf.Write(payload); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the bundle from binary form.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}

	if h.Magic != magic {
		return ErrBadMagic
	}
	if h.Version > version {
		return ErrVersion
	}

	if r.Len() < int(h.Payload) {
		return ErrTruncated
	}
	payload := make([]byte, h.Payload)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	if h.Flags&flagZstd != 0 {
		var err error
		if payload, err = decoder.DecodeAll(payload, nil); err != nil {
			return fmt.Errorf("bundle: %w", err)
		}
	}

	if crc32.Checksum(payload) != h.CRC {
		return ErrChecksum
	}

	depth := tile.Depth(h.Depth)
	if !depth.Valid() {
		return fmt.Errorf("bundle: unsupported depth %v", depth)
	}

	tileBytes := int(h.Tiles) * tile.Size(int(h.TileDim), depth)
	if len(payload) != tileBytes+int(h.Palette)+int(h.Entries)<<1 {
		return ErrTruncated
	}

	tiles, err := tile.Split(payload[:tileBytes], int(h.TileDim), depth)
	if err != nil {
		return err
	}
	entries, err := tilemap.Unmarshal(payload[tileBytes+int(h.Palette):])
	if err != nil {
		return err
	}

	*b = Bundle{
		TileDim:  int(h.TileDim),
		Depth:    depth,
		Width:    int(h.Width),
		Height:   int(h.Height),
		ChunkDim: int(h.ChunkDim),
		Tiles:    tiles,
		Palette:  payload[tileBytes : tileBytes+int(h.Palette)],
		Tilemap:  entries,
		Compress: h.Flags&flagZstd != 0,
	}

	return nil
}
