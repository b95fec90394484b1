package image

import (
	"errors"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

var errUnknownFormat = errors.New("image: unknown output format")

// Decode reads a PNG, GIF, JPEG or BMP image from r.
func Decode(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// FormatFromFilename returns the output format implied by the extension of
// filename.
func FormatFromFilename(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// Encode writes m to w as either "png" or "bmp".
func Encode(w io.Writer, m image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, m)
	case "bmp":
		return bmp.Encode(w, m)
	default:
		return errUnknownFormat
	}
}
