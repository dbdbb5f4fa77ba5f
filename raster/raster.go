/*
Package raster implements the encoder and decoder between a palette grid and
the PNG bitmap a plant is stored and transmitted as.

Each logical cell is drawn as a solid square of scale by scale pixels, so a
16 by 16 grid at the default scale of 10 becomes a 160 by 160 image. Palette
index 0 is written fully transparent and every other entry fully opaque with
its exact color; there is no blending between cells. The PNG is written with
an indexed palette, a tRNS chunk for the transparent entry and no ancillary
metadata, and the same grid always produces the same bytes.

For transport the PNG is carried as standard base64 text without any
"data:image/png;base64," prefix.
*/
package raster

import (
	"errors"
	"image/color"
)

const (
	// DefaultScale is the number of pixels along each edge of one cell
	DefaultScale = 10

	maxPalette   = 256
	maxDimension = 1 << 14
)

var (
	// ErrInvalidGrid is returned when a grid has no cells, the wrong number
	// of cells or a cell that does not index the palette
	ErrInvalidGrid = errors.New("raster: invalid grid")

	// ErrInvalidScale is returned for a scale below 1 or one that makes the
	// image unreasonably large
	ErrInvalidScale = errors.New("raster: invalid scale")

	// ErrEncodingUnavailable is returned when the PNG encoder could not
	// produce an image. It is not worth retrying.
	ErrEncodingUnavailable = errors.New("raster: encoding unavailable")

	// ErrBadDimensions is returned when a bitmap is not a square multiple of
	// the grid side
	ErrBadDimensions = errors.New("raster: image has wrong dimensions")

	// ErrNotUniform is returned when the pixels of one cell differ
	ErrNotUniform = errors.New("raster: cell is not a uniform color")

	// ErrNotInPalette is returned when a cell color is not in the palette
	ErrNotInPalette = errors.New("raster: color not in palette")
)

// Grid is the read-only view of a palette grid needed to encode it.
// *grid.Grid implements it.
type Grid interface {
	Side() int
	Palette() color.Palette
	Cells() []uint8
}

// outputPalette returns p with the first entry fully transparent and every
// other entry forced fully opaque
func outputPalette(p color.Palette) color.Palette {
	out := make(color.Palette, len(p))
	out[0] = color.NRGBA{}
	for i := 1; i < len(p); i++ {
		c := color.NRGBAModel.Convert(p[i]).(color.NRGBA)
		c.A = 0xff
		out[i] = c
	}
	return out
}
