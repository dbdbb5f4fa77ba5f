package raster

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/bodgit/forest/grid"
)

type decoder struct {
	side    int
	palette color.Palette

	// The palette as it is written, used for matching decoded pixels
	output color.Palette

	image image.Image
	grid  *grid.Grid
}

func normalize(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return color.NRGBA{}
	}
	return n
}

func (d *decoder) index(c color.NRGBA) (uint8, error) {
	if c.A == 0 {
		return grid.Sentinel, nil
	}
	for i := 1; i < len(d.output); i++ {
		if d.output[i] == c {
			return uint8(i), nil
		}
	}
	return 0, ErrNotInPalette
}

func (d *decoder) decodeCells() error {
	b := d.image.Bounds()
	if b.Dx() == 0 || b.Dx() != b.Dy() || b.Dx()%d.side != 0 {
		return ErrBadDimensions
	}
	scale := b.Dx() / d.side

	for r := 0; r < d.side; r++ {
		for c := 0; c < d.side; c++ {
			x0, y0 := b.Min.X+c*scale, b.Min.Y+r*scale
			want := normalize(d.image.At(x0, y0))
			for y := y0; y < y0+scale; y++ {
				for x := x0; x < x0+scale; x++ {
					if normalize(d.image.At(x, y)) != want {
						return ErrNotUniform
					}
				}
			}

			ci, err := d.index(want)
			if err != nil {
				return err
			}
			if err := d.grid.SetIndex(r*d.side+c, ci); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d *decoder) decode(r io.Reader) error {
	var err error
	if d.grid, err = grid.New(d.side, d.palette); err != nil {
		return err
	}
	d.output = outputPalette(d.palette)

	if d.image, err = png.Decode(r); err != nil {
		return err
	}

	return d.decodeCells()
}

// Decode reads a PNG from r that was drawn from a grid with the given side
// and palette and returns that grid. Every cell must cover a square block of
// identical pixels whose color is in the palette, any fully transparent
// pixel is read as the sentinel.
func Decode(r io.Reader, side int, p color.Palette) (*grid.Grid, error) {
	d := decoder{side: side, palette: p}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.grid, nil
}

// DecodeString is like Decode but takes base64 text, with or without a data
// URL prefix
func DecodeString(s string, side int, p color.Palette) (*grid.Grid, error) {
	r := base64.NewDecoder(base64.StdEncoding, strings.NewReader(StripDataURL(s)))
	return Decode(r, side, p)
}
