package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

const dataURLPrefix = "data:image/png;base64,"

type encoder struct {
	w     io.Writer
	scale int
}

func validate(g Grid, scale int) error {
	if g == nil {
		return ErrInvalidGrid
	}
	side := g.Side()
	if side <= 0 || side > maxDimension {
		return ErrInvalidGrid
	}
	// Divide rather than multiply so a huge scale cannot wrap
	if scale < 1 || scale > maxDimension/side {
		return ErrInvalidScale
	}
	p := g.Palette()
	if len(p) == 0 || len(p) > maxPalette {
		return ErrInvalidGrid
	}
	cells := g.Cells()
	if len(cells) != side*side {
		return ErrInvalidGrid
	}
	for _, c := range cells {
		if int(c) >= len(p) {
			return ErrInvalidGrid
		}
	}
	return nil
}

func (e *encoder) canvas(g Grid) *image.Paletted {
	side, cells := g.Side(), g.Cells()
	n := side * e.scale

	m := image.NewPaletted(image.Rect(0, 0, n, n), outputPalette(g.Palette()))
	for y := 0; y < n; y++ {
		row := cells[y/e.scale*side : y/e.scale*side+side]
		pix := m.Pix[y*m.Stride : y*m.Stride+n]
		for x := range pix {
			pix[x] = row[x/e.scale]
		}
	}
	return m
}

func (e *encoder) encode(g Grid) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(e.w, e.canvas(g)); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingUnavailable, err)
	}
	return nil
}

// Encode writes g to w as a PNG with each cell drawn as a scale by scale
// square.
func Encode(w io.Writer, g Grid, scale int) error {
	if err := validate(g, scale); err != nil {
		return err
	}

	e := encoder{w: w, scale: scale}

	return e.encode(g)
}

// EncodeToBytes returns the PNG encoding of g
func EncodeToBytes(g Grid, scale int) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, g, scale); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// EncodeToString returns the PNG encoding of g as base64 text ready to be
// submitted
func EncodeToString(g Grid, scale int) (string, error) {
	b, err := EncodeToBytes(g, scale)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// StripDataURL removes a leading PNG data URL prefix, if present, and any
// surrounding whitespace
func StripDataURL(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), dataURLPrefix)
}

// DataURL returns the base64 text with the data URL prefix used for display
func DataURL(s string) string {
	return dataURLPrefix + StripDataURL(s)
}
