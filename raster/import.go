package raster

import (
	"image"
	"image/color"

	"github.com/bodgit/forest/grid"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Anything less than half opaque becomes the sentinel
const alphaThreshold = 0x80

// Map each color in from to the nearest opaque, non-sentinel entry of p
func nearest(from color.Palette, p color.Palette) []uint8 {
	choices := outputPalette(p)[1:]
	m := make([]uint8, len(from))
	for i, c := range from {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = 0xff
		m[i] = uint8(choices.Index(n) + 1)
	}
	return m
}

// Import converts an arbitrary image into a grid. The image is scaled to
// side by side pixels, its colors are reduced with a median cut quantizer
// and each resulting color is replaced with the closest palette entry.
func Import(m image.Image, side int, p color.Palette) (*grid.Grid, error) {
	g, err := grid.New(side, p)
	if err != nil {
		return nil, err
	}

	b := m.Bounds()
	if b.Empty() {
		return nil, ErrBadDimensions
	}

	// Only the sentinel available, nothing to paint with
	if len(p) < 2 {
		return g, nil
	}

	small := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), m, b, draw.Src, nil)

	q := quantize.MedianCutQuantizer{}
	reps := q.Quantize(make(color.Palette, 0, len(p)-1), small)
	mapping := nearest(reps, p)

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			c := small.NRGBAAt(x, y)
			if c.A < alphaThreshold {
				continue
			}
			var ci uint8
			if len(reps) > 0 {
				ci = mapping[reps.Index(c)]
			} else {
				ci = nearest(color.Palette{c}, p)[0]
			}
			if err := g.SetIndex(y*side+x, ci); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
