/*
Package grid implements the square, palette indexed drawing surface that a
plant is painted on.

Each cell holds an index into a fixed palette. Index 0 of the palette is
reserved as the empty sentinel and is always treated as fully transparent.
A freshly created or reset grid has every cell set to the sentinel.
*/
package grid

import (
	"errors"
	"image"
	"image/color"
)

const (
	// DefaultSide is the number of cells along each edge of the editor grid
	DefaultSide = 16

	// Sentinel is the palette index of the empty, transparent color
	Sentinel uint8 = 0

	// DefaultColor is the palette index selected when an editor starts,
	// black in the default palette
	DefaultColor uint8 = 2

	maxPalette = 256
)

// Errors returned when a grid is constructed or mutated incorrectly
var (
	ErrInvalidSide    = errors.New("grid: invalid side")
	ErrInvalidPalette = errors.New("grid: invalid palette")
	ErrOutOfBounds    = errors.New("grid: cell index out of bounds")
	ErrNotInPalette   = errors.New("grid: color not in palette")
)

// DefaultPalette is the palette offered by the editor.
var DefaultPalette = color.Palette{
	color.NRGBA{0x00, 0x00, 0x00, 0x00},
	color.NRGBA{0xff, 0xff, 0xff, 0xff},
	color.NRGBA{0x00, 0x00, 0x00, 0xff},
	color.NRGBA{0xff, 0x00, 0x00, 0xff},
	color.NRGBA{0x00, 0xff, 0x00, 0xff},
	color.NRGBA{0x00, 0x00, 0xff, 0xff},
	color.NRGBA{0xff, 0xff, 0x00, 0xff},
	color.NRGBA{0xff, 0x00, 0xff, 0xff},
	color.NRGBA{0x00, 0xff, 0xff, 0xff},
}

// Grid is a square array of palette indices. It implements image.Image at
// its logical resolution of one pixel per cell.
type Grid struct {
	side    int
	cells   []uint8
	palette color.Palette
}

// New returns a grid of side by side cells, all set to the sentinel
func New(side int, p color.Palette) (*Grid, error) {
	if side <= 0 {
		return nil, ErrInvalidSide
	}
	if len(p) == 0 || len(p) > maxPalette {
		return nil, ErrInvalidPalette
	}
	return &Grid{
		side:    side,
		cells:   make([]uint8, side*side),
		palette: append(color.Palette(nil), p...),
	}, nil
}

// NewDefault returns an empty grid using DefaultSide and DefaultPalette
func NewDefault() *Grid {
	g, _ := New(DefaultSide, DefaultPalette)
	return g
}

// Side returns the number of cells along each edge
func (g *Grid) Side() int {
	return g.side
}

// Len returns the total number of cells
func (g *Grid) Len() int {
	return len(g.cells)
}

// Palette returns the grid palette. It must not be modified.
func (g *Grid) Palette() color.Palette {
	return g.palette
}

// Cells returns the cell indices in row-major order. The slice shares the
// grid's storage; callers must go through Set or SetIndex to change it.
func (g *Grid) Cells() []uint8 {
	return g.cells
}

// Index returns the position of c in p if it is an exact member.
func Index(p color.Palette, c color.Color) (uint8, bool) {
	r, gr, b, a := c.RGBA()
	for i, pc := range p {
		pr, pg, pb, pa := pc.RGBA()
		if pr == r && pg == gr && pb == b && pa == a {
			return uint8(i), true
		}
	}
	return 0, false
}

// Set replaces the color of the cell at index i. The color must be an exact
// member of the palette. Setting a cell to the color it already has is a
// no-op.
func (g *Grid) Set(i int, c color.Color) error {
	ci, ok := Index(g.palette, c)
	if !ok {
		return ErrNotInPalette
	}
	return g.SetIndex(i, ci)
}

// SetIndex replaces the palette index of the cell at index i
func (g *Grid) SetIndex(i int, ci uint8) error {
	if i < 0 || i >= len(g.cells) {
		return ErrOutOfBounds
	}
	if int(ci) >= len(g.palette) {
		return ErrNotInPalette
	}
	g.cells[i] = ci
	return nil
}

// IndexAt returns the palette index of the cell at index i
func (g *Grid) IndexAt(i int) uint8 {
	return g.cells[i]
}

// ColorAt returns the palette color of the cell at index i
func (g *Grid) ColorAt(i int) color.Color {
	return g.palette[g.cells[i]]
}

// Reset sets every cell back to the sentinel
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = Sentinel
	}
}

// Empty reports whether every cell is the sentinel
func (g *Grid) Empty() bool {
	for _, c := range g.cells {
		if c != Sentinel {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of g
func (g *Grid) Clone() *Grid {
	return &Grid{
		side:    g.side,
		cells:   append([]uint8(nil), g.cells...),
		palette: g.palette,
	}
}

// ColorModel implements image.Image
func (g *Grid) ColorModel() color.Model {
	return g.palette
}

// Bounds implements image.Image
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.side, g.side)
}

// At implements image.Image. The sentinel is always returned as
// transparent, whatever its palette entry says.
func (g *Grid) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(g.Bounds())) {
		return color.NRGBA{}
	}
	ci := g.cells[y*g.side+x]
	if ci == Sentinel {
		return color.NRGBA{}
	}
	return g.palette[ci]
}
