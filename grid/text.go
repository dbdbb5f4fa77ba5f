package grid

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
)

const (
	sentinelRune = '.'
	maxTextIndex = 35
)

var errBadText = errors.New("grid: malformed text")

func indexToRune(ci uint8) (byte, error) {
	switch {
	case ci == Sentinel:
		return sentinelRune, nil
	case ci <= 9:
		return '0' + ci, nil
	case ci <= maxTextIndex:
		return 'a' + ci - 10, nil
	default:
		return 0, fmt.Errorf("grid: palette index %d has no text form", ci)
	}
}

func runeToIndex(r byte) (uint8, bool) {
	switch {
	case r == sentinelRune:
		return Sentinel, true
	case r >= '1' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'z':
		return r - 'a' + 10, true
	}
	return 0, false
}

// MarshalText renders the grid as one line per row, one character per cell
func (g *Grid) MarshalText() ([]byte, error) {
	b := new(bytes.Buffer)
	b.Grow(g.side * (g.side + 1))
	for y := 0; y < g.side; y++ {
		for x := 0; x < g.side; x++ {
			r, err := indexToRune(g.cells[y*g.side+x])
			if err != nil {
				return nil, err
			}
			b.WriteByte(r)
		}
		b.WriteByte('\n')
	}
	return b.Bytes(), nil
}

// UnmarshalText replaces the grid with the one described by text. The side
// is taken from the number of rows. If the grid has no palette yet
// DefaultPalette is used.
func (g *Grid) UnmarshalText(text []byte) error {
	var rows [][]byte
	s := bufio.NewScanner(bytes.NewReader(text))
	for s.Scan() {
		line := bytes.TrimSpace(s.Bytes())
		if len(line) == 0 {
			continue
		}
		rows = append(rows, append([]byte(nil), line...))
	}
	if err := s.Err(); err != nil {
		return err
	}

	side := len(rows)
	if side == 0 {
		return errBadText
	}

	p := g.palette
	if p == nil {
		p = DefaultPalette
	}

	cells := make([]uint8, 0, side*side)
	for y, row := range rows {
		if len(row) != side {
			return fmt.Errorf("grid: row %d has %d cells, want %d", y+1, len(row), side)
		}
		for x, r := range row {
			ci, ok := runeToIndex(r)
			if !ok {
				return fmt.Errorf("grid: invalid cell %q at row %d column %d", r, y+1, x+1)
			}
			if int(ci) >= len(p) {
				return ErrNotInPalette
			}
			cells = append(cells, ci)
		}
	}

	g.side = side
	g.cells = cells
	g.palette = p
	return nil
}
