/*
Package editor implements a single drawing session: the grid being painted,
the selected color, the author name and the submission of the result.

Painting follows pointer gestures as a two state machine. A pointer press
over a cell moves from Idle to Painting and paints that cell, entering
further cells while Painting paints them too, and releasing the pointer or
leaving the grid returns to Idle. Only one submission can be outstanding at
a time and once the session is closed any late result is discarded.
*/
package editor

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"sync"

	"github.com/bodgit/forest/grid"
	"github.com/bodgit/forest/plant"
	"github.com/bodgit/forest/raster"
)

// State is the pointer state of a session
type State int

// Pointer states
const (
	Idle State = iota
	Painting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Painting:
		return "painting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrSubmitInProgress is returned for a submission attempted while
	// another one is still outstanding. Nothing is sent.
	ErrSubmitInProgress = errors.New("editor: submission already in progress")

	// ErrSubmitFailed wraps any encoding or transport failure. The form is
	// left as it was so the user can try again.
	ErrSubmitFailed = errors.New("editor: could not add plant, please try again")

	// ErrClosed is returned once the session has been closed
	ErrClosed = errors.New("editor: session closed")
)

// Submitter sends a finished drawing. *client.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, author, imageData string) (plant.Plant, error)
}

// Session is one editing session. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	grid   *grid.Grid
	color  uint8
	state  State
	author string
	scale  int

	submitting bool
	closed     bool

	svc    Submitter
	logger *log.Logger
}

// New returns a session painting on g, or on an empty default grid if g is
// nil. A session with a nil svc can paint but every Submit fails. A nil
// logger discards output.
func New(svc Submitter, g *grid.Grid, logger *log.Logger) *Session {
	if g == nil {
		g = grid.NewDefault()
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	color := grid.DefaultColor
	if int(color) >= len(g.Palette()) {
		color = grid.Sentinel
	}

	return &Session{
		grid:   g,
		color:  color,
		scale:  raster.DefaultScale,
		svc:    svc,
		logger: logger,
	}
}

// SetScale changes the pixel scale used when encoding the drawing
func (s *Session) SetScale(scale int) error {
	if scale < 1 {
		return raster.ErrInvalidScale
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = scale
	return nil
}

// State returns the current pointer state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Color returns the palette index that is painted
func (s *Session) Color() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// SelectColor chooses the palette index that is painted. The sentinel acts
// as an eraser.
func (s *Session) SelectColor(ci uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(ci) >= len(s.grid.Palette()) {
		return grid.ErrNotInPalette
	}
	s.color = ci
	return nil
}

// Author returns the author name as typed
func (s *Session) Author() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.author
}

// SetAuthor records the author name
func (s *Session) SetAuthor(author string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.author = author
}

// Grid returns a copy of the drawing
func (s *Session) Grid() *grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Submitting reports whether a submission is outstanding, meaning the submit
// control should be disabled
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) paint(i int) error {
	if s.closed {
		return ErrClosed
	}
	return s.grid.SetIndex(i, s.color)
}

// PointerDown starts painting and paints cell i
func (s *Session) PointerDown(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.state = Painting
	return s.paint(i)
}

// PointerEnter paints cell i if painting
func (s *Session) PointerEnter(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Painting {
		return nil
	}
	return s.paint(i)
}

// PointerUp stops painting
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

// PointerLeave stops painting when the pointer leaves the grid
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// Clear erases the drawing
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.Reset()
}

// Submit encodes the drawing and sends it with the author name. An empty
// author fails with a *plant.ValidationError before anything is sent. On
// success the drawing and author are cleared, on failure they are kept.
func (s *Session) Submit(ctx context.Context) (plant.Plant, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return plant.Plant{}, ErrClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return plant.Plant{}, ErrSubmitInProgress
	}
	if err := plant.ValidateAuthor(s.author); err != nil {
		s.mu.Unlock()
		return plant.Plant{}, err
	}
	if s.svc == nil {
		s.mu.Unlock()
		return plant.Plant{}, fmt.Errorf("%w: no plant service", ErrSubmitFailed)
	}

	data, err := raster.EncodeToString(s.grid, s.scale)
	if err != nil {
		s.mu.Unlock()
		s.logger.Printf("encoding failed: %v\n", err)
		return plant.Plant{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	author := plant.NormalizeAuthor(s.author)
	s.submitting = true
	s.mu.Unlock()

	p, err := s.svc.Submit(ctx, author, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if s.closed {
		return plant.Plant{}, ErrClosed
	}

	if err != nil {
		var verr *plant.ValidationError
		if errors.As(err, &verr) {
			return plant.Plant{}, err
		}
		s.logger.Printf("submit failed: %v\n", err)
		return plant.Plant{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	s.grid.Reset()
	s.author = ""
	s.state = Idle

	return p, nil
}

// Close ends the session. An outstanding submission still completes on the
// service but its result is not applied.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.state = Idle
}
