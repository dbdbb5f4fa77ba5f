/*
Package gallery implements the session behind the scrolling view of plants:
loading a random selection from the service and the hover tooltip that
shows who drew a plant and when.
*/
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"sync"
	"time"

	"github.com/bodgit/forest/plant"
)

// DefaultCount is the number of plants requested per load
const DefaultCount = 15

var (
	// ErrLoadFailed wraps any failure to fetch plants
	ErrLoadFailed = errors.New("gallery: could not load plants, please try again")

	// ErrClosed is returned once the gallery has been closed
	ErrClosed = errors.New("gallery: closed")
)

// Fetcher supplies plants. *client.Client implements it.
type Fetcher interface {
	FetchRandom(ctx context.Context, count int) ([]plant.Plant, error)
}

// Gallery holds the plants currently on display
type Gallery struct {
	mu sync.Mutex

	svc   Fetcher
	count int

	plants  []plant.Plant
	err     error
	loading bool
	closed  bool
	// Incremented per load so only the latest one is applied
	load uint64

	tooltip *Tooltip
	logger  *log.Logger
}

// New returns a Gallery requesting count plants per load, DefaultCount if
// count is not positive. A nil logger discards output.
func New(svc Fetcher, count int, delay time.Duration, logger *log.Logger) *Gallery {
	if count <= 0 {
		count = DefaultCount
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Gallery{
		svc:     svc,
		count:   count,
		tooltip: NewTooltip(delay),
		logger:  logger,
	}
}

// Load replaces the displayed plants with a fresh selection. A failure is
// kept as the gallery error and returned. A result that arrives after Close,
// or after a newer Load started, is dropped.
func (g *Gallery) Load(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.load++
	load := g.load
	g.loading = true
	g.mu.Unlock()

	plants, err := g.svc.FetchRandom(ctx, g.count)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if load != g.load {
		return nil
	}
	g.loading = false

	if err != nil {
		g.logger.Printf("loading plants failed: %v\n", err)
		g.err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		return g.err
	}

	g.plants = plants
	g.err = nil

	return nil
}

// Plants returns the displayed plants
func (g *Gallery) Plants() []plant.Plant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]plant.Plant(nil), g.plants...)
}

// Err returns the error from the last load, if it failed
func (g *Gallery) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Loading reports whether a load is in progress
func (g *Gallery) Loading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loading
}

// Tooltip returns the hover tooltip of the gallery
func (g *Gallery) Tooltip() *Tooltip {
	return g.tooltip
}

// Close tears the gallery down, dropping any load still in flight
func (g *Gallery) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.loading = false
	g.tooltip.Close()
}
