package editor

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bodgit/forest/client"
	"github.com/bodgit/forest/grid"
	"github.com/bodgit/forest/plant"
	"github.com/bodgit/forest/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls   int32
	release chan struct{}
	started chan struct{}
	err     error

	mu     sync.Mutex
	author string
	data   string
}

func (f *fakeSubmitter) Submit(ctx context.Context, author, imageData string) (plant.Plant, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.author, f.data = author, imageData
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return plant.Plant{}, f.err
	}
	return plant.Plant{ID: 1, Author: author, ImageData: imageData}, nil
}

func TestPainting(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, grid.DefaultColor, s.Color())

	// Entering without a press does nothing
	require.Nil(t, s.PointerEnter(5))
	assert.Equal(t, grid.Sentinel, s.Grid().IndexAt(5))

	require.Nil(t, s.SelectColor(3))
	require.Nil(t, s.PointerDown(0))
	assert.Equal(t, Painting, s.State())
	require.Nil(t, s.PointerEnter(1))
	require.Nil(t, s.PointerEnter(2))
	// Re-entering a cell is harmless
	require.Nil(t, s.PointerEnter(1))
	s.PointerUp()
	assert.Equal(t, Idle, s.State())
	require.Nil(t, s.PointerEnter(3))

	g := s.Grid()
	assert.Equal(t, []uint8{3, 3, 3, 0}, g.Cells()[:4])

	require.Nil(t, s.PointerDown(16))
	s.PointerLeave()
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, uint8(3), s.Grid().IndexAt(16))

	// Eraser
	require.Nil(t, s.SelectColor(grid.Sentinel))
	require.Nil(t, s.PointerDown(0))
	s.PointerUp()
	assert.Equal(t, grid.Sentinel, s.Grid().IndexAt(0))

	assert.Equal(t, grid.ErrOutOfBounds, s.PointerDown(grid.DefaultSide*grid.DefaultSide))
	assert.Equal(t, grid.ErrNotInPalette, s.SelectColor(200))

	s.Clear()
	assert.True(t, s.Grid().Empty())
}

func TestSubmitEmptyAuthor(t *testing.T) {
	f := new(fakeSubmitter)
	s := New(f, nil, nil)

	for _, author := range []string{"", "  \t"} {
		s.SetAuthor(author)
		_, err := s.Submit(context.Background())
		var verr *plant.ValidationError
		assert.True(t, errors.As(err, &verr))
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.calls))
	assert.False(t, s.Submitting())
}

func TestSubmitSuccess(t *testing.T) {
	f := new(fakeSubmitter)
	s := New(f, nil, nil)

	require.Nil(t, s.PointerDown(0))
	s.PointerUp()
	s.SetAuthor("alice")
	want, err := raster.EncodeToString(s.Grid(), raster.DefaultScale)
	require.Nil(t, err)

	p, err := s.Submit(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "alice", p.Author)
	assert.Equal(t, want, f.data)

	assert.True(t, s.Grid().Empty())
	assert.Equal(t, "", s.Author())
	assert.False(t, s.Submitting())
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	f := &fakeSubmitter{err: &client.TransportError{Op: "submit", StatusCode: 503}}
	s := New(f, nil, nil)

	require.Nil(t, s.PointerDown(7))
	s.PointerUp()
	s.SetAuthor("alice")

	_, err := s.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmitFailed))
	var terr *client.TransportError
	assert.True(t, errors.As(err, &terr))

	assert.Equal(t, grid.DefaultColor, s.Grid().IndexAt(7))
	assert.Equal(t, "alice", s.Author())
	assert.False(t, s.Submitting())

	// and can be tried again
	f.err = nil
	_, err = s.Submit(context.Background())
	assert.Nil(t, err)
}

func TestSubmitInProgress(t *testing.T) {
	f := &fakeSubmitter{release: make(chan struct{}), started: make(chan struct{})}
	s := New(f, nil, nil)
	s.SetAuthor("alice")

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		errc <- err
	}()

	<-f.started
	assert.True(t, s.Submitting())

	_, err := s.Submit(context.Background())
	assert.Equal(t, ErrSubmitInProgress, err)

	close(f.release)
	assert.Nil(t, <-errc)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))
	assert.False(t, s.Submitting())
}

func TestCloseDiscardsResult(t *testing.T) {
	f := &fakeSubmitter{release: make(chan struct{}), started: make(chan struct{})}
	s := New(f, nil, nil)
	require.Nil(t, s.PointerDown(0))
	s.SetAuthor("alice")

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		errc <- err
	}()

	<-f.started
	s.Close()
	close(f.release)

	assert.Equal(t, ErrClosed, <-errc)
	// The successful result was not applied
	assert.False(t, s.Grid().Empty())
	assert.Equal(t, "alice", s.Author())

	assert.Equal(t, ErrClosed, s.PointerDown(1))
	_, err := s.Submit(context.Background())
	assert.Equal(t, ErrClosed, err)
}

func TestSetScale(t *testing.T) {
	f := new(fakeSubmitter)
	s := New(f, nil, nil)
	s.SetAuthor("alice")

	assert.Equal(t, raster.ErrInvalidScale, s.SetScale(0))
	require.Nil(t, s.SetScale(1))

	_, err := s.Submit(context.Background())
	require.Nil(t, err)

	g, err := raster.DecodeString(f.data, grid.DefaultSide, grid.DefaultPalette)
	require.Nil(t, err)
	assert.True(t, g.Empty())
}

func TestSubmitWithoutService(t *testing.T) {
	s := New(nil, nil, nil)
	require.Nil(t, s.PointerDown(0))
	s.PointerUp()
	s.SetAuthor("alice")

	_, err := s.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmitFailed))
	assert.False(t, s.Submitting())
	assert.Equal(t, "alice", s.Author())
	assert.False(t, s.Grid().Empty())
}

func TestSubmitHugeScale(t *testing.T) {
	f := new(fakeSubmitter)
	s := New(f, nil, nil)
	s.SetAuthor("alice")

	require.Nil(t, s.SetScale(math.MaxInt/grid.DefaultSide+1))
	_, err := s.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrSubmitFailed))
	assert.True(t, errors.Is(err, raster.ErrInvalidScale))
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.calls))

	// The session is still usable
	require.Nil(t, s.SetScale(raster.DefaultScale))
	_, err = s.Submit(context.Background())
	assert.Nil(t, err)
}
