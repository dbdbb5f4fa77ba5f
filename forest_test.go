package forest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bodgit/forest/grid"
	"github.com/bodgit/forest/plant"
	"github.com/bodgit/forest/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu        sync.Mutex
	plants    []plant.Plant
	submitted []plant.Plant
	err       error
}

func (f *fakeService) FetchRandom(ctx context.Context, count int) ([]plant.Plant, error) {
	if f.err != nil {
		return nil, f.err
	}
	if count < len(f.plants) {
		return f.plants[:count], nil
	}
	return f.plants, nil
}

func (f *fakeService) Submit(ctx context.Context, author, imageData string) (plant.Plant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := plant.Plant{ID: int64(len(f.submitted) + 1), Author: author, ImageData: imageData, CreatedAt: time.Now()}
	f.submitted = append(f.submitted, p)
	return p, nil
}

const diagonal = "" +
	"3...............\n" +
	".3..............\n" +
	"..3.............\n" +
	"...3............\n" +
	"....3...........\n" +
	".....3..........\n" +
	"......3.........\n" +
	".......3........\n" +
	"........3.......\n" +
	".........3......\n" +
	"..........3.....\n" +
	"...........3....\n" +
	"............3...\n" +
	".............3..\n" +
	"..............3.\n" +
	"...............3\n"

func diagonalGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g := grid.NewDefault()
	require.Nil(t, g.UnmarshalText([]byte(diagonal)))
	return g
}

func TestDownload(t *testing.T) {
	data, err := raster.EncodeToString(diagonalGrid(t), raster.DefaultScale)
	require.Nil(t, err)

	svc := &fakeService{plants: []plant.Plant{
		{ID: 1, Author: "a", ImageData: data},
		{ID: 2, Author: "b", ImageData: data},
		{ID: 3, Author: "c", ImageData: "broken"},
	}}
	f := New(svc, nil)

	dir := filepath.Join(t.TempDir(), "out")
	plants, err := f.Download(context.Background(), 50, dir)
	require.Nil(t, err)
	assert.Len(t, plants, 3)

	for _, id := range []string{"1", "2"} {
		b, err := ioutil.ReadFile(filepath.Join(dir, id+".png"))
		require.Nil(t, err)
		g, err := raster.Decode(bytes.NewReader(b), grid.DefaultSide, grid.DefaultPalette)
		require.Nil(t, err)
		assert.Equal(t, diagonalGrid(t).Cells(), g.Cells())
	}

	_, err = os.Stat(filepath.Join(dir, "3.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFailure(t *testing.T) {
	f := New(&fakeService{err: errors.New("unreachable")}, nil)

	_, err := f.Download(context.Background(), 5, t.TempDir())
	assert.NotNil(t, err)
}

func TestSubmitFileText(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plant.txt")
	require.Nil(t, ioutil.WriteFile(file, []byte(diagonal), 0644))

	svc := new(fakeService)
	f := New(svc, nil)

	p, err := f.SubmitFile(context.Background(), " alice ", file)
	require.Nil(t, err)
	assert.Equal(t, "alice", p.Author)

	g, err := raster.DecodeString(p.ImageData, grid.DefaultSide, grid.DefaultPalette)
	require.Nil(t, err)
	assert.Equal(t, diagonalGrid(t).Cells(), g.Cells())

	var verr *plant.ValidationError
	_, err = f.SubmitFile(context.Background(), "", file)
	assert.True(t, errors.As(err, &verr))
	assert.Len(t, svc.submitted, 1)
}

func TestSubmitFileImage(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			m.Set(x, y, color.NRGBA{0x00, 0xf8, 0x08, 0xff})
		}
	}

	file := filepath.Join(t.TempDir(), "plant.png")
	fh, err := os.Create(file)
	require.Nil(t, err)
	require.Nil(t, png.Encode(fh, m))
	require.Nil(t, fh.Close())

	svc := new(fakeService)
	f := New(svc, nil)

	p, err := f.SubmitFile(context.Background(), "bob", file)
	require.Nil(t, err)

	g, err := raster.DecodeString(p.ImageData, grid.DefaultSide, grid.DefaultPalette)
	require.Nil(t, err)
	for _, c := range g.Cells() {
		assert.Equal(t, uint8(4), c)
	}
}

func TestShow(t *testing.T) {
	b, err := raster.EncodeToBytes(diagonalGrid(t), raster.DefaultScale)
	require.Nil(t, err)

	out := new(bytes.Buffer)
	require.Nil(t, Show(out, bytes.NewReader(b)))
	assert.Equal(t, diagonal, out.String())

	s, err := raster.EncodeToString(diagonalGrid(t), 4)
	require.Nil(t, err)

	out.Reset()
	require.Nil(t, Show(out, strings.NewReader(raster.DataURL(s))))
	assert.Equal(t, diagonal, out.String())

	assert.NotNil(t, Show(out, strings.NewReader("nonsense")))
}

func TestList(t *testing.T) {
	when := time.Date(2024, 3, 4, 12, 0, 0, 0, time.Local)
	f := New(&fakeService{plants: []plant.Plant{
		{ID: 1, Author: "alice", CreatedAt: when},
		{ID: 2, Author: "bob", CreatedAt: when},
	}}, nil)

	out := new(bytes.Buffer)
	require.Nil(t, f.List(context.Background(), out, 10))
	assert.Equal(t, "1\t2024-03-04\talice\n2\t2024-03-04\tbob\n", out.String())
}

func TestSubmitGridAndImage(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "plant.grid")
	require.Nil(t, ioutil.WriteFile(text, []byte(diagonal), 0644))

	svc := new(fakeService)
	f := New(svc, nil)

	_, err := f.SubmitGrid(context.Background(), "carol", text)
	require.Nil(t, err)

	// Grid text is not an image
	_, err = f.SubmitImage(context.Background(), "carol", text)
	assert.NotNil(t, err)

	b, err := raster.EncodeToBytes(diagonalGrid(t), raster.DefaultScale)
	require.Nil(t, err)
	img := filepath.Join(dir, "plant.png")
	require.Nil(t, ioutil.WriteFile(img, b, 0644))

	p, err := f.SubmitImage(context.Background(), "carol", img)
	require.Nil(t, err)

	g, err := raster.DecodeString(p.ImageData, grid.DefaultSide, grid.DefaultPalette)
	require.Nil(t, err)
	assert.Equal(t, diagonalGrid(t).Cells(), g.Cells())
	assert.Len(t, svc.submitted, 2)
}
