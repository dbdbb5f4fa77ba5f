package forest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // image format
	_ "image/jpeg" // image format
	_ "image/png"  // image format
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/forest/editor"
	"github.com/bodgit/forest/gallery"
	"github.com/bodgit/forest/grid"
	"github.com/bodgit/forest/plant"
	"github.com/bodgit/forest/raster"
)

func (f *Forest) submit(ctx context.Context, author string, g *grid.Grid) (plant.Plant, error) {
	s := editor.New(f.svc, g, f.logger)
	defer s.Close()

	s.SetAuthor(author)

	return s.Submit(ctx)
}

// ReadImage decodes the PNG, JPEG or GIF image in file and imports it into a
// default grid
func ReadImage(file string) (*grid.Grid, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	m, _, err := image.Decode(fh)
	if err != nil {
		return nil, err
	}

	return raster.Import(m, grid.DefaultSide, grid.DefaultPalette)
}

// ReadText parses the grid text in file
func ReadText(file string) (*grid.Grid, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	g := grid.NewDefault()
	if err := g.UnmarshalText(b); err != nil {
		return nil, err
	}
	return g, nil
}

func isImage(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// ReadGrid reads a grid from file. PNG, JPEG and GIF images are imported and
// anything else is parsed as grid text.
func ReadGrid(file string) (*grid.Grid, error) {
	if isImage(file) {
		return ReadImage(file)
	}
	return ReadText(file)
}

func (f *Forest) submitFile(ctx context.Context, author, file string, read func(string) (*grid.Grid, error)) (plant.Plant, error) {
	g, err := read(file)
	if err != nil {
		return plant.Plant{}, err
	}

	if g.Empty() {
		f.logger.Printf("\"%s\" produced an empty drawing\n", file)
	}

	return f.submit(ctx, author, g)
}

// SubmitImage imports the image in file and plants it under the given author
// name
func (f *Forest) SubmitImage(ctx context.Context, author, file string) (plant.Plant, error) {
	return f.submitFile(ctx, author, file, ReadImage)
}

// SubmitGrid plants the grid text in file under the given author name
func (f *Forest) SubmitGrid(ctx context.Context, author, file string) (plant.Plant, error) {
	return f.submitFile(ctx, author, file, ReadText)
}

// SubmitFile calls SubmitImage or SubmitGrid depending on the file extension
func (f *Forest) SubmitFile(ctx context.Context, author, file string) (plant.Plant, error) {
	return f.submitFile(ctx, author, file, ReadGrid)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

// Show writes the grid text of the plant image in r, either a PNG or its
// base64 text. An image that was not drawn on a default grid is imported
// instead.
func Show(w io.Writer, r io.Reader) error {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}

	if !bytes.HasPrefix(b, pngHeader) {
		if b, err = base64.StdEncoding.DecodeString(raster.StripDataURL(string(b))); err != nil {
			return err
		}
	}

	g, err := raster.Decode(bytes.NewReader(b), grid.DefaultSide, grid.DefaultPalette)
	switch {
	case errors.Is(err, raster.ErrBadDimensions), errors.Is(err, raster.ErrNotUniform), errors.Is(err, raster.ErrNotInPalette):
		m, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return err
		}
		if g, err = raster.Import(m, grid.DefaultSide, grid.DefaultPalette); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	text, err := g.MarshalText()
	if err != nil {
		return err
	}

	_, err = w.Write(text)
	return err
}

// List writes one line per plant for up to count random plants
func (f *Forest) List(ctx context.Context, w io.Writer, count int) error {
	g := gallery.New(f.svc, count, 0, f.logger)
	defer g.Close()

	if err := g.Load(ctx); err != nil {
		return err
	}

	for _, p := range g.Plants() {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.CreatedAt.Local().Format("2006-01-02"), p.Author); err != nil {
			return err
		}
	}

	return nil
}
