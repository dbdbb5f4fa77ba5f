package forest

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/forest/plant"
)

const downloadWorkers = 4

func (f *Forest) producePlants(ctx context.Context, plants []plant.Plant) (<-chan plant.Plant, <-chan error, error) {
	out := make(chan plant.Plant)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, p := range plants {
			select {
			case out <- p:
			case <-ctx.Done():
				errc <- errors.New("download cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

func (f *Forest) plantWorker(ctx context.Context, dir string, in <-chan plant.Plant) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for p := range in {
			// Skip anything the service should never have accepted
			if err := plant.ValidateImageData(p.ImageData); err != nil {
				f.logger.Printf("Skipping plant %d by \"%s\": %v\n", p.ID, p.Author, err)
				continue
			}

			b, err := p.Image()
			if err != nil {
				errc <- err
				return
			}

			file := filepath.Join(dir, fmt.Sprintf("%d.png", p.ID))
			if err := ioutil.WriteFile(file, b, 0644); err != nil {
				errc <- err
				return
			}

			f.logger.Printf("Wrote plant %d by \"%s\" to \"%s\"\n", p.ID, p.Author, file)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Download fetches up to count plants and writes each one to dir as
// <id>.png. It returns the plants that were fetched.
func (f *Forest) Download(ctx context.Context, count int, path string) ([]plant.Plant, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	plants, err := f.svc.FetchRandom(ctx, count)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	in, errc, err := f.producePlants(ctx, plants)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	for i := 0; i < downloadWorkers; i++ {
		errc, err := f.plantWorker(ctx, dir, in)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	return plants, nil
}
