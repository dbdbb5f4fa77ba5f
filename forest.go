/*
Package forest is a library for browsing and planting pixel-art plants in a
digital forest kept by a remote plant service.
*/
package forest

import (
	"context"
	"io/ioutil"
	"log"

	"github.com/bodgit/forest/plant"
)

// Service is the remote plant service. *client.Client implements it.
type Service interface {
	FetchRandom(ctx context.Context, count int) ([]plant.Plant, error)
	Submit(ctx context.Context, author, imageData string) (plant.Plant, error)
}

// Forest ties the service to the local tools
type Forest struct {
	svc    Service
	logger *log.Logger
}

// New returns a Forest using svc. A nil logger discards output.
func New(svc Service, logger *log.Logger) *Forest {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Forest{
		svc:    svc,
		logger: logger,
	}
}
