/*
Package client implements the HTTP client for the plant service.

The service exposes two operations below a base URL: fetching a random
selection of plants and submitting a new one. A failed request is reported
once and never retried.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bodgit/forest/plant"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the endpoint of a locally running service
	DefaultBaseURL = "http://localhost:8080/v1"

	// DefaultTimeout bounds each request
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a unique identifier for every request
	RequestIDHeader = "X-Request-Id"

	maxErrorBody = 1 << 10
)

// Config is the fixed configuration of a Client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// TransportError is returned when the service could not be reached or did
// not answer successfully
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("client: %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client talks to the plant service
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger
}

// New returns a Client for the service described by cfg. A nil httpClient
// uses a new http.Client with the configured timeout, a nil logger discards
// output.
func New(cfg Config, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported base URL %q", cfg.BaseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	return &Client{
		base:   base,
		http:   httpClient,
		logger: logger,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()
	return u.String()
}

type randomResponse struct {
	Plants []plant.Plant `json:"plants"`
	Count  int           `json:"count"`
}

type createRequest struct {
	Author    string `json:"author"`
	ImageData string `json:"imageData"`
}

func (c *Client) do(ctx context.Context, op, method, target string, body interface{}, want int, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return err
	}
	id := uuid.New().String()
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("%s %s (%s) failed: %v\n", method, target, id, err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Printf("%s %s (%s) returned %d: %s\n", method, target, id, resp.StatusCode, bytes.TrimSpace(msg))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Printf("%s %s (%s) returned a bad body: %v\n", method, target, id, err)
		return &TransportError{Op: op, Err: err}
	}

	return nil
}

// FetchRandom returns at most count plants in no particular order. Fewer
// than count plants is not an error.
func (c *Client) FetchRandom(ctx context.Context, count int) ([]plant.Plant, error) {
	if count < 1 {
		return nil, &plant.ValidationError{Field: "count", Reason: "must be a positive integer"}
	}

	var resp randomResponse
	if err := c.do(ctx, "fetch random", http.MethodGet, c.endpoint("/plants/random", url.Values{"count": {strconv.Itoa(count)}}), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}

	if len(resp.Plants) > count {
		resp.Plants = resp.Plants[:count]
	}

	return resp.Plants, nil
}

// Submit creates a new plant from the author name and the base64 PNG text.
// An invalid author is rejected without contacting the service.
func (c *Client) Submit(ctx context.Context, author, imageData string) (plant.Plant, error) {
	if err := plant.ValidateAuthor(author); err != nil {
		return plant.Plant{}, err
	}
	if imageData == "" {
		return plant.Plant{}, &plant.ValidationError{Field: "imageData", Reason: "must not be empty"}
	}

	var p plant.Plant
	if err := c.do(ctx, "submit", http.MethodPost, c.endpoint("/plants", nil), createRequest{
		Author:    plant.NormalizeAuthor(author),
		ImageData: imageData,
	}, http.StatusCreated, &p); err != nil {
		return plant.Plant{}, err
	}

	return p, nil
}
