/*
Package server implements the HTTP plant service.

	POST /v1/plants          create a plant from {"author", "imageData"}
	GET  /v1/plants/random   up to ?count= random plants, 15 by default, 50 at most
*/
package server

import (
	"context"
	"errors"
	"io/ioutil"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	// DefaultAddr is the address the service listens on
	DefaultAddr = ":8080"

	requestTimeout  = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

// DefaultOrigins are the browser origins allowed to call the service
var DefaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Config is the fixed configuration of a Server
type Config struct {
	Addr    string
	Origins []string
}

// Server is the plant service
type Server struct {
	cfg    Config
	router chi.Router
	logger *log.Logger
}

// New returns a Server storing plants in repo. A nil logger discards output.
func New(repo Repository, cfg Config, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Origins == nil {
		cfg.Origins = DefaultOrigins
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	h := &handler{
		repo:      repo,
		validator: newValidator(),
		logger:    logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/plants", h.createPlant)
		r.Get("/plants/random", h.randomPlants)
	})

	return &Server{
		cfg:    cfg,
		router: r,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s\n", l.Addr())
		errc <- srv.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Println("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
