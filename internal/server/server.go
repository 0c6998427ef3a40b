// Package server exposes the message store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hay-kot/chatbox/internal/core/chat"
	"github.com/hay-kot/chatbox/internal/store/jsonfile"
)

// BodyLimitFactor bounds POST bodies relative to the image ceiling: base64
// inflates a payload by a third, and the JSON envelope adds a little more.
const BodyLimitFactor = 3

// Options configures a Server.
type Options struct {
	Addr            string
	WebRoot         string // optional; served at / when set
	ImagesDir       string
	MaxUploadBytes  int64
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server owns the router, the stream hub and the listener lifecycle.
type Server struct {
	opts    Options
	hub     *Hub
	handler *Handler
	logger  zerolog.Logger
}

// New creates a Server backed by store.
func New(store chat.Store, opts Options, logger zerolog.Logger) *Server {
	hub := NewHub(logger)
	return &Server{
		opts:    opts,
		hub:     hub,
		handler: NewHandler(store, hub, opts.CORSOrigins, logger),
		logger:  logger,
	}
}

// Hub returns the stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(Metrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(s.logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := s.handler

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/messages", h.ListMessages)
		r.With(RequireJSON, MaxBodySize(BodyLimitFactor*s.opts.MaxUploadBytes)).
			Post("/messages", h.PostMessage)
		r.Get("/stream", h.Stream)
	})

	if s.opts.ImagesDir != "" {
		images := http.StripPrefix(jsonfile.ImageURLPrefix, http.FileServer(http.Dir(s.opts.ImagesDir)))
		r.Handle(jsonfile.ImageURLPrefix+"*", noDirListing(images))
	}

	if s.opts.WebRoot != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.opts.WebRoot)))
	}

	return r
}

// noDirListing answers 404 for directory paths instead of an index page.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within ShutdownTimeout. Stream clients are disconnected as shutdown begins.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}
	srv.RegisterOnShutdown(s.hub.Close)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting chat server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
