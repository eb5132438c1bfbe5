// Package server provides the HTTP API for the studio backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/studio/internal/authoring"
	"github.com/hyperjump/studio/internal/config"
	"github.com/hyperjump/studio/internal/syncdoc"
	"github.com/hyperjump/studio/internal/uploads"
	"github.com/hyperjump/studio/pkg/utils"
)

// Server is the HTTP server for the studio API.
type Server struct {
	config    *config.Config
	authoring *authoring.Service
	sync      *syncdoc.Service
	uploads   *uploads.Store
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	cfg *config.Config,
	authoringSvc *authoring.Service,
	syncSvc *syncdoc.Service,
	uploadStore *uploads.Store,
	logger *zap.Logger,
) *Server {
	return &Server{
		config:    cfg,
		authoring: authoringSvc,
		sync:      syncSvc,
		uploads:   uploadStore,
		logger:    utils.OrNop(logger),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.config.Server.CORSOrigin))
	r.Use(middleware.Compress(5))
	r.Use(limitBody(s.config.Server.MaxBodyBytes))

	// Bounded by ai.timeout per candidate, not by request_timeout.
	r.Post("/api/ai", s.handleAI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
		r.Get("/health", s.handleHealth)
		r.Handle(uploads.URLPrefix+"*", staticUploads(uploads.URLPrefix, s.uploads.Dir()))

		r.Group(func(r chi.Router) {
			r.Use(requireToken(s.config.Auth.SyncToken))
			r.Get("/api/sync", s.handleSyncRead)
			r.Post("/api/sync", s.handleSyncWrite)
			r.Post("/api/upload", s.handleUpload)
			r.Get("/api/uploads/{name}/text", s.handleUploadText)
			r.Get("/api/status", s.handleStatus)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("Starting server",
		zap.String("addr", addr),
		zap.String("provider", s.authoring.Provider().Name()),
		zap.String("storage", s.config.Storage.Backend),
		zap.Bool("auth", s.config.Auth.SyncToken != ""))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
