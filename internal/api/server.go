// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api assembles the HTTP surface: router, middleware and the
// per-domain handlers.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evolibrary/evolibrary/internal/achievements"
	"github.com/evolibrary/evolibrary/internal/api/handlers"
	"github.com/evolibrary/evolibrary/internal/catalog"
	"github.com/evolibrary/evolibrary/internal/config"
	"github.com/evolibrary/evolibrary/internal/database"
	"github.com/evolibrary/evolibrary/internal/download"
	"github.com/evolibrary/evolibrary/internal/indexer"
	"github.com/evolibrary/evolibrary/internal/logstream"
	"github.com/evolibrary/evolibrary/internal/metrics"
	"github.com/evolibrary/evolibrary/internal/models"
	"github.com/evolibrary/evolibrary/internal/notify"
	"github.com/evolibrary/evolibrary/internal/search"
	"github.com/evolibrary/evolibrary/internal/update"
)

// Server is the API listener.
type Server struct {
	server *http.Server
	logger zerolog.Logger
	config *config.AppConfig
	deps   *Dependencies
}

// Dependencies carries everything the handlers need.
type Dependencies struct {
	Config             *config.AppConfig
	DB                 *database.DB
	CatalogClient      *catalog.Client
	IndexerService     *indexer.Service
	IndexerStore       *models.IndexerStore
	Coordinator        *download.Coordinator
	Controller         *search.Controller
	BookStore          *models.BookStore
	CounterStore       *models.CounterStore
	RecentSearchStore  *models.RecentSearchStore
	AchievementService *achievements.Service
	Notifier           *notify.Notifier
	UpdateChecker      *update.Checker
	Broadcaster        *logstream.Broadcaster
	Metrics            *metrics.Manager
}

// NewServer constructs the API server.
func NewServer(deps *Dependencies) *Server {
	return &Server{
		server: &http.Server{
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      0, // SSE stream stays open indefinitely
			IdleTimeout:       180 * time.Second,
		},
		logger: log.Logger.With().Str("module", "api").Logger(),
		config: deps.Config,
		deps:   deps,
	}
}

// ListenAndServe starts serving on the configured host and port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Config.Host, s.config.Config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	host := listener.Addr().String()
	if strings.HasPrefix(host, "0.0.0.0:") || strings.HasPrefix(host, "[::]:") {
		host = strings.Replace(host, "0.0.0.0:", "localhost:", 1)
		host = strings.Replace(host, "[::]:", "localhost:", 1)
	}

	s.logger.Info().
		Str("addr", listener.Addr().String()).
		Str("base_url", s.config.Config.BaseURL).
		Msgf("Starting API server - Open: http://%s%s", host, s.config.Config.BaseURL)

	s.server.Handler = s.Handler()

	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler builds the router. Exposed for tests.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	compressor, err := httpcompression.DefaultAdapter(
		httpcompression.MinSize(1024),
		httpcompression.GzipCompressionLevel(2),
		httpcompression.Prefer(httpcompression.PreferServer),
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create HTTP compression adapter")
	} else {
		r.Use(compressor)
	}

	corsMiddleware := cors.New(cors.Options{
		AllowCredentials: true,
		AllowedMethods:   []string{"HEAD", "OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowOriginFunc:  func(origin string) bool { return true },
		MaxAge:           300,
	})
	r.Use(corsMiddleware.Handler)

	healthHandler := handlers.NewHealthHandler(s.deps.DB)
	searchHandler := handlers.NewSearchHandler(
		s.deps.CatalogClient,
		s.deps.IndexerService,
		s.deps.Coordinator,
		s.deps.RecentSearchStore,
		s.deps.CounterStore,
		s.deps.Metrics,
	)
	sessionHandler := handlers.NewSessionHandler(s.deps.Controller)
	indexersHandler := handlers.NewIndexersHandler(s.deps.IndexerStore, s.deps.IndexerService)
	booksHandler := handlers.NewBooksHandler(s.deps.BookStore, s.deps.AchievementService)
	achievementsHandler := handlers.NewAchievementsHandler(s.deps.AchievementService)
	notificationsHandler := handlers.NewNotificationsHandler(s.deps.Notifier)
	updatesHandler := handlers.NewUpdatesHandler(s.deps.UpdateChecker)
	activityHandler := handlers.NewActivityHandler(s.deps.Broadcaster)

	mountAPI := func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Route("/health", healthHandler.Routes)
			r.Route("/search", func(r chi.Router) {
				searchHandler.Routes(r)
				r.Route("/session", sessionHandler.Routes)
			})
			r.Route("/indexers", indexersHandler.Routes)
			r.Route("/books", booksHandler.Routes)
			r.Route("/achievements", achievementsHandler.Routes)
			r.Route("/notifications", notificationsHandler.Routes)
			r.Route("/updates", updatesHandler.Routes)
			r.Route("/activity", activityHandler.Routes)
		})
	}

	if base := strings.TrimRight(s.config.Config.BaseURL, "/"); base != "" {
		r.Route(base, mountAPI)
	} else {
		mountAPI(r)
	}

	return r
}

// requestLogger emits one debug line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
