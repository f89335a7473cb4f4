// Copyright (c) 2025, the evolibrary contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves /metrics on its own listener, kept off the API port so
// the scrape surface is never publicly routed by accident.
type Server struct {
	manager *Manager
	host    string
	port    int
	log     zerolog.Logger
	srv     *http.Server
}

// NewServer constructs the metrics listener.
func NewServer(manager *Manager, host string, port int, logger zerolog.Logger) *Server {
	return &Server{
		manager: manager,
		host:    host,
		port:    port,
		log:     logger.With().Str("component", "metrics-server").Logger(),
	}
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.manager.Registry(), promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener on %s: %w", addr, err)
	}

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Msg("metrics server started")

	if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
