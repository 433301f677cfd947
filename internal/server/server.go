/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes the live preview: the embedded player page,
// the master audio stream, a websocket event feed, and the control and
// render endpoints. All timing authority stays server-side; the page
// only follows published events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/logbuffer"
	"github.com/friendsincode/newscast/internal/media"
	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/playout"
	"github.com/friendsincode/newscast/internal/publish"
	"github.com/friendsincode/newscast/internal/render"
	"github.com/friendsincode/newscast/internal/telemetry"
)

// Server bundles the HTTP surface and the services behind it.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	metrics    *http.Server

	bus       *events.Bus
	media     *media.Service
	engine    *render.Engine
	publisher *publish.Publisher
	logBuf    *logbuffer.Buffer

	mu         sync.Mutex
	controller *playout.Controller
	broadcast  *models.Broadcast
}

// New constructs the server and wires dependencies. logBuf may be nil;
// the log endpoint then answers empty.
func New(ctx context.Context, cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	bus := events.NewBus()
	mediaSvc := media.NewService(cfg.MediaRoot, cfg.FFmpegBin, cfg.FFprobeBin, logger)

	publisher, err := publish.NewPublisher(ctx, cfg, bus, logger)
	if err != nil {
		return nil, fmt.Errorf("publisher: %w", err)
	}

	srv := &Server{
		cfg:       cfg,
		logger:    logger.With().Str("component", "server").Logger(),
		bus:       bus,
		media:     mediaSvc,
		engine:    render.NewEngine(cfg, mediaSvc, bus, logger),
		publisher: publisher,
		logBuf:    logBuf,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	// Skip the request timeout for the websocket feed and the master
	// audio stream, both long-lived by design.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" || r.URL.Path == "/api/master.wav" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv.router = router
	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		// Streaming handlers manage their own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", telemetry.Handler())
		srv.metrics = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 15 * time.Second,
		}
	}

	return srv, nil
}

// SetBroadcast installs a broadcast and builds its live controller,
// stopping and replacing any previous one. The controller reports
// readiness separately; a decode failure leaves it installed but inert.
func (s *Server) SetBroadcast(b *models.Broadcast) *playout.Controller {
	ctrl := playout.NewController(b, s.cfg.IntroDuration, s.cfg.OutroDuration, s.bus, playout.Options{
		TalkThreshold: s.cfg.TalkThreshold,
		PollInterval:  s.cfg.PollInterval,
	}, s.logger)

	s.mu.Lock()
	old := s.controller
	s.controller = ctrl
	s.broadcast = b
	s.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	return ctrl
}

func (s *Server) current() (*playout.Controller, *models.Broadcast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller, s.broadcast
}

// Run serves HTTP until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.metrics != nil {
		go func() {
			s.logger.Info().Str("addr", s.metrics.Addr).Msg("metrics listening")
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ctrl, _ := s.current(); ctrl != nil {
		ctrl.Stop()
	}
	if s.metrics != nil {
		_ = s.metrics.Shutdown(shutdownCtx)
	}
	return s.httpServer.Shutdown(shutdownCtx)
}
