// Package ui provides the web-based administration console for the taxonomy API.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/internal/ui/notifier"
	"github.com/leapstack-labs/taxonomy/internal/ui/resources"
	"github.com/leapstack-labs/taxonomy/internal/ui/router"
)

// DefaultRefreshInterval is how often the API is polled for outside changes.
const DefaultRefreshInterval = 15 * time.Second

// Server is the main UI server.
type Server struct {
	client   *apiclient.Client
	loader   *common.Loader
	sessions *common.Sessions
	port     int
	refresh  time.Duration
	logger   *slog.Logger
	notifier *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Client        *apiclient.Client
	Port          int
	SessionSecret string
	Logger        *slog.Logger
	// RefreshInterval is the API poll period; zero uses DefaultRefreshInterval
	// and a negative value disables polling
	RefreshInterval time.Duration
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	refresh := cfg.RefreshInterval
	if refresh == 0 {
		refresh = DefaultRefreshInterval
	}

	return &Server{
		client:   cfg.Client,
		loader:   common.NewLoader(cfg.Client, logger),
		sessions: common.NewSessions(common.NewSessionStore([]byte(cfg.SessionSecret))),
		port:     cfg.Port,
		refresh:  refresh,
		logger:   logger,
		notifier: notifier.New(),
	}
}

// Handler returns the console's HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	router.SetupRoutes(r, router.Deps{
		Client:   s.client,
		Loader:   s.loader,
		Sessions: s.sessions,
		Notifier: s.notifier,
		Logger:   s.logger,
	}, resources.IsDev)
	return r
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port), "api", s.client.BaseURL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.refresh > 0 {
		eg.Go(func() error {
			newPoller(s.loader, s.notifier, s.logger).run(egctx, s.refresh)
			return nil
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}
