package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/taxonomy/internal/state"
)

// DefaultDebounce is how long the seed watcher waits for writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Config holds configuration for the mock API server.
type Config struct {
	Store    Store
	Port     int
	SeedPath string
	Watch    bool
	Version  string
	Logger   *slog.Logger
	// Debounce overrides DefaultDebounce for the seed watcher
	Debounce time.Duration
}

// Server is the mock API server.
type Server struct {
	store    Store
	port     int
	seedPath string
	watch    bool
	debounce time.Duration
	logger   *slog.Logger
	handlers *Handlers

	// reloaded receives one value per seed reload attempt, if set
	reloaded chan<- error
}

// NewServer creates a new mock API server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Server{
		store:    cfg.Store,
		port:     cfg.Port,
		seedPath: cfg.SeedPath,
		watch:    cfg.Watch,
		debounce: debounce,
		logger:   logger,
		handlers: NewHandlers(cfg.Store, logger, cfg.Version),
	}
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)
	r.Use(s.requestLogger)
	SetupRoutes(r, s.handlers)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// LoadSeed applies the configured seed file, or the built-in fixture when
// no file is configured.
func (s *Server) LoadSeed(ctx context.Context) error {
	seed := DefaultSeed()
	source := "built-in fixture"
	if s.seedPath != "" {
		var err error
		if seed, err = state.LoadSeed(s.seedPath); err != nil {
			return err
		}
		source = s.seedPath
	}
	if err := s.store.ApplySeed(ctx, seed); err != nil {
		return fmt.Errorf("failed to apply seed: %w", err)
	}
	s.logger.Info("seed loaded",
		"source", source,
		"clusters", len(seed.Clusters),
		"areas", len(seed.Areas),
		"tags", len(seed.Tags))
	return nil
}

// Serve seeds the store, starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.LoadSeed(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting mock API", "addr", fmt.Sprintf("http://localhost:%d%s", s.port, BasePath))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.seedPath != "" {
		eg.Go(func() error {
			return s.watchSeed(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down mock API...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchSeed reloads the seed file after it changes. The parent directory is
// watched so editors that replace the file on save are handled.
func (s *Server) watchSeed(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.seedPath)
	if err != nil {
		return fmt.Errorf("failed to resolve seed path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Debug("watching seed file", "path", target)

	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(s.debounce)
			} else {
				debounce.Reset(s.debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			s.logger.Debug("seed changed, reloading", "file", target)
			err := s.LoadSeed(ctx)
			if err != nil {
				s.logger.Error("seed reload failed", "error", err)
			}
			if s.reloaded != nil {
				select {
				case s.reloaded <- err:
				case <-ctx.Done():
					return nil
				}
			}

		case err, open := <-watcher.Errors:
			if !open {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
