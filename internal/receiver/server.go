// Package receiver accepts manuscript submissions over the LAN and shows
// them on a live dashboard.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/manuscripts/internal/config"
	"github.com/csheth/manuscripts/internal/export"
)

// Server holds the receiver's handlers and event broker.
type Server struct {
	cfg    *config.Receiver
	logger *slog.Logger
	broker *Broker
	now    func() time.Time
	open   func(path string) error

	saveMu sync.Mutex
}

// Option customises a Server.
type Option func(*Server)

// WithClock overrides the time source used for folder names and event
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithOpener overrides how /open launches a saved file.
func WithOpener(open func(path string) error) Option {
	return func(s *Server) { s.open = open }
}

// NewServer builds a receiver for cfg. Call Close to stop the broker.
func NewServer(cfg *config.Receiver, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		broker: NewBroker(cfg.Keepalive),
		now:    time.Now,
		open:   export.Open,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Broker returns the server's event broker.
func (s *Server) Broker() *Broker { return s.broker }

// Close disconnects all event streams.
func (s *Server) Close() { s.broker.Close() }

// Handler returns the chi router serving every receiver route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleDashboard)
	r.Get("/events", s.broker.ServeHTTP)
	r.Post("/submit", s.handleSubmit)
	r.Get("/open", s.handleOpen)
	return r
}

// Run serves the receiver until ctx is cancelled or the process gets
// SIGINT/SIGTERM, advertising it over mDNS when enabled.
func Run(ctx context.Context, cfg *config.Receiver, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}

	srv := NewServer(cfg, logger)
	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Streams never end on their own; close them before draining.
	httpServer.RegisterOnShutdown(srv.Close)

	logger.Info("Configuration loaded",
		slog.String("teacher", cfg.Teacher),
		slog.String("http_address", cfg.Address()),
		slog.String("save_dir", cfg.SaveDir),
		slog.Bool("auth", cfg.AuthRequired()),
		slog.Bool("mdns", cfg.MDNS))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if cfg.MDNS {
		g.Go(func() error {
			adv, err := Advertise(cfg)
			if err != nil {
				logger.Warn("mDNS advertisement failed", slog.String("error", err.Error()))
				return nil
			}
			logger.Info("Advertising over mDNS", slog.String("service", ServiceType))
			<-gCtx.Done()
			adv.Shutdown()
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Receiver error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Receiver stopped")
	return nil
}
