package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/config"
	"github.com/vileikis/clementine/internal/home"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/prompts"
	"github.com/vileikis/clementine/internal/server/endpoints"
	"github.com/vileikis/clementine/internal/svcctx"
)

// Server is the main Clementine HTTP server.
// It loads the preset store on start, keeps it in sync with the presets
// directory while running, and serves the preset and engine endpoints.
type Server struct {
	httpServer *http.Server
	store      *preset.Store
	inputs     *preset.InputStore
	previewer  *prompts.Previewer
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu          sync.RWMutex
	running     bool
	baseCtx     context.Context
	watch       bool
	stopWatch   context.CancelFunc
	watchDoneCh chan struct{}
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// PresetsDir holds one document per preset
	PresetsDir string
	// InputsDir holds saved test inputs, one file per preset
	InputsDir string
	// Watch reloads presets edited on disk while the server runs
	Watch bool
	// Cache configures the preview cache
	Cache config.CacheCfg
	// MaxConcurrency bounds batch validation
	MaxConcurrency int
	// Home is the Clementine home directory, if any
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PresetsDir == "" {
		return nil, errors.New("presets directory is required")
	}
	if cfg.InputsDir == "" {
		return nil, errors.New("inputs directory is required")
	}

	s := &Server{
		store:     preset.NewStore(cfg.PresetsDir, cfg.Logger),
		inputs:    preset.NewInputStore(cfg.InputsDir, cfg.Logger),
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
		watch:     cfg.Watch,
	}
	s.previewer = prompts.NewPreviewer(prompts.PreviewerConfig{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
		MaxConcurrency:  cfg.MaxConcurrency,
		Logger:          cfg.Logger,
	})

	s.store.OnChange(func(id string) {
		s.previewer.Invalidate()
	})

	// Watch for config changes
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.previewer.Reset(c.Cache.TTL, c.Cache.CleanupInterval, c.Validation.MaxConcurrency)
			s.setWatch(c.Presets.Watch)
			s.logger.Info("applied config change",
				"cache_ttl", c.Cache.TTL,
				"max_concurrency", c.Validation.MaxConcurrency,
				"watch", c.Presets.Watch)
		})
	}

	s.services = &svcctx.Services{
		Store:         s.store,
		Inputs:        s.inputs,
		Previewer:     s.previewer,
		ConfigManager: cfg.ConfigManager,
		Logger:        cfg.Logger,
		Home:          cfg.Home,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = endpoints.NewRegistry()

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and loads the preset store.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.baseCtx = ctx
	s.mu.Unlock()

	// Start HTTP server in goroutine; /ready reports 503 until the store is loaded
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("loading presets", "dir", s.store.Dir())
	if err := s.store.Load(ctx); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("failed to load presets: %w", err)
	}

	s.mu.RLock()
	watch := s.watch
	s.mu.RUnlock()
	s.setWatch(watch)

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// setWatch starts or stops the presets directory watcher. It only starts a
// watcher while the server is running.
func (s *Server) setWatch(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = enabled

	if !enabled || !s.running {
		s.stopWatcherLocked()
		return
	}
	if s.stopWatch != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	done := make(chan struct{})
	s.stopWatch = cancel
	s.watchDoneCh = done
	go func() {
		defer close(done)
		if err := s.store.Watch(ctx); err != nil {
			s.logger.Error("presets watcher stopped", "error", err)
		}
	}()
}

func (s *Server) stopWatcherLocked() {
	if s.stopWatch == nil {
		return
	}
	s.stopWatch()
	<-s.watchDoneCh
	s.stopWatch = nil
	s.watchDoneCh = nil
}

// shutdown stops the HTTP server and the presets watcher.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.mu.Lock()
	s.stopWatcherLocked()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Watching reports whether the presets directory watcher is active.
func (s *Server) Watching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopWatch != nil
}

// Store returns the preset store.
func (s *Server) Store() *preset.Store {
	return s.store
}

// Previewer returns the preview cache.
func (s *Server) Previewer() *prompts.Previewer {
	return s.previewer
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the preset store is loaded.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.store.Loaded() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
