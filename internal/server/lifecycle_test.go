package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/vileikis/clementine/internal/server/endpoints"
	"github.com/vileikis/clementine/internal/testutil"
)

// startServer starts a server for cfg and stops it when the test ends.
func startServer(t *testing.T, cfg testutil.ServerConfig, watch bool) *Server {
	t.Helper()

	srv, err := New(Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		PresetsDir: cfg.PresetsDir,
		InputsDir:  cfg.InputsDir,
		Watch:      watch,
		Logger:     cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := testutil.WaitForServer(waitCtx, cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return srv
}

func TestNew_RequiresDirectories(t *testing.T) {
	if _, err := New(Config{InputsDir: t.TempDir()}); err == nil {
		t.Error("expected error without presets directory")
	}
	if _, err := New(Config{PresetsDir: t.TempDir()}); err == nil {
		t.Error("expected error without inputs directory")
	}

	srv, err := New(Config{PresetsDir: t.TempDir(), InputsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), "127.0.0.1:8080")
	}
}

func TestServer_FullLifecycle(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	testutil.WritePreset(t, cfg.PresetsDir, "portrait.yaml", testutil.PortraitPreset)

	srv := startServer(t, cfg, false)

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("status_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/status")
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		defer resp.Body.Close()

		var status endpoints.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !status.Presets.Loaded || status.Presets.Count != 1 {
			t.Errorf("presets = %+v, want loaded with 1 preset", status.Presets)
		}
		if status.Presets.Dir != cfg.PresetsDir {
			t.Errorf("presets dir = %q, want %q", status.Presets.Dir, cfg.PresetsDir)
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
		if srv.Watching() {
			t.Error("Watching() = true, want false")
		}
	})

	t.Run("double_start", func(t *testing.T) {
		if err := srv.Start(context.Background()); err == nil {
			t.Error("expected error starting a running server")
		}
	})
}

func TestServer_ContextCancellation(t *testing.T) {
	cfg := testutil.NewServerConfig(t)

	srv, err := New(Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		PresetsDir: cfg.PresetsDir,
		InputsDir:  cfg.InputsDir,
		Watch:      true,
		Logger:     cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := testutil.WaitForServer(waitCtx, cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	eventually(t, 5*time.Second, srv.Watching)

	cancel()
	if err := testutil.WaitForShutdown(done, 10*time.Second); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	if srv.Watching() {
		t.Error("Watching() = true after shutdown")
	}
}

func TestServer_RequireInit(t *testing.T) {
	cfg := testutil.NewServerConfig(t)
	srv, err := New(Config{PresetsDir: cfg.PresetsDir, InputsDir: cfg.InputsDir, Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	handler := srv.withServices(http.HandlerFunc(srv.requireInit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := newRecorder(handler, "GET", "/api/presets")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before load = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	if err := srv.Store().Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec = newRecorder(handler, "GET", "/api/presets")
	if rec.Code != http.StatusTeapot {
		t.Errorf("status after load = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
