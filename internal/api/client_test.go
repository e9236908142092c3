package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestClient_Methods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/echo":
			var body map[string]string
			if r.Body != nil {
				json.NewDecoder(r.Body).Decode(&body)
			}
			json.NewEncoder(w).Encode(map[string]string{"method": r.Method, "name": body["name"]})
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "preset not found: x"})
		case "/plain":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	t.Run("verbs send bodies", func(t *testing.T) {
		calls := map[string]func(any) error{
			http.MethodPost:  func(out any) error { return client.Post(ctx, "/echo", map[string]string{"name": "a"}, out) },
			http.MethodPut:   func(out any) error { return client.Put(ctx, "/echo", map[string]string{"name": "a"}, out) },
			http.MethodPatch: func(out any) error { return client.Patch(ctx, "/echo", map[string]string{"name": "a"}, out) },
		}
		for method, call := range calls {
			var resp map[string]string
			if err := call(&resp); err != nil {
				t.Fatalf("%s failed: %v", method, err)
			}
			if resp["method"] != method || resp["name"] != "a" {
				t.Errorf("expected %s with name a, got %v", method, resp)
			}
		}
	})

	t.Run("json error body", func(t *testing.T) {
		err := client.Get(ctx, "/missing", nil)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if se.Code != http.StatusNotFound || se.Message != "preset not found: x" {
			t.Errorf("unexpected error %+v", se)
		}
		if err.Error() != "server error (404): preset not found: x" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("plain error body", func(t *testing.T) {
		err := client.Get(ctx, "/plain", nil)
		if err == nil || err.Error() != "server error (502): upstream down" {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		var out map[string]any
		if err := client.Delete(ctx, "/empty"); err != nil {
			t.Errorf("delete failed: %v", err)
		}
		if err := client.Get(ctx, "/empty", &out); err != nil {
			t.Errorf("get failed: %v", err)
		}
	})
}

func TestClient_WaitReady(t *testing.T) {
	t.Run("retries until ready", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error":"loading"}`))
				return
			}
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer srv.Close()

		if err := NewClient(srv.URL).WaitReady(context.Background(), 5, 10*time.Millisecond); err != nil {
			t.Fatalf("WaitReady failed: %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("gives up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := NewClient(srv.URL).WaitReady(context.Background(), 2, time.Millisecond)
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 StatusError, got %v", err)
		}
	})
}

type fakeEndpoint struct {
	method, path, use string
	requiresInit      bool
}

func (e *fakeEndpoint) Route() (string, string, http.HandlerFunc) {
	return e.method, e.path, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(e.use))
	}
}

func (e *fakeEndpoint) RequiresInit() bool { return e.requiresInit }

func (e *fakeEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{Use: e.use}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeEndpoint{method: "GET", path: "/health", use: "health"})
	r.RegisterGroup("presets", "Preset commands",
		&fakeEndpoint{method: "GET", path: "/api/presets", use: "list", requiresInit: true},
		&fakeEndpoint{method: "GET", path: "/api/presets/{id}", use: "get", requiresInit: true},
	)

	if len(r.Endpoints()) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(r.Endpoints()))
	}

	t.Run("routes and init middleware", func(t *testing.T) {
		mux := http.NewServeMux()
		r.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "health" {
			t.Errorf("expected health 200, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/presets/abc", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503 from init middleware, got %d", rec.Code)
		}
	})

	t.Run("command tree", func(t *testing.T) {
		root := r.BuildCommands(func() string { return "http://localhost" })
		var names []string
		for _, c := range root.Commands() {
			names = append(names, c.Name())
		}
		if strings.Join(names, ",") != "health,presets" {
			t.Errorf("expected health,presets, got %v", names)
		}
		cmd, _, err := root.Find([]string{"presets", "get"})
		if err != nil || cmd.Name() != "get" {
			t.Errorf("expected presets get command, got %v, %v", cmd, err)
		}
	})
}

func TestOutputTo(t *testing.T) {
	data := struct {
		Name string `json:"name" yaml:"name"`
	}{Name: "Portrait"}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"name\": \"Portrait\"\n}\n" {
		t.Errorf("unexpected json %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "name: Portrait\n" {
		t.Errorf("unexpected yaml %q", buf.String())
	}

	if err := OutputTo(&buf, "xml", data); err == nil {
		t.Error("expected error for unknown format")
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := OutputToFile(data, path); err != nil {
		t.Fatal(err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), `"name": "Portrait"`) {
		t.Errorf("expected json file, got %q", written)
	}
}

func TestSetOutputFormat(t *testing.T) {
	t.Cleanup(func() { SetOutputFormat("yaml") })

	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"json", OutputFormatJSON},
		{"yaml", OutputFormatYAML},
		{"toml", DefaultOutput},
	}
	for _, tt := range tests {
		SetOutputFormat(tt.in)
		if got := GetOutputFormat(); got != tt.want {
			t.Errorf("SetOutputFormat(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}
