package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status  string `json:"status" yaml:"status"`
	Presets string `json:"presets,omitempty" yaml:"presets,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Reports ok once the preset store has been loaded
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil || !store.Loaded() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Presets: "not_loaded"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Presets: "loaded"})
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (presets loaded)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status:  %s\n", resp.Status)
			if resp.Presets != "" {
				fmt.Printf("Presets: %s\n", resp.Presets)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server  string        `json:"server" yaml:"server"`
	Presets PresetsStatus `json:"presets" yaml:"presets"`
	Cache   CacheStatus   `json:"cache" yaml:"cache"`
	Config  ConfigStatus  `json:"config" yaml:"config"`
}

// PresetsStatus shows the preset store state.
type PresetsStatus struct {
	Dir    string `json:"dir" yaml:"dir"`
	Loaded bool   `json:"loaded" yaml:"loaded"`
	Count  int    `json:"count" yaml:"count"`
}

// CacheStatus shows the preview cache state.
type CacheStatus struct {
	Entries int `json:"entries" yaml:"entries"`
}

// ConfigStatus shows where configuration came from.
type ConfigStatus struct {
	Home        string `json:"home,omitempty" yaml:"home,omitempty"`
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
	ReloadError string `json:"reload_error,omitempty" yaml:"reload_error,omitempty"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Preset store, preview cache and config state
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if store := svcctx.StoreFrom(r.Context()); store != nil {
		resp.Presets = PresetsStatus{Dir: store.Dir(), Loaded: store.Loaded(), Count: store.Len()}
	}
	if previewer := svcctx.PreviewerFrom(r.Context()); previewer != nil {
		resp.Cache.Entries = previewer.Len()
	}
	if h := svcctx.HomeFrom(r.Context()); h != nil {
		resp.Config.Home = h.Path()
	}
	if cfg := svcctx.ConfigManagerFrom(r.Context()); cfg != nil {
		resp.Config.File = cfg.File()
		if err := cfg.ReloadErr(); err != nil {
			resp.Config.ReloadError = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("Server: %s\n", resp.Server)
			fmt.Printf("Presets:\n")
			fmt.Printf("  Dir:    %s\n", resp.Presets.Dir)
			fmt.Printf("  Loaded: %t\n", resp.Presets.Loaded)
			fmt.Printf("  Count:  %d\n", resp.Presets.Count)
			fmt.Printf("Cache:\n")
			fmt.Printf("  Entries: %d\n", resp.Cache.Entries)
			if resp.Config.File != "" {
				fmt.Printf("Config: %s\n", resp.Config.File)
			}
			if resp.Config.ReloadError != "" {
				fmt.Printf("  Reload error: %s\n", resp.Config.ReloadError)
			}
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeStoreError maps preset sentinel errors to HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preset.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, preset.ErrInvalidPreset),
		errors.Is(err, preset.ErrInvalidName),
		errors.Is(err, preset.ErrDuplicateName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
