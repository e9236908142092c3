package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/svcctx"
)

// maxDocumentSize bounds preset documents accepted over HTTP.
const maxDocumentSize = 1 << 20

// PresetsListResponse contains all preset summaries.
type PresetsListResponse struct {
	Presets []preset.Summary `json:"presets" yaml:"presets"`
}

// readDocument decodes a preset document from the request body. YAML is
// accepted when the Content-Type says so; JSON otherwise.
func readDocument(w http.ResponseWriter, r *http.Request) (*preset.Preset, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", preset.ErrInvalidPreset, err)
	}
	format := preset.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = preset.FormatYAML
	}
	return preset.Decode(data, format)
}

// loadDocument reads and validates a preset document from disk for CLI commands.
func loadDocument(path string) (*preset.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return preset.Decode(data, preset.FormatFromPath(path))
}

// ListPresetsEndpoint handles GET /api/presets.
type ListPresetsEndpoint struct{}

func (e *ListPresetsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/presets", e.handler
}

func (e *ListPresetsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List presets
//	@Description	Get a summary of every preset, sorted by name
//	@Tags			presets
//	@Produce		json
//	@Success		200	{object}	PresetsListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/presets [get]
func (e *ListPresetsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return
	}

	presets, err := store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := PresetsListResponse{Presets: make([]preset.Summary, len(presets))}
	for i, p := range presets {
		resp.Presets[i] = p.Summarize()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPresetsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PresetsListResponse
			if err := client.Get(cmd.Context(), "/api/presets", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// GetPresetEndpoint handles GET /api/presets/{id}.
type GetPresetEndpoint struct{}

func (e *GetPresetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/presets/{id}", e.handler
}

func (e *GetPresetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a preset
//	@Tags			presets
//	@Produce		json
//	@Param			id	path		string	true	"Preset ID"
//	@Success		200	{object}	preset.Preset
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/presets/{id} [get]
func (e *GetPresetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return
	}

	p, err := store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (e *GetPresetEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a preset by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var p preset.Preset
			if err := client.Get(cmd.Context(), "/api/presets/"+url.PathEscape(args[0]), &p); err != nil {
				return err
			}
			if outputFile != "" {
				return api.OutputToFile(&p, outputFile)
			}
			return api.Output(&p)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Write the preset document to a file (.yaml or .json)")
	return cmd
}

// CreatePresetEndpoint handles POST /api/presets.
type CreatePresetEndpoint struct{}

func (e *CreatePresetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/presets", e.handler
}

func (e *CreatePresetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a preset
//	@Description	Create a preset from a JSON or YAML document. Missing IDs are generated.
//	@Tags			presets
//	@Accept			json
//	@Accept			application/yaml
//	@Produce		json
//	@Param			body	body		preset.Preset	true	"Preset document"
//	@Success		201		{object}	preset.Preset
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/presets [post]
func (e *CreatePresetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return
	}

	p, err := readDocument(w, r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if p.ID != "" {
		if _, err := store.Get(r.Context(), p.ID); err == nil {
			writeError(w, http.StatusConflict, "preset already exists: "+p.ID)
			return
		}
	}

	stored, err := store.Put(r.Context(), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (e *CreatePresetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <file>",
		Short: "Create a preset from a YAML or JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp preset.Preset
			if err := client.Post(cmd.Context(), "/api/presets", p, &resp); err != nil {
				return err
			}
			return api.Output(resp.Summarize())
		},
	}
}

// PutPresetEndpoint handles PUT /api/presets/{id}.
type PutPresetEndpoint struct{}

func (e *PutPresetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/presets/{id}", e.handler
}

func (e *PutPresetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Replace a preset
//	@Description	Replace an existing preset. The document ID, if present, must match the path.
//	@Tags			presets
//	@Accept			json
//	@Accept			application/yaml
//	@Produce		json
//	@Param			id		path		string			true	"Preset ID"
//	@Param			body	body		preset.Preset	true	"Preset document"
//	@Success		200		{object}	preset.Preset
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/presets/{id} [put]
func (e *PutPresetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return
	}

	p, err := readDocument(w, r)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if p.ID != "" && p.ID != id {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("document id %q does not match %q", p.ID, id))
		return
	}
	if _, err := store.Get(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	p.ID = id
	stored, err := store.Put(r.Context(), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (e *PutPresetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "put <id> <file>",
		Short: "Replace a preset with a YAML or JSON document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadDocument(args[1])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp preset.Preset
			if err := client.Put(cmd.Context(), "/api/presets/"+url.PathEscape(args[0]), p, &resp); err != nil {
				return err
			}
			return api.Output(resp.Summarize())
		},
	}
}

// DeletePresetEndpoint handles DELETE /api/presets/{id}.
type DeletePresetEndpoint struct{}

func (e *DeletePresetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/presets/{id}", e.handler
}

func (e *DeletePresetEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a preset
//	@Description	Delete a preset and its saved test inputs
//	@Tags			presets
//	@Param			id	path	string	true	"Preset ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/presets/{id} [delete]
func (e *DeletePresetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return
	}

	if err := store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	if inputs := svcctx.InputsFrom(r.Context()); inputs != nil {
		if err := inputs.Clear(r.Context(), id); err != nil {
			if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
				logger.Warn("failed to clear inputs of deleted preset", "id", id, "error", err)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeletePresetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a preset and its saved inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/presets/"+url.PathEscape(args[0])); err != nil {
				return err
			}
			fmt.Printf("Deleted preset %s\n", args[0])
			return nil
		},
	}
}
