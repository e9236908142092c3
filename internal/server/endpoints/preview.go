package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/prompts"
	"github.com/vileikis/clementine/internal/svcctx"
)

// PreviewRequest optionally overrides the saved test inputs of a preview.
type PreviewRequest struct {
	// Inputs replaces the saved inputs, or is merged over them when Merge is set.
	Inputs preset.TestInputs `json:"inputs,omitempty"`
	Merge  bool              `json:"merge,omitempty"`
}

// PreviewResponse is a preview of one preset.
type PreviewResponse struct {
	PresetID        string `json:"preset_id" yaml:"preset_id"`
	prompts.Preview `yaml:",inline"`
}

// PreviewEndpoint handles POST /api/presets/{id}/preview.
type PreviewEndpoint struct{}

func (e *PreviewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/presets/{id}/preview", e.handler
}

func (e *PreviewEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Preview a preset
//	@Description	Resolve, validate and collect media for a preset using its saved test inputs.
//	@Description	An optional body replaces or merges over the saved inputs without storing them.
//	@Tags			presets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Preset ID"
//	@Param			body	body		PreviewRequest	false	"Input override"
//	@Success		200		{object}	PreviewResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/presets/{id}/preview [post]
func (e *PreviewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	store := svcctx.StoreFrom(r.Context())
	inputStore := svcctx.InputsFrom(r.Context())
	previewer := svcctx.PreviewerFrom(r.Context())
	if store == nil || inputStore == nil || previewer == nil {
		writeError(w, http.StatusInternalServerError, "preview services not available")
		return
	}

	var req PreviewRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	inputs := req.Inputs
	if inputs == nil || req.Merge {
		saved, err := inputStore.Get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if inputs, err = saved.Merge(req.Inputs); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	preview, err := previewer.Preview(p, inputs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{PresetID: id, Preview: *preview})
}

func (e *PreviewEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags inputFlags
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Preview a preset with its saved inputs",
		Long: `Preview a preset with its saved test inputs.

Inputs given with --input, --image or --inputs are merged over the saved
inputs for this preview only; they are not stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := flags.build()
			if err != nil {
				return err
			}
			req := PreviewRequest{Inputs: overrides, Merge: true}

			client := api.NewClient(getServerURL())
			var resp PreviewResponse
			path := "/api/presets/" + url.PathEscape(args[0]) + "/preview"
			if err := client.Post(cmd.Context(), path, req, &resp); err != nil {
				return err
			}
			if textOnly {
				fmt.Println(resp.Resolved.Text)
				return nil
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print only the resolved prompt text")
	return cmd
}

// PresetValidation is the validation verdict of one preset.
type PresetValidation struct {
	ID         string                   `json:"id" yaml:"id"`
	Name       string                   `json:"name" yaml:"name"`
	Status     prompts.ValidationStatus `json:"status" yaml:"status"`
	Errors     []prompts.FieldError     `json:"errors" yaml:"errors"`
	Warnings   []prompts.Warning        `json:"warnings" yaml:"warnings"`
	Unresolved int                      `json:"unresolved" yaml:"unresolved"`
}

// ValidationListResponse holds the verdict of every preset.
type ValidationListResponse struct {
	Presets []PresetValidation                `json:"presets" yaml:"presets"`
	Summary map[prompts.ValidationStatus]int `json:"summary" yaml:"summary"`
}

// ValidationEndpoint handles GET /api/validation.
type ValidationEndpoint struct{}

func (e *ValidationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/validation", e.handler
}

func (e *ValidationEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Validate all presets
//	@Description	Validate every preset against its saved test inputs
//	@Tags			presets
//	@Produce		json
//	@Success		200	{object}	ValidationListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/validation [get]
func (e *ValidationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.StoreFrom(r.Context())
	inputStore := svcctx.InputsFrom(r.Context())
	previewer := svcctx.PreviewerFrom(r.Context())
	if store == nil || inputStore == nil || previewer == nil {
		writeError(w, http.StatusInternalServerError, "preview services not available")
		return
	}

	presets, err := store.List(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	previews, err := previewer.PreviewAll(r.Context(), presets, inputStore.Get)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ValidationListResponse{
		Presets: make([]PresetValidation, len(presets)),
		Summary: map[prompts.ValidationStatus]int{
			prompts.StatusValid:      0,
			prompts.StatusIncomplete: 0,
			prompts.StatusInvalid:    0,
		},
	}
	for i, p := range presets {
		v := previews[i].Validation
		resp.Presets[i] = PresetValidation{
			ID:         p.ID,
			Name:       p.Name,
			Status:     v.Status,
			Errors:     v.Errors,
			Warnings:   v.Warnings,
			Unresolved: len(previews[i].Resolved.UnresolvedRefs),
		}
		resp.Summary[v.Status]++
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ValidationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every preset against its saved inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ValidationListResponse
			if err := client.Get(cmd.Context(), "/api/validation", &resp); err != nil {
				return err
			}
			if err := api.Output(resp); err != nil {
				return err
			}
			if strict && resp.Summary[prompts.StatusValid] != len(resp.Presets) {
				return fmt.Errorf("%d of %d presets are not valid",
					len(resp.Presets)-resp.Summary[prompts.StatusValid], len(resp.Presets))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error unless every preset is valid")
	return cmd
}
