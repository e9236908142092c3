package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/prompts"
)

// EngineRequest carries everything the engine needs, independent of any
// stored preset.
type EngineRequest struct {
	Template      string               `json:"template"`
	Inputs        preset.TestInputs    `json:"inputs,omitempty"`
	Variables     preset.Variables     `json:"variables,omitempty"`
	MediaRegistry preset.MediaRegistry `json:"mediaRegistry,omitempty"`
}

// ValidateRequest is an EngineRequest with an optional pre-resolved prompt.
// When Resolved is absent the template is resolved first.
type ValidateRequest struct {
	EngineRequest
	Resolved *prompts.ResolvedPrompt `json:"resolved,omitempty"`
}

// ReferencesRequest is the body of POST /api/references.
type ReferencesRequest struct {
	Template string `json:"template"`
}

// ReferencesResponse lists the parsed reference tokens in template order.
type ReferencesResponse struct {
	References []prompts.Reference `json:"references" yaml:"references"`
}

// MediaResponse lists the media items a template would show.
type MediaResponse struct {
	Media []prompts.MediaReference `json:"media" yaml:"media"`
}

// engineFlags builds an EngineRequest from a preset file and input flags.
type engineFlags struct {
	inputs inputFlags
}

func (f *engineFlags) register(cmd *cobra.Command) {
	f.inputs.register(cmd, false)
}

func (f *engineFlags) build(path string) (EngineRequest, error) {
	p, err := loadDocument(path)
	if err != nil {
		return EngineRequest{}, err
	}
	inputs, err := f.inputs.build()
	if err != nil {
		return EngineRequest{}, err
	}
	return EngineRequest{
		Template:      p.Template,
		Inputs:        inputs,
		Variables:     p.Variables,
		MediaRegistry: p.MediaRegistry,
	}, nil
}

// ReferencesEndpoint handles POST /api/references.
type ReferencesEndpoint struct{}

func (e *ReferencesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/references", e.handler
}

func (e *ReferencesEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Parse references
//	@Description	List every @{kind:name} token of a template in order, duplicates included
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReferencesRequest	true	"Template"
//	@Success		200		{object}	ReferencesResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/references [post]
func (e *ReferencesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ReferencesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{References: prompts.ParseReferences(req.Template)})
}

func (e *ReferencesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "refs <template>",
		Short: "Parse the reference tokens of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ReferencesResponse
			if err := client.Post(cmd.Context(), "/api/references", ReferencesRequest{Template: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ResolveEndpoint handles POST /api/resolve.
type ResolveEndpoint struct{}

func (e *ResolveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/resolve", e.handler
}

func (e *ResolveEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Resolve a template
//	@Description	Substitute every reference token and report unresolved references
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EngineRequest	true	"Template, inputs, variables and media registry"
//	@Success		200		{object}	prompts.ResolvedPrompt
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/resolve [post]
func (e *ResolveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req EngineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prompts.ResolvePrompt(req.Template, req.Inputs, req.Variables, req.MediaRegistry))
}

func (e *ResolveEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags engineFlags
	cmd := &cobra.Command{
		Use:   "resolve <preset-file>",
		Short: "Resolve the template of a preset document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp prompts.ResolvedPrompt
			if err := client.Post(cmd.Context(), "/api/resolve", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd)
	return cmd
}

// MediaEndpoint handles POST /api/media.
type MediaEndpoint struct{}

func (e *MediaEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/media", e.handler
}

func (e *MediaEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Extract media references
//	@Description	List the distinct media items referenced by a template and its mapped texts
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EngineRequest	true	"Template, inputs, variables and media registry"
//	@Success		200		{object}	MediaResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/media [post]
func (e *MediaEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req EngineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	media := prompts.ExtractMediaReferences(req.Template, req.Inputs, req.Variables, req.MediaRegistry)
	writeJSON(w, http.StatusOK, MediaResponse{Media: media})
}

func (e *MediaEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags engineFlags
	cmd := &cobra.Command{
		Use:   "media <preset-file>",
		Short: "List the media a preset document would show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp MediaResponse
			if err := client.Post(cmd.Context(), "/api/media", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd)
	return cmd
}

// ValidateEndpoint handles POST /api/validate.
type ValidateEndpoint struct{}

func (e *ValidateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/validate", e.handler
}

func (e *ValidateEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Validate inputs
//	@Description	Check required inputs and reference integrity. Resolves the template when no resolved prompt is given.
//	@Tags			engine
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ValidateRequest	true	"Variables, inputs and a template or resolved prompt"
//	@Success		200		{object}	prompts.ValidationState
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/validate [post]
func (e *ValidateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved := req.Resolved
	if resolved == nil {
		rp := prompts.ResolvePrompt(req.Template, req.Inputs, req.Variables, req.MediaRegistry)
		resolved = &rp
	}
	writeJSON(w, http.StatusOK, prompts.ValidatePresetInputs(req.Variables, req.Inputs, *resolved))
}

func (e *ValidateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags engineFlags
	cmd := &cobra.Command{
		Use:   "validate <preset-file>",
		Short: "Validate inputs against a preset document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp prompts.ValidationState
			if err := client.Post(cmd.Context(), "/api/validate", ValidateRequest{EngineRequest: req}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd)
	return cmd
}
