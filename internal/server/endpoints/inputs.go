package endpoints

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/svcctx"
)

// InputsResponse holds the saved test inputs of a preset.
type InputsResponse struct {
	PresetID string            `json:"preset_id" yaml:"preset_id"`
	Inputs   preset.TestInputs `json:"inputs" yaml:"inputs"`
}

// inputFlags are the assignment flags shared by commands that send inputs.
type inputFlags struct {
	texts  []string
	images []string
	unset  []string
	file   string
}

func (f *inputFlags) register(cmd *cobra.Command, withUnset bool) {
	cmd.Flags().StringArrayVar(&f.texts, "input", nil, "Text input as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "Image input as name=url (repeatable)")
	cmd.Flags().StringVar(&f.file, "inputs", "", "Read inputs from a JSON or YAML file")
	if withUnset {
		cmd.Flags().StringArrayVar(&f.unset, "unset", nil, "Variable name to clear (repeatable)")
	}
}

// build merges the inputs file with the assignment flags, flags winning.
func (f *inputFlags) build() (preset.TestInputs, error) {
	base := preset.TestInputs{}
	if f.file != "" {
		var err error
		if base, err = preset.ReadInputsFile(f.file); err != nil {
			return nil, err
		}
	}
	assigned, err := preset.ParseAssignments(f.texts, f.images, f.unset)
	if err != nil {
		return nil, err
	}
	for name, v := range assigned {
		base[name] = v
	}
	return base, nil
}

// requirePreset writes a 404 and returns false when the preset does not exist.
func requirePreset(w http.ResponseWriter, r *http.Request, id string) bool {
	store := svcctx.StoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "preset store not available")
		return false
	}
	if _, err := store.Get(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return false
	}
	return true
}

func inputsPath(id string) string {
	return "/api/presets/" + url.PathEscape(id) + "/inputs"
}

// GetInputsEndpoint handles GET /api/presets/{id}/inputs.
type GetInputsEndpoint struct{}

func (e *GetInputsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/presets/{id}/inputs", e.handler
}

func (e *GetInputsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get test inputs
//	@Description	Get the saved test inputs of a preset. Returns an empty map when none are saved.
//	@Tags			inputs
//	@Produce		json
//	@Param			id	path		string	true	"Preset ID"
//	@Success		200	{object}	InputsResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/presets/{id}/inputs [get]
func (e *GetInputsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !requirePreset(w, r, id) {
		return
	}
	store := svcctx.InputsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "input store not available")
		return
	}

	inputs, err := store.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InputsResponse{PresetID: id, Inputs: inputs})
}

func (e *GetInputsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <preset-id>",
		Short: "Get the saved test inputs of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp InputsResponse
			if err := client.Get(cmd.Context(), inputsPath(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PutInputsEndpoint handles PUT /api/presets/{id}/inputs.
type PutInputsEndpoint struct{}

func (e *PutInputsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/presets/{id}/inputs", e.handler
}

func (e *PutInputsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Replace test inputs
//	@Description	Replace all saved test inputs of a preset
//	@Tags			inputs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Preset ID"
//	@Param			body	body		preset.TestInputs	true	"Inputs by variable name"
//	@Success		200		{object}	InputsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/presets/{id}/inputs [put]
func (e *PutInputsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeMergedInputs(w, r, true)
}

func (e *PutInputsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "set <preset-id>",
		Short: "Replace the saved test inputs of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := flags.build()
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp InputsResponse
			if err := client.Put(cmd.Context(), inputsPath(args[0]), inputs, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd, false)
	return cmd
}

// PatchInputsEndpoint handles PATCH /api/presets/{id}/inputs.
type PatchInputsEndpoint struct{}

func (e *PatchInputsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/presets/{id}/inputs", e.handler
}

func (e *PatchInputsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Merge test inputs
//	@Description	Set the given inputs and keep the rest. A null value clears that input.
//	@Tags			inputs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Preset ID"
//	@Param			body	body		preset.TestInputs	true	"Inputs by variable name"
//	@Success		200		{object}	InputsResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/presets/{id}/inputs [patch]
func (e *PatchInputsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeMergedInputs(w, r, false)
}

func (e *PatchInputsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "patch <preset-id>",
		Short: "Set or clear some saved test inputs of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := flags.build()
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("nothing to change: use --input, --image, --unset or --inputs")
			}
			client := api.NewClient(getServerURL())
			var resp InputsResponse
			if err := client.Patch(cmd.Context(), inputsPath(args[0]), inputs, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func writeMergedInputs(w http.ResponseWriter, r *http.Request, replace bool) {
	id := r.PathValue("id")
	if !requirePreset(w, r, id) {
		return
	}
	store := svcctx.InputsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "input store not available")
		return
	}

	var patch preset.TestInputs
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inputs, err := store.Merge(r.Context(), id, patch, replace)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InputsResponse{PresetID: id, Inputs: inputs})
}

// ClearInputsEndpoint handles DELETE /api/presets/{id}/inputs.
type ClearInputsEndpoint struct{}

func (e *ClearInputsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/presets/{id}/inputs", e.handler
}

func (e *ClearInputsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Clear test inputs
//	@Tags			inputs
//	@Param			id	path	string	true	"Preset ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/presets/{id}/inputs [delete]
func (e *ClearInputsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !requirePreset(w, r, id) {
		return
	}
	store := svcctx.InputsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusInternalServerError, "input store not available")
		return
	}

	if err := store.Clear(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearInputsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <preset-id>",
		Short: "Clear the saved test inputs of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), inputsPath(args[0])); err != nil {
				return err
			}
			fmt.Printf("Cleared inputs of %s\n", args[0])
			return nil
		},
	}
}
