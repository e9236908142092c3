package endpoints

import (
	"github.com/vileikis/clementine/internal/api"
)

// NewRegistry returns a registry holding every endpoint, with CLI commands
// grouped under "api presets", "api inputs" and "api engine".
func NewRegistry() *api.Registry {
	r := api.NewRegistry()

	// Health endpoints
	r.Register(&HealthEndpoint{})
	r.Register(&ReadyEndpoint{})
	r.Register(&StatusEndpoint{})

	r.RegisterGroup("presets", "Manage, preview and validate presets",
		&ListPresetsEndpoint{},
		&GetPresetEndpoint{},
		&CreatePresetEndpoint{},
		&PutPresetEndpoint{},
		&DeletePresetEndpoint{},
		&PreviewEndpoint{},
		&ValidationEndpoint{},
	)

	r.RegisterGroup("inputs", "Manage saved test inputs",
		&GetInputsEndpoint{},
		&PutInputsEndpoint{},
		&PatchInputsEndpoint{},
		&ClearInputsEndpoint{},
	)

	r.RegisterGroup("engine", "Run the prompt engine on ad-hoc templates",
		&ReferencesEndpoint{},
		&ResolveEndpoint{},
		&MediaEndpoint{},
		&ValidateEndpoint{},
	)

	// Swagger/OpenAPI endpoints
	swagger := &SwaggerEndpoint{SpecPath: GetSwaggerSpecPath()}
	r.Register(swagger)
	r.Register(&SwaggerUIEndpoint{})
	swagger.Endpoints = r.Endpoints

	return r
}
