package endpoints

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
)

// SwaggerEndpoint serves the OpenAPI spec.
type SwaggerEndpoint struct {
	// SpecPath is the path to the generated swagger.json file
	SpecPath string

	// Endpoints lists the registered endpoints. When the generated spec is
	// missing, a route index is built from them instead.
	Endpoints func() []api.Endpoint
}

func (e *SwaggerEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger.json", e.handler
}

func (e *SwaggerEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		OpenAPI spec
//	@Tags			docs
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		404	{object}	ErrorResponse
//	@Router			/swagger.json [get]
func (e *SwaggerEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	specPath := e.SpecPath
	if specPath == "" {
		specPath = "docs/swagger/swagger.json"
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	data, err := os.ReadFile(specPath)
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	if e.Endpoints == nil {
		writeError(w, http.StatusNotFound, "swagger.json not found")
		return
	}
	writeJSON(w, http.StatusOK, routeIndex(e.Endpoints()))
}

// routeIndex builds a minimal OpenAPI 2.0 document listing every route with
// the short description of its CLI command.
func routeIndex(eps []api.Endpoint) map[string]any {
	paths := make(map[string]map[string]any)
	for _, ep := range eps {
		method, path, _ := ep.Route()
		summary := ""
		if cmd := ep.Command(func() string { return "" }); cmd != nil {
			summary = cmd.Short
		}
		if paths[path] == nil {
			paths[path] = make(map[string]any)
		}
		paths[path][strings.ToLower(method)] = map[string]string{"summary": summary}
	}

	return map[string]any{
		"swagger": "2.0",
		"info": map[string]string{
			"title":   "Clementine API",
			"version": "1.0",
		},
		"basePath": "/",
		"paths":    paths,
	}
}

func (e *SwaggerEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "swagger",
		Short: "Fetch OpenAPI spec from server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())

			var spec map[string]any
			if err := client.Get(cmd.Context(), "/swagger.json", &spec); err != nil {
				return err
			}

			if outputFile != "" {
				return api.OutputToFile(spec, outputFile)
			}
			return api.Output(spec)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Output file path")
	return cmd
}

// SwaggerUIEndpoint serves Swagger UI.
type SwaggerUIEndpoint struct{}

func (e *SwaggerUIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/swagger", e.handler
}

func (e *SwaggerUIEndpoint) RequiresInit() bool { return false }

func (e *SwaggerUIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(swaggerUIPage))
}

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
  <title>Clementine API</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: '/swagger.json', dom_id: '#swagger-ui'});
  </script>
</body>
</html>`

func (e *SwaggerUIEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:    "swagger-ui",
		Hidden: true,
		Short:  "Print the Swagger UI address",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println("Open in browser:", getServerURL()+"/swagger")
			return nil
		},
	}
}

// GetSwaggerSpecPath returns the path to swagger.json based on executable location.
func GetSwaggerSpecPath() string {
	if exe, err := os.Executable(); err == nil {
		specPath := filepath.Join(filepath.Dir(exe), "docs", "swagger", "swagger.json")
		if _, err := os.Stat(specPath); err == nil {
			return specPath
		}
	}
	return "docs/swagger/swagger.json"
}
