package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
	top       []Endpoint
	groups    []group
}

// group is a CLI subcommand that collects related endpoints, e.g. "presets".
type group struct {
	name      string
	short     string
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint whose command sits directly under "api".
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
	r.top = append(r.top, ep)
}

// RegisterGroup adds endpoints whose commands sit under "api <name>".
func (r *Registry) RegisterGroup(name, short string, eps ...Endpoint) {
	r.endpoints = append(r.endpoints, eps...)
	r.groups = append(r.groups, group{name: name, short: short, endpoints: eps})
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running Clementine server via HTTP.

These commands require a running server (clementine serve).
Use --server to specify a custom server URL.

Examples:
  clementine api health                      # Check server health
  clementine api presets list                # List all presets
  clementine api presets preview <id>        # Preview a preset with its saved inputs
  clementine api engine refs "@{text:name}"  # Parse reference tokens`,
	}

	for _, ep := range r.top {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, g := range r.groups {
		groupCmd := &cobra.Command{
			Use:   g.name,
			Short: g.short,
		}
		for _, ep := range g.endpoints {
			groupCmd.AddCommand(ep.Command(getServerURL))
		}
		apiCmd.AddCommand(groupCmd)
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
