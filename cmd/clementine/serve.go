package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/server"
)

var (
	serveHost    string
	servePort    string
	servePresets string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Clementine server",
	Long: `Start the Clementine HTTP server.

The server loads every preset document from the presets directory, keeps
it in sync with edits made on disk and serves the preset and engine APIs.
Configuration changes to the cache and watch settings apply without a
restart.

The server provides:
  - /health           - Basic server health check
  - /ready            - Readiness check (presets loaded)
  - /api/presets      - Preset documents, test inputs and previews
  - /api/validation   - Validation status of every preset
  - /api/resolve etc. - The prompt engine on ad-hoc templates

Examples:
  clementine serve                          # Start on default port 8080
  clementine serve --port 3000              # Start on custom port
  clementine serve --presets ./presets      # Serve presets from a project folder`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get home directory
		h, err := loadHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cfgMgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := cfgMgr.Get()

		logger, err := cfg.Logging.NewLogger(os.Stdout)
		if err != nil {
			return err
		}
		if file := cfgMgr.File(); file != "" {
			logger.Info("using config file", "path", file)
			cfgMgr.WatchConfig()
		}

		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		presetsDir := cfg.Presets.ResolveDir(h.PresetsPath())
		if servePresets != "" {
			presetsDir = servePresets
		}

		srv, err := server.New(server.Config{
			Host:           host,
			Port:           port,
			PresetsDir:     presetsDir,
			InputsDir:      h.InputsPath(),
			Watch:          cfg.Presets.Watch && !serveNoWatch,
			Cache:          cfg.Cache,
			MaxConcurrency: cfg.Validation.MaxConcurrency,
			Home:           h,
			ConfigManager:  cfgMgr,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&servePresets, "presets", "", "Presets directory (overrides presets.dir)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload presets edited on disk")

	rootCmd.AddCommand(serveCmd)
}
