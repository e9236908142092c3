package main

import (
	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/config"
	"github.com/vileikis/clementine/internal/home"
	"github.com/vileikis/clementine/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "clementine",
	Short: "Preset prompt templates with live resolution and validation",
	Long: `Clementine manages preset prompt templates for AI image generation.

A preset is a template with @{text:name}, @{input:name} and @{ref:name}
reference tokens plus the variables and media registry they point at.
Clementine resolves templates against test inputs, lists the media a
preview would show and validates inputs for completeness.

Run the server with "clementine serve" and call it with "clementine api",
or work on preset files directly with "clementine preview" and "clementine refs".`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.clementine/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "clementine home directory (default: ~/.clementine)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// loadHome returns the home directory selected by --home.
func loadHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig returns the config manager for --config, searching the working
// directory and the home directory when no file is given.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	return config.NewManager(cfgFile, ".", h.Path())
}
