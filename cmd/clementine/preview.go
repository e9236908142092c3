package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/preset"
	"github.com/vileikis/clementine/internal/prompts"
)

var (
	previewTexts    []string
	previewImages   []string
	previewInputs   string
	previewStrict   bool
	previewTextOnly bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <preset-file>",
	Short: "Resolve and validate a preset document offline",
	Long: `Resolve a preset document against test inputs without a server.

Prints the resolved prompt, the validation state, the media a preview
would show and any authoring issues found in the document.

Examples:
  clementine preview portrait.yaml --input style=modern --image photo=https://example.com/me.jpg
  clementine preview portrait.yaml --inputs inputs.json --strict
  clementine preview portrait.yaml --text -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, inputs, err := loadPreview(args[0])
		if err != nil {
			return err
		}

		result := prompts.BuildPreview(p, inputs)
		if previewTextOnly {
			fmt.Println(result.Resolved.Text)
		} else if err := api.Output(result); err != nil {
			return err
		}

		if previewStrict && result.Validation.Status != prompts.StatusValid {
			return fmt.Errorf("preset %s is %s", p.Name, result.Validation.Status)
		}
		return nil
	},
}

// loadPreview reads the preset document and builds its test inputs from
// the inputs file and assignment flags, flags winning.
func loadPreview(path string) (*preset.Preset, preset.TestInputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read preset: %w", err)
	}
	p, err := preset.Decode(data, preset.FormatFromPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	inputs := preset.TestInputs{}
	if previewInputs != "" {
		if inputs, err = preset.ReadInputsFile(previewInputs); err != nil {
			return nil, nil, err
		}
	}
	assigned, err := preset.ParseAssignments(previewTexts, previewImages, nil)
	if err != nil {
		return nil, nil, err
	}
	if inputs, err = inputs.Merge(assigned); err != nil {
		return nil, nil, err
	}
	return p, inputs, nil
}

func init() {
	previewCmd.Flags().StringArrayVar(&previewTexts, "input", nil, "Text input as name=value (repeatable)")
	previewCmd.Flags().StringArrayVar(&previewImages, "image", nil, "Image input as name=url (repeatable)")
	previewCmd.Flags().StringVar(&previewInputs, "inputs", "", "Read inputs from a JSON or YAML file")
	previewCmd.Flags().BoolVar(&previewStrict, "strict", false, "Exit with an error unless the inputs are valid")
	previewCmd.Flags().BoolVar(&previewTextOnly, "text", false, "Print only the resolved prompt text")

	rootCmd.AddCommand(previewCmd)
}
