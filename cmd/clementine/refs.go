package main

import (
	"github.com/spf13/cobra"

	"github.com/vileikis/clementine/internal/api"
	"github.com/vileikis/clementine/internal/prompts"
)

var refsCmd = &cobra.Command{
	Use:   "refs <template>",
	Short: "Print the reference tokens of a template",
	Long: `Print every @{kind:name} token of a template in order, duplicates included.

Example:
  clementine refs "A @{text:style} portrait of @{input:photo}"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(prompts.ParseReferences(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(refsCmd)
}
