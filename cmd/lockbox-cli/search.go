package main

import (
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:     "search",
	Aliases: []string{"ls"},
	Short:   "List all stored filenames",
	Long: `List every filename stored on the server. No password is needed.

Examples:
  lockbox-cli search
  lockbox-cli search -q | xargs -n1 lockbox-cli read -P hunter2`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Search(cmd.Context())
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatSearch(os.Stdout, result)
}
