package main

import (
	"os"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <filename>",
	Short: "Print the content of an item",
	Long: `Print the content of an item to stdout.

Examples:
  lockbox-cli read -P hunter2 notes.txt
  lockbox-cli read --json notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Read(cmd.Context(), args[0], "")
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatRead(os.Stdout, result)
}
