package main

import (
	"os"

	"github.com/sagarc03/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [local-path...]",
	Short: "Upload files to the server",
	Long: `Upload one or more text files. Each file is stored under its base name
with the given password, replacing any item of the same name.

Examples:
  lockbox-cli upload -P hunter2 ./notes.txt
  lockbox-cli upload -P hunter2 --name todo.txt ./draft.txt
  lockbox-cli upload -p home a.txt b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "store under this filename (single file only)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		Paths: args,
		Name:  uploadName,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
