package main

import (
	"io"
	"os"

	"github.com/sagarc03/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <filename> [local-path]",
	Short: "Download an item to a file",
	Long: `Download an item through the server's download link.

Examples:
  lockbox-cli download -P hunter2 notes.txt
  lockbox-cli download -P hunter2 notes.txt ./backup/notes.txt
  lockbox-cli download -P hunter2 --stdout notes.txt | less`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Filename:  args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata goes to stderr so stdout stays the content
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
