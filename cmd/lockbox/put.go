package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox"
	"github.com/sagarc03/lockbox/config"
)

var putCmd = &cobra.Command{
	Use:   "put [flags] <file1> [file2] ...",
	Short: "Store local files as lockbox items",
	Long: `Store local files directly in the configured store, bypassing HTTP.

Each file becomes one item named after its base name, protected by the
given password. Existing items with the same name are overwritten unless
--no-clobber is set. Use "-" to read a single item from stdin together
with --name.

Examples:
  # Store a file
  lockbox put --password s3cret notes.txt

  # Store under a different name
  lockbox put --password s3cret --name todo.txt notes.txt

  # Store stdin
  echo hello | lockbox put --password s3cret --name hello.txt -

  # Skip items that already exist
  lockbox put --password s3cret --no-clobber *.m3u`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPut,
}

var (
	putPassword  string
	putName      string
	putNoClobber bool
	putQuiet     bool
)

func init() {
	putCmd.Flags().StringVarP(&putPassword, "password", "p", "", "password protecting the items (required)")
	putCmd.Flags().StringVar(&putName, "name", "", "item name, only with a single file")
	putCmd.Flags().BoolVarP(&putNoClobber, "no-clobber", "n", false, "skip existing items instead of overwriting")
	putCmd.Flags().BoolVarP(&putQuiet, "quiet", "q", false, "suppress per-item output")
	_ = putCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(putCmd)
}

// putEntry is one local source and the item name it is stored under.
type putEntry struct {
	source string
	name   string
}

func runPut(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	entries, err := collectEntries(args, putName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	service, closeStore, err := openService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	stored := 0
	skipped := 0

	for _, entry := range entries {
		if putNoClobber {
			_, readErr := service.Read(ctx, entry.name, putPassword)
			switch {
			case readErr == nil, errors.Is(readErr, lockbox.ErrForbidden):
				skipped++
				if !putQuiet {
					slog.Info("skipped (exists)", "name", entry.name)
				}
				continue
			case !errors.Is(readErr, lockbox.ErrNotFound):
				return fmt.Errorf("check %s: %w", entry.name, readErr)
			}
		}

		content, readErr := readSource(cmd.InOrStdin(), entry.source)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", entry.source, readErr)
		}

		result, uploadErr := service.Upload(ctx, lockbox.UploadRequest{
			Filename: entry.name,
			Content:  content,
			Password: putPassword,
		})
		if uploadErr != nil {
			return fmt.Errorf("put %s: %w", entry.name, uploadErr)
		}

		stored++
		if !putQuiet {
			slog.Info("stored", "name", result.Filename, "bytes", len(content))
		}
	}

	slog.Info("put complete", "stored", stored, "skipped", skipped)
	return nil
}

// collectEntries maps arguments to item names. name overrides the base
// name and is required for stdin.
func collectEntries(args []string, name string) ([]putEntry, error) {
	if name != "" && len(args) > 1 {
		return nil, errors.New("--name can only be used with a single file")
	}

	entries := make([]putEntry, 0, len(args))
	for _, arg := range args {
		entry := putEntry{source: arg, name: name}

		if arg == "-" {
			if name == "" {
				return nil, errors.New("--name is required when reading stdin")
			}
			entries = append(entries, entry)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", arg)
		}

		if entry.name == "" {
			entry.name = filepath.Base(arg)
		}
		if !lockbox.IsValidFilename(entry.name) {
			return nil, fmt.Errorf("invalid item name %q", entry.name)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func readSource(stdin io.Reader, source string) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}

	data, err := os.ReadFile(source)
	return string(data), err
}
