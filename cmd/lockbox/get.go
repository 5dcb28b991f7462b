package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox/config"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print or save one item",
	Long: `Read an item directly from the configured store and check its password.

Examples:
  lockbox get --password s3cret notes.txt
  lockbox get --password s3cret -o ./notes.txt notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var (
	getPassword string
	getOutput   string
)

func init() {
	getCmd.Flags().StringVarP(&getPassword, "password", "p", "", "item password (required)")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "write content to this file instead of stdout")
	_ = getCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	service, closeStore, err := openService(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	item, err := service.Read(cmd.Context(), args[0], getPassword)
	if err != nil {
		return err
	}

	if getOutput != "" {
		if err := os.WriteFile(getOutput, []byte(item.Content), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", getOutput, err)
		}
		return nil
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), item.Content)
	return err
}
