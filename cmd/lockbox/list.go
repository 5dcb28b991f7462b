package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored item names",
	Long:  `List every stored item name in the store's order, one per line.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print a JSON array")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	service, closeStore, err := openService(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	names, err := service.Search(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		return enc.Encode(names)
	}

	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}
