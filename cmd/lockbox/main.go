package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "lockbox",
	Short:   "Password protected text store with a playback client gate",
	Long: `Lockbox stores small text items under a filename, each protected by
its own password, and serves them over HTTP. Requests from recognised
playback clients are routed through a challenge and session flow.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged in order (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("store-type", "", "store type: sqlite, postgres, bolt, redis, s3, filesystem, memory (env: LOCKBOX_STORE_TYPE)")
	rootCmd.PersistentFlags().String("store-dsn", "", "store connection string or path (env: LOCKBOX_STORE_DSN)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: LOCKBOX_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env", "", "environment: dev or prod (env: LOCKBOX_ENV)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
