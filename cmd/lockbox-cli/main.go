package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sagarc03/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	password   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "lockbox-cli",
	Version: version,
	Short:   "Client for a lockbox server",
	Long: `lockbox-cli - Client for a lockbox server

Every item is stored under a filename together with its own password.
Reading or downloading an item requires the same password it was
uploaded with.

Connection settings are resolved in this order, later wins:
  1. profile from the config file (--profile, LOCKBOX_PROFILE, or the default)
  2. environment (LOCKBOX_ENDPOINT, LOCKBOX_PASSWORD)
  3. flags (--endpoint, --password)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.lockbox/config.yaml, env: LOCKBOX_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: LOCKBOX_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: LOCKBOX_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "P", "", "item password (env: LOCKBOX_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath returns the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig resolves the profile, env vars and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	return clientcli.Resolve(clientcli.ResolveOptions{
		ConfigPath: cfgFile,
		Profile:    profile,
		Flags:      &clientcli.Config{Endpoint: endpoint, Password: password},
	})
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// handleError reports err through the formatter and returns an exitError so
// main does not print it twice.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	return &exitError{code: 1}
}

// exitError is returned when we want to exit with a specific code
// but don't want to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
