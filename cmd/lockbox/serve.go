package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/lockbox/authgate"
	"github.com/sagarc03/lockbox/classifier"
	"github.com/sagarc03/lockbox/config"
	lockboxhttp "github.com/sagarc03/lockbox/http"
	"github.com/sagarc03/lockbox/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the lockbox HTTP server.

Requests are classified with the rules under "classifier". With no rules
configured every request is served as a normal client.`,
	RunE: runServe,
}

var serveMigrate bool

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (default: 8080, env: LOCKBOX_SERVER_PORT)")
	serveCmd.Flags().String("public-url", "", "base URL used in file links (env: LOCKBOX_SERVER_PUBLIC_URL)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create missing tables or buckets before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, closeStore, err := openService(ctx, cfg, serveMigrate)
	if err != nil {
		return err
	}
	defer closeStore()

	keys, err := loadKeyRing(cfg.Keys)
	if err != nil {
		return err
	}

	tokens := classifier.NewTokens(keys, cfg.Classifier.ChallengeTTL, cfg.Classifier.SessionTTL)
	detector := classifier.HeaderRules{
		UserAgents:      cfg.Classifier.UserAgents,
		RequiredHeaders: cfg.Classifier.RequiredHeaders,
	}
	if !cfg.Classifier.Enabled() {
		slog.Info("no classifier rules configured, all requests are normal clients")
	}

	segment := cfg.Classifier.Segment
	auth := lockboxhttp.ClientAuth{
		Classifier: classifier.New(detector, tokens, cfg.Classifier.FingerprintHeaders),
		Gate:       authgate.New(tokens, cfg.Classifier.Scheme, lockboxhttp.PagePath(segment), lockboxhttp.VerifyPath(segment)),
		Tokens:     tokens,
	}

	handler := lockboxhttp.NewHandler(&lockboxhttp.HandlerConfig{
		ClassifiedSegment: segment,
		Scheme:            cfg.Classifier.Scheme,
		PublicURL:         cfg.Server.PublicURL,
		MaxUploadBytes:    cfg.Server.MaxUploadBytes,
		CORS:              cfg.CORS,
	}, service, auth)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "store", cfg.Store.Type, "classified_path", lockboxhttp.PagePath(segment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadKeyRing builds the token signing keys. Without configured keys a
// random key is generated, so tokens do not survive a restart.
func loadKeyRing(cfg keybackend.KeysConfig) (*keybackend.MapKeyRing, error) {
	keys, err := keybackend.NewKeyRing(cfg)
	if err == nil {
		return keys, nil
	}
	if !errors.Is(err, keybackend.ErrNoKeys) {
		return nil, fmt.Errorf("load signing keys: %w", err)
	}

	keys, err = keybackend.Ephemeral()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	keyID, _ := keys.Active()
	slog.Warn("no signing keys configured, using an ephemeral key", "key_id", keyID)
	return keys, nil
}
