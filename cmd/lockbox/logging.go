package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/lockbox/config"
)

// setupLogging installs the process logger and routes the standard log
// package through it.
func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, cfg)))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo).Writer())
}

// newLogHandler writes JSON with UTC "ts" timestamps in production and
// colored text otherwise. An empty level means info in production and
// debug elsewhere.
func newLogHandler(w io.Writer, cfg *config.Config) slog.Handler {
	prod := cfg.IsProduction()

	fallback := slog.LevelDebug
	if prod {
		fallback = slog.LevelInfo
	}
	level := logLevel(cfg.Log.Level, fallback)

	if !prod {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: "15:04:05.000",
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})
}

// logLevel parses debug, info, warn (or warning) and error. Anything else
// yields fallback.
func logLevel(s string, fallback slog.Level) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var level slog.Level
	if s == "" || level.UnmarshalText([]byte(s)) != nil {
		return fallback
	}
	return level
}
