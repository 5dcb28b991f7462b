package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/lockbox/database"
	lockboxhttp "github.com/sagarc03/lockbox/http"
	"github.com/sagarc03/lockbox/keybackend"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "LOCKBOX"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for lockbox.
type Config struct {
	Env        string                 `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server     ServerConfig           `mapstructure:"server"`
	Store      database.Config        `mapstructure:"store"`
	Service    ServiceConfig          `mapstructure:"service"`
	Keys       keybackend.KeysConfig  `mapstructure:"keys"`
	Classifier ClassifierConfig       `mapstructure:"classifier"`
	CORS       lockboxhttp.CORSConfig `mapstructure:"cors"`
	Log        LogConfig              `mapstructure:"log"`
}

// IsProduction reports whether Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	PublicURL       string        `mapstructure:"public_url" validate:"omitempty,url"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"min=1"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	BcryptCost   int `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
	ListPageSize int `mapstructure:"list_page_size" validate:"min=1,max=10000"`
}

// ClassifierConfig holds the detection rules and token lifetimes of the
// classified-client path.
type ClassifierConfig struct {
	Segment            string        `mapstructure:"segment" validate:"required,alphanum"`
	Scheme             string        `mapstructure:"scheme" validate:"required,alphanum"`
	UserAgents         []string      `mapstructure:"user_agents"`
	RequiredHeaders    []string      `mapstructure:"required_headers"`
	FingerprintHeaders []string      `mapstructure:"fingerprint_headers"`
	ChallengeTTL       time.Duration `mapstructure:"challenge_ttl" validate:"min=0"`
	SessionTTL         time.Duration `mapstructure:"session_ttl" validate:"min=0"`
}

// Enabled reports whether any detection rule is configured.
func (c ClassifierConfig) Enabled() bool {
	return len(c.UserAgents) > 0 || len(c.RequiredHeaders) > 0
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"store-type": "store.type",
	"store-dsn":  "store.dsn",
	"port":       "server.port",
	"public-url": "server.public_url",
	"log-level":  "log.level",
	"env":        "env",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// has a default so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.max_upload_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("store.type", database.TypeSQLite)
	v.SetDefault("store.dsn", "lockbox.db")
	v.SetDefault("store.tables.items", "lockbox_items")

	v.SetDefault("service.bcrypt_cost", 10)
	v.SetDefault("service.list_page_size", 100)

	v.SetDefault("keys.active", "")
	v.SetDefault("keys.file", "")

	v.SetDefault("classifier.segment", "player")
	v.SetDefault("classifier.scheme", "Playback")
	v.SetDefault("classifier.user_agents", []string{})
	v.SetDefault("classifier.required_headers", []string{})
	v.SetDefault("classifier.fingerprint_headers", []string{"User-Agent", "Accept-Language"})
	v.SetDefault("classifier.challenge_ttl", 5*time.Minute)
	v.SetDefault("classifier.session_ttl", 24*time.Hour)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.exposed_headers", []string{lockboxhttp.HeaderClient, lockboxhttp.HeaderFingerprint})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "")
}

// loadDotEnv exports the variables in each existing file. Variables already
// set in the environment win.
func loadDotEnv(files []string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("error reading env file", "file", f, "err", err)
		}
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > .env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Load .env, then bind environment variables
	loadDotEnv([]string{".env"})
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.Store.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
