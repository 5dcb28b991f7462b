package clientcli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the default server endpoint URL.
const DefaultEndpoint = "http://localhost:8080"

// Profile holds configuration for a single server profile.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Password string `yaml:"password,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// Validate checks the profile has a name and an http(s) endpoint.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	u, err := url.Parse(p.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q must be an http:// or https:// URL", ErrInvalidProfile, p.Endpoint)
	}
	return nil
}

// ConfigFile is the on-disk list of profiles. At most one profile is
// marked default; with none marked the first one is the default.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return i
		}
	}
	return -1
}

// GetProfile returns the profile by name, or the default profile for "".
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if name == "" {
		return c.GetDefaultProfile()
	}
	if i := c.index(name); i >= 0 {
		return &c.Profiles[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// GetDefaultProfile returns the profile marked default, else the first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return &c.Profiles[i], nil
		}
	}
	return &c.Profiles[0], nil
}

// DefaultName returns the name of the default profile, or "" when empty.
func (c *ConfigFile) DefaultName() string {
	p, err := c.GetDefaultProfile()
	if err != nil {
		return ""
	}
	return p.Name
}

// SetProfile adds p, or replaces the profile with the same name. A default
// p clears the flag on every other profile. The first profile added always
// becomes the default. Reports whether p was newly added.
func (c *ConfigFile) SetProfile(p Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	p.Endpoint = strings.TrimSuffix(p.Endpoint, "/")

	if len(c.Profiles) == 0 {
		p.Default = true
	}
	if p.Default {
		for i := range c.Profiles {
			c.Profiles[i].Default = false
		}
	}

	if i := c.index(p.Name); i >= 0 {
		c.Profiles[i] = p
		return false, nil
	}
	c.Profiles = append(c.Profiles, p)
	return true, nil
}

// RemoveProfile removes a profile by name.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
	return nil
}

// SetDefault marks name as the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	i := c.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for j := range c.Profiles {
		c.Profiles[j].Default = j == i
	}
	return nil
}

// ProfileNames returns the names of all profiles in file order.
func (c *ConfigFile) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i := range c.Profiles {
		names[i] = c.Profiles[i].Name
	}
	return names
}

// Save writes the config to path with owner-only permissions, since
// profiles may hold passwords.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile loads the config file from path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// LoadOrEmpty loads path, returning an empty ConfigFile if it does not exist.
func LoadOrEmpty(path string) (*ConfigFile, error) {
	cfg, err := LoadConfigFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ConfigFile{}, nil
	}
	return cfg, err
}

// DefaultConfigPath returns ~/.lockbox/config.yaml, or "" without a home.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lockbox", "config.yaml")
}

// Config holds resolved client configuration for a single server.
type Config struct {
	Endpoint string
	// Password is used when an operation is not given one explicitly.
	Password string
}

// WithDefaults returns a copy with Endpoint defaulted to DefaultEndpoint.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// ConfigFromProfile creates a Config from a Profile.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, Password: p.Password}
}

// ConfigFromEnv reads LOCKBOX_ENDPOINT and LOCKBOX_PASSWORD.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint: os.Getenv("LOCKBOX_ENDPOINT"),
		Password: os.Getenv("LOCKBOX_PASSWORD"),
	}
}

// ProfileFromEnv returns LOCKBOX_PROFILE.
func ProfileFromEnv() string {
	return os.Getenv("LOCKBOX_PROFILE")
}

// ConfigPathFromEnv returns LOCKBOX_CLI_CONFIG.
func ConfigPathFromEnv() string {
	return os.Getenv("LOCKBOX_CLI_CONFIG")
}

// MergeConfig merges configs left to right. Empty fields never override.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if cfg.Endpoint != "" {
			result.Endpoint = cfg.Endpoint
		}
		if cfg.Password != "" {
			result.Password = cfg.Password
		}
	}
	return result
}

// ResolveOptions names the sources Resolve merges.
type ResolveOptions struct {
	ConfigPath string  // explicit config file; "" falls back to env, then default path
	Profile    string  // explicit profile; "" falls back to env, then the default profile
	Flags      *Config // highest precedence
}

// Resolve merges profile, environment and flags, later wins. A config file
// or profile that was asked for explicitly must exist; the default file may
// be missing.
func Resolve(opts ResolveOptions) (*Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = ConfigPathFromEnv()
	}
	explicitPath := path != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	name := opts.Profile
	if name == "" {
		name = ProfileFromEnv()
	}

	var fromProfile *Config
	if path != "" {
		file, err := LoadConfigFile(path)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(name)
			if profileErr == nil {
				fromProfile = ConfigFromProfile(p)
			} else if name != "" {
				return nil, profileErr
			}
		case explicitPath || name != "":
			return nil, err
		}
	}

	return MergeConfig(fromProfile, ConfigFromEnv(), opts.Flags), nil
}
