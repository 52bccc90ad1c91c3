package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingBaseURL is the configuration error for an unset API origin.
// It is terminal: nothing but fixing the configuration resolves it.
var ErrMissingBaseURL = errors.New("API base URL is not configured (set TRAVEL_API_BASE_URL or api.base_url)")

// DefaultDirName is the state directory created under the user's home.
const DefaultDirName = ".travelapp"

// Config holds all travel client configuration.
type Config struct {
	// API origin and transport
	API APIConfig `yaml:"api"`

	// Durable client storage
	Storage StorageConfig `yaml:"storage"`

	// Geolocation for trip search
	Geo GeoConfig `yaml:"geo"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the built-in defaults. The API base URL has no
// default on purpose.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout:    "30s",
			RetryCount: 0,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Geo: GeoConfig{
			Timeout:     "5s",
			FallbackLat: -6.890614,
			FallbackLng: 107.610531,
		},
		UI: UIConfig{
			PageSize: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.travelapp/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultDirName, "config.yaml")
	}
	return filepath.Join(home, DefaultDirName, "config.yaml")
}

// LoadDotEnv loads .env style files into the process environment. Variables
// already set win over file values and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRAVEL_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("TRAVEL_API_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("TRAVEL_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv("TRAVEL_STATE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("TRAVEL_GEO_TIMEOUT"); v != "" {
		c.Geo.Timeout = v
	}
	if v := os.Getenv("TRAVEL_ORIGIN"); v != "" {
		c.Geo.Origin = v
	}
	if v := os.Getenv("TRAVEL_DARK_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.DarkMode = b
		}
	}
	if v := os.Getenv("TRAVEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports configuration errors. A missing base URL is reported as
// ErrMissingBaseURL so callers can render it as a terminal state.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend: %s (valid: file, sqlite, memory)", c.Storage.Backend)
	}
	if c.UI.PageSize < 0 {
		return fmt.Errorf("invalid ui.page_size: %d", c.UI.PageSize)
	}
	return nil
}

// StateDir returns the directory holding storage, logs and the trip cache.
func (c *Config) StateDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// GetAPITimeout returns the per-request timeout.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetGeoTimeout returns the bounded wait for geolocation.
func (c *Config) GetGeoTimeout() time.Duration {
	d, err := time.ParseDuration(c.Geo.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}
