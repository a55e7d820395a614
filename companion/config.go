package companion

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Config represents the configuration for the astro companion service.
type Config struct {
	// Default observer position, used until the user picks a location.
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	LocationLabel string  `json:"location_label"`

	// Web server settings.
	HTTPPort int `json:"http_port"` // Port for the web/health server (0 = disabled)

	// API settings.
	APITimeout          time.Duration `json:"api_timeout"`           // Timeout for outbound API calls
	UserAgent           string        `json:"user_agent"`            // User agent for API clients
	SpaceWeatherBaseURL string        `json:"spaceweather_base_url"` // Override for the SWPC base URL (empty = default)
	GeocodeBaseURL      string        `json:"geocode_base_url"`      // Override for the geocoding base URL (empty = default)
	GeocodeCacheSize    int           `json:"geocode_cache_size"`    // LRU entries for geocoding results

	// Snapshot history.
	PostgresConnString string `json:"postgres_conn_string"` // PostgreSQL connection string (empty = history disabled)
	DryRun             bool   `json:"dry_run"`              // Log history inserts instead of executing them

	// Preferences persistence.
	PrefsFile string `json:"prefs_file"` // Path for persisted user preferences

	// Logging settings.
	LogLevel  string `json:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `json:"log_format"` // Log format: text, json
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Latitude:         50.0755, // Prague, CZ
		Longitude:        14.4378, // Prague, CZ
		LocationLabel:    "Prague, CZ",
		HTTPPort:         0,
		APITimeout:       30 * time.Second,
		UserAgent:        "AstroCompanion/1.0 (username@example.com)",
		GeocodeCacheSize: 256,
		PrefsFile:        "prefs.json",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file.
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves the configuration to an io.Writer.
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be in [-90, 90], got: %g", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be in [-180, 180], got: %g", c.Longitude)
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be greater than 0, got: %s", c.APITimeout)
	}

	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be in [0, 65535], got: %d", c.HTTPPort)
	}

	if c.GeocodeCacheSize < 0 {
		return fmt.Errorf("geocode_cache_size cannot be negative, got: %d", c.GeocodeCacheSize)
	}

	return nil
}
