// ABOUTME: Application configuration stored at XDG paths with environment overrides
// ABOUTME: Selects the remote backend and tunes the queue, resync and geocoder
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// Backend names.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Config holds every user-tunable setting.
type Config struct {
	Backend       string `json:"backend"`
	SpreadsheetID string `json:"spreadsheet_id,omitempty"`
	RecordsSheet  string `json:"records_sheet"`
	ZonesSheet    string `json:"zones_sheet"`
	DatabasePath  string `json:"database_path"`

	DrainInterval  Duration `json:"drain_interval"`
	ResyncInterval Duration `json:"resync_interval"`
	MaxAttempts    int      `json:"max_attempts"`

	GeocodeEndpoint string   `json:"geocode_endpoint"`
	GeocodeDelay    Duration `json:"geocode_delay"`
	GeocodeCacheDir string   `json:"geocode_cache_dir"`
	GeocodeCacheTTL Duration `json:"geocode_cache_ttl"`
	GeocodeMinScore float64  `json:"geocode_min_score"`
}

// Duration is a time.Duration that reads and writes as a string like "5s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid duration %s", string(b))
		}
		*d = Duration(n)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Dir returns the XDG data directory for the application.
func Dir() string {
	return filepath.Join(xdg.DataHome, "notaires")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:         BackendSheets,
		RecordsSheet:    "Notaires",
		ZonesSheet:      "Zones",
		DatabasePath:    filepath.Join(Dir(), "notaires.db"),
		DrainInterval:   Duration(5 * time.Second),
		ResyncInterval:  Duration(5 * time.Minute),
		MaxAttempts:     3,
		GeocodeEndpoint: "https://api-adresse.data.gouv.fr/search/",
		GeocodeDelay:    Duration(200 * time.Millisecond),
		GeocodeCacheDir: filepath.Join(Dir(), "geocode-cache"),
		GeocodeCacheTTL: Duration(30 * 24 * time.Hour),
		GeocodeMinScore: 0.5,
	}
}

// Load reads the config file, falling back to defaults when it does not exist.
// A .env file in the working directory is loaded first; environment variables
// override file values:
// - NOTAIRES_BACKEND
// - NOTAIRES_SPREADSHEET_ID
// - NOTAIRES_RECORDS_SHEET
// - NOTAIRES_ZONES_SHEET
// - NOTAIRES_DB
// - NOTAIRES_DRAIN_INTERVAL
// - NOTAIRES_RESYNC_INTERVAL
// - NOTAIRES_MAX_ATTEMPTS
// - NOTAIRES_GEOCODE_ENDPOINT
// - NOTAIRES_GEOCODE_DELAY.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(Path())
}

// LoadFrom reads the config at path and applies environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	} else {
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"NOTAIRES_BACKEND":          &cfg.Backend,
		"NOTAIRES_SPREADSHEET_ID":   &cfg.SpreadsheetID,
		"NOTAIRES_RECORDS_SHEET":    &cfg.RecordsSheet,
		"NOTAIRES_ZONES_SHEET":      &cfg.ZonesSheet,
		"NOTAIRES_DB":               &cfg.DatabasePath,
		"NOTAIRES_GEOCODE_ENDPOINT": &cfg.GeocodeEndpoint,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*Duration{
		"NOTAIRES_DRAIN_INTERVAL":  &cfg.DrainInterval,
		"NOTAIRES_RESYNC_INTERVAL": &cfg.ResyncInterval,
		"NOTAIRES_GEOCODE_DELAY":   &cfg.GeocodeDelay,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = Duration(d)
		}
	}

	if v := os.Getenv("NOTAIRES_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NOTAIRES_MAX_ATTEMPTS: %w", err)
		}
		cfg.MaxAttempts = n
	}
	return nil
}

// Validate checks settings that would otherwise fail later.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSheets, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSheets, BackendSQLite)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.GeocodeMinScore < 0 || c.GeocodeMinScore > 1 {
		return fmt.Errorf("geocode_min_score must be between 0 and 1, got %g", c.GeocodeMinScore)
	}
	return nil
}

// Save writes the config to path with restricted permissions.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
