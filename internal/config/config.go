// Package config provides layered configuration loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Analytics backends.
const (
	AnalyticsLocal    = "local"
	AnalyticsAppwrite = "appwrite"
	AnalyticsOff      = "off"
)

// MaxDebounceMS bounds the accepted quiet interval.
const MaxDebounceMS = 10000

// Config holds the resolved configuration.
type Config struct {
	// TMDB settings
	APIBaseURL   string `json:"api_base_url"`
	ImageBaseURL string `json:"image_base_url"`
	Language     string `json:"language"`
	IncludeAdult bool   `json:"include_adult"`

	// Search behavior
	DebounceMS int `json:"debounce_ms"`

	// Analytics settings
	Analytics            string `json:"analytics"`
	AppwriteEndpoint     string `json:"appwrite_endpoint"`
	AppwriteProjectID    string `json:"appwrite_project_id,omitempty"`
	AppwriteDatabaseID   string `json:"appwrite_database_id,omitempty"`
	AppwriteCollectionID string `json:"appwrite_collection_id,omitempty"`

	// Cache settings
	CacheDir string `json:"cache_dir"`

	// Output settings
	Format string `json:"format"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `json:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceSystem  Source = "system"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	CacheDir  string
	Format    string
	Language  string
	Analytics string
}

// Default returns the default configuration.
func Default() *Config {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}

	cfg := &Config{
		APIBaseURL:       "https://api.themoviedb.org/3",
		ImageBaseURL:     "https://image.tmdb.org/t/p/w500",
		Language:         "en-US",
		DebounceMS:       500,
		Analytics:        AnalyticsLocal,
		AppwriteEndpoint: "https://cloud.appwrite.io/v1",
		CacheDir:         filepath.Join(cacheDir, "reelscout"),
		Format:           "auto",
		Sources:          make(map[string]string),
	}
	for _, key := range []string{"api_base_url", "image_base_url", "language", "include_adult", "debounce_ms", "analytics", "appwrite_endpoint", "cache_dir", "format"} {
		cfg.Sources[key] = string(SourceDefault)
	}
	return cfg
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > global > system > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, systemConfigPath(), SourceSystem)
	loadFromFile(cfg, globalConfigPath(), SourceGlobal)

	LoadFromEnv(cfg)

	if err := ApplyOverrides(cfg, overrides); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fileCfg map[string]any
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	setString := func(key string, dst *string) {
		if v, ok := fileCfg[key].(string); ok && v != "" {
			*dst = v
			cfg.Sources[key] = string(source)
		}
	}

	setString("api_base_url", &cfg.APIBaseURL)
	setString("image_base_url", &cfg.ImageBaseURL)
	setString("language", &cfg.Language)
	setString("appwrite_endpoint", &cfg.AppwriteEndpoint)
	setString("appwrite_project_id", &cfg.AppwriteProjectID)
	setString("appwrite_database_id", &cfg.AppwriteDatabaseID)
	setString("appwrite_collection_id", &cfg.AppwriteCollectionID)
	setString("cache_dir", &cfg.CacheDir)
	setString("format", &cfg.Format)

	if v, ok := fileCfg["include_adult"].(bool); ok {
		cfg.IncludeAdult = v
		cfg.Sources["include_adult"] = string(source)
	}
	if v, ok := fileCfg["analytics"].(string); ok {
		if validAnalytics(v) {
			cfg.Analytics = v
			cfg.Sources["analytics"] = string(source)
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring analytics %q from %s (want local, appwrite or off)\n", v, path)
		}
	}
	if v, ok := fileCfg["debounce_ms"]; ok {
		if fv, ok := v.(float64); ok {
			iv := int(fv)
			if validDebounce(iv) && fv == float64(iv) {
				cfg.DebounceMS = iv
				cfg.Sources["debounce_ms"] = string(source)
			}
		}
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) {
	envString := func(name, key string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
			cfg.Sources[key] = string(SourceEnv)
		}
	}

	envString("REELSCOUT_API_BASE_URL", "api_base_url", &cfg.APIBaseURL)
	envString("REELSCOUT_IMAGE_BASE_URL", "image_base_url", &cfg.ImageBaseURL)
	envString("REELSCOUT_LANGUAGE", "language", &cfg.Language)
	envString("REELSCOUT_CACHE_DIR", "cache_dir", &cfg.CacheDir)
	envString("APPWRITE_ENDPOINT", "appwrite_endpoint", &cfg.AppwriteEndpoint)
	envString("APPWRITE_PROJECT_ID", "appwrite_project_id", &cfg.AppwriteProjectID)
	envString("APPWRITE_DATABASE_ID", "appwrite_database_id", &cfg.AppwriteDatabaseID)
	envString("APPWRITE_COLLECTION_ID", "appwrite_collection_id", &cfg.AppwriteCollectionID)

	if v := os.Getenv("REELSCOUT_INCLUDE_ADULT"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.IncludeAdult = b
			cfg.Sources["include_adult"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("REELSCOUT_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && validDebounce(n) {
			cfg.DebounceMS = n
			cfg.Sources["debounce_ms"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("REELSCOUT_ANALYTICS"); v != "" && validAnalytics(v) {
		cfg.Analytics = v
		cfg.Sources["analytics"] = string(SourceEnv)
	}
}

// parseEnvBool parses a boolean environment variable strictly.
// Returns (value, true) for recognized values, (false, false) for unrecognized.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

func validAnalytics(v string) bool {
	switch v {
	case AnalyticsLocal, AnalyticsAppwrite, AnalyticsOff:
		return true
	}
	return false
}

func validDebounce(ms int) bool {
	return ms >= 0 && ms <= MaxDebounceMS
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) error {
	if o.CacheDir != "" {
		cfg.CacheDir = o.CacheDir
		cfg.Sources["cache_dir"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	if o.Language != "" {
		cfg.Language = o.Language
		cfg.Sources["language"] = string(SourceFlag)
	}
	if o.Analytics != "" {
		if !validAnalytics(o.Analytics) {
			return fmt.Errorf("invalid --analytics %q: want local, appwrite or off", o.Analytics)
		}
		cfg.Analytics = o.Analytics
		cfg.Sources["analytics"] = string(SourceFlag)
	}
	return nil
}

// Debounce returns the configured quiet interval.
func (cfg *Config) Debounce() time.Duration {
	return time.Duration(cfg.DebounceMS) * time.Millisecond
}

// Path helpers

func systemConfigPath() string {
	return "/etc/reelscout/config.json"
}

func globalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.json")
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "reelscout")
}

// NormalizeBaseURL ensures consistent URL format (no trailing slash).
func NormalizeBaseURL(url string) string {
	return strings.TrimSuffix(url, "/")
}
