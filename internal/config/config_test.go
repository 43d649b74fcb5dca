package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, v any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestDefault(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg := Default()

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.APIBaseURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500", cfg.ImageBaseURL)
	assert.Equal(t, "en-US", cfg.Language)
	assert.False(t, cfg.IncludeAdult)
	assert.Equal(t, 500, cfg.DebounceMS)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, AnalyticsLocal, cfg.Analytics)
	assert.Equal(t, "https://cloud.appwrite.io/v1", cfg.AppwriteEndpoint)
	assert.Equal(t, "/tmp/xdg-cache/reelscout", cfg.CacheDir)
	assert.Equal(t, "auto", cfg.Format)
	assert.Equal(t, "default", cfg.Sources["debounce_ms"])
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"api_base_url":           "http://tmdb.test/3",
		"language":               "fr-FR",
		"include_adult":          true,
		"debounce_ms":            250,
		"analytics":              "appwrite",
		"appwrite_project_id":    "proj",
		"appwrite_database_id":   "db",
		"appwrite_collection_id": "metrics",
		"cache_dir":              "/tmp/cache",
		"format":                 "json",
	})

	cfg := Default()
	loadFromFile(cfg, path, SourceGlobal)

	assert.Equal(t, "http://tmdb.test/3", cfg.APIBaseURL)
	assert.Equal(t, "fr-FR", cfg.Language)
	assert.True(t, cfg.IncludeAdult)
	assert.Equal(t, 250, cfg.DebounceMS)
	assert.Equal(t, AnalyticsAppwrite, cfg.Analytics)
	assert.Equal(t, "proj", cfg.AppwriteProjectID)
	assert.Equal(t, "db", cfg.AppwriteDatabaseID)
	assert.Equal(t, "metrics", cfg.AppwriteCollectionID)
	assert.Equal(t, "/tmp/cache", cfg.CacheDir)
	assert.Equal(t, "json", cfg.Format)

	assert.Equal(t, "global", cfg.Sources["api_base_url"])
	assert.Equal(t, "global", cfg.Sources["debounce_ms"])
	assert.Equal(t, "default", cfg.Sources["image_base_url"])
}

func TestLoadFromFileSkipsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("not valid json"), 0644))

	cfg := Default()
	loadFromFile(cfg, path, SourceGlobal)

	assert.Equal(t, "https://api.themoviedb.org/3", cfg.APIBaseURL)
}

func TestLoadFromFileSkipsMissingFile(t *testing.T) {
	cfg := Default()
	loadFromFile(cfg, "/nonexistent/path/config.json", SourceGlobal)

	assert.Equal(t, "en-US", cfg.Language)
}

func TestLoadFromFileRejectsOutOfRangeDebounce(t *testing.T) {
	for _, v := range []any{-1, MaxDebounceMS + 1, 12.5, "300"} {
		cfg := Default()
		loadFromFile(cfg, writeConfig(t, map[string]any{"debounce_ms": v}), SourceGlobal)
		assert.Equal(t, 500, cfg.DebounceMS, "debounce_ms=%v should be ignored", v)
	}
}

func TestLoadFromFileRejectsUnknownAnalytics(t *testing.T) {
	cfg := Default()
	loadFromFile(cfg, writeConfig(t, map[string]any{"analytics": "firebase"}), SourceGlobal)
	assert.Equal(t, AnalyticsLocal, cfg.Analytics)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REELSCOUT_API_BASE_URL", "http://env.test/3")
	t.Setenv("REELSCOUT_LANGUAGE", "de-DE")
	t.Setenv("REELSCOUT_INCLUDE_ADULT", "1")
	t.Setenv("REELSCOUT_DEBOUNCE_MS", "0")
	t.Setenv("REELSCOUT_ANALYTICS", "off")
	t.Setenv("REELSCOUT_CACHE_DIR", "/tmp/env-cache")
	t.Setenv("APPWRITE_PROJECT_ID", "env-proj")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, "http://env.test/3", cfg.APIBaseURL)
	assert.Equal(t, "de-DE", cfg.Language)
	assert.True(t, cfg.IncludeAdult)
	assert.Equal(t, 0, cfg.DebounceMS)
	assert.Equal(t, AnalyticsOff, cfg.Analytics)
	assert.Equal(t, "/tmp/env-cache", cfg.CacheDir)
	assert.Equal(t, "env-proj", cfg.AppwriteProjectID)
	assert.Equal(t, "env", cfg.Sources["language"])
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("REELSCOUT_INCLUDE_ADULT", "maybe")
	t.Setenv("REELSCOUT_DEBOUNCE_MS", "soon")
	t.Setenv("REELSCOUT_ANALYTICS", "firebase")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.False(t, cfg.IncludeAdult)
	assert.Equal(t, 500, cfg.DebounceMS)
	assert.Equal(t, AnalyticsLocal, cfg.Analytics)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	err := ApplyOverrides(cfg, FlagOverrides{
		CacheDir:  "/tmp/flag-cache",
		Format:    "markdown",
		Language:  "ja-JP",
		Analytics: "off",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/flag-cache", cfg.CacheDir)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, "ja-JP", cfg.Language)
	assert.Equal(t, AnalyticsOff, cfg.Analytics)
	assert.Equal(t, "flag", cfg.Sources["analytics"])
}

func TestApplyOverridesRejectsBadAnalytics(t *testing.T) {
	err := ApplyOverrides(Default(), FlagOverrides{Analytics: "firebase"})
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reelscout"), 0755))
	data, _ := json.Marshal(map[string]any{"language": "it-IT", "format": "json", "debounce_ms": 300})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reelscout", "config.json"), data, 0644))

	t.Setenv("REELSCOUT_LANGUAGE", "es-ES")

	cfg, err := Load(FlagOverrides{Format: "styled"})
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.DebounceMS, "global file beats default")
	assert.Equal(t, "es-ES", cfg.Language, "env beats global file")
	assert.Equal(t, "styled", cfg.Format, "flag beats global file")
	assert.Equal(t, "global", cfg.Sources["debounce_ms"])
}

func TestGlobalConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/reelscout", GlobalConfigDir())
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.themoviedb.org/3", NormalizeBaseURL("https://api.themoviedb.org/3/"))
	assert.Equal(t, "https://api.themoviedb.org/3", NormalizeBaseURL("https://api.themoviedb.org/3"))
}
