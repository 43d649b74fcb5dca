package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/output"
)

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"api_base_url",
	"image_base_url",
	"language",
	"include_adult",
	"debounce_ms",
	"analytics",
	"appwrite_endpoint",
	"appwrite_project_id",
	"appwrite_database_id",
	"appwrite_collection_id",
	"cache_dir",
	"format",
}

// NewConfigCmd creates the config command for managing configuration.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage reelscout configuration.

Configuration is loaded from multiple sources with the following precedence:
  flags > env > global > system > defaults

Config locations:
  - System: /etc/reelscout/config.json
  - Global: ~/.config/reelscout/config.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigSetCmd(),
		newConfigUnsetCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  "Display the current effective configuration with source information.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
}

func configValue(cfg *config.Config, key string) string {
	switch key {
	case "api_base_url":
		return cfg.APIBaseURL
	case "image_base_url":
		return cfg.ImageBaseURL
	case "language":
		return cfg.Language
	case "include_adult":
		return strconv.FormatBool(cfg.IncludeAdult)
	case "debounce_ms":
		return strconv.Itoa(cfg.DebounceMS)
	case "analytics":
		return cfg.Analytics
	case "appwrite_endpoint":
		return cfg.AppwriteEndpoint
	case "appwrite_project_id":
		return cfg.AppwriteProjectID
	case "appwrite_database_id":
		return cfg.AppwriteDatabaseID
	case "appwrite_collection_id":
		return cfg.AppwriteCollectionID
	case "cache_dir":
		return cfg.CacheDir
	case "format":
		return cfg.Format
	}
	return ""
}

func runConfigShow(cmd *cobra.Command) error {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return fmt.Errorf("app not initialized")
	}

	configData := make(map[string]any, len(configKeys))
	for _, key := range configKeys {
		value := configValue(app.Config, key)
		source := app.Config.Sources[key]
		if value == "" && source == "" {
			continue
		}
		if source == "" {
			source = string(config.SourceDefault)
		}
		configData[key] = map[string]string{
			"value":  value,
			"source": source,
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration"),
		output.WithBreadcrumbs(
			output.Breadcrumb{
				Action:      "set",
				Cmd:         "reelscout config set <key> <value>",
				Description: "Set config value",
			},
		),
	)
}

func globalConfigFile() string {
	return filepath.Join(config.GlobalConfigDir(), "config.json")
}

// parseConfigValue validates value for key and returns what is written to
// the config file.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "include_adult":
		b, ok := parseBoolFlag(value)
		if !ok {
			return nil, output.ErrUsage("include_adult must be true/false (or 1/0)")
		}
		return b, nil
	case "debounce_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 || ms > config.MaxDebounceMS {
			return nil, output.ErrUsage(fmt.Sprintf("debounce_ms must be a whole number between 0 and %d", config.MaxDebounceMS))
		}
		return ms, nil
	case "analytics":
		switch value {
		case config.AnalyticsLocal, config.AnalyticsAppwrite, config.AnalyticsOff:
			return value, nil
		}
		return nil, output.ErrUsage("analytics must be local, appwrite or off")
	case "format":
		switch value {
		case "auto", "json", "markdown", "md", "styled", "quiet":
			return value, nil
		}
		return nil, output.ErrUsage("format must be auto, json, markdown, styled or quiet")
	}
	return value, nil
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the global config file.

Valid keys: ` + strings.Join(configKeys, ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			key, value := args[0], args[1]
			if !slices.Contains(configKeys, key) {
				return output.ErrUsage(fmt.Sprintf("Invalid config key %q. Valid keys: %s", key, strings.Join(configKeys, ", ")))
			}
			parsed, err := parseConfigValue(key, value)
			if err != nil {
				return err
			}

			configPath := globalConfigFile()
			if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			configData := make(map[string]any)
			if data, err := os.ReadFile(configPath); err == nil { //nolint:gosec // G304: Path is from trusted config location
				_ = json.Unmarshal(data, &configData) // Ignore error - start fresh if invalid
			}
			configData[key] = parsed

			data, err := json.MarshalIndent(configData, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if err := atomicWriteFile(configPath, append(data, '\n')); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			return app.OK(map[string]any{
				"key":    key,
				"value":  fmt.Sprint(parsed),
				"path":   configPath,
				"status": "set",
			},
				output.WithSummary(fmt.Sprintf("Set %s = %v", key, parsed)),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "show",
						Cmd:         "reelscout config show",
						Description: "View config",
					},
				),
			)
		},
	}
}

func parseBoolFlag(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the global config file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			key := args[0]
			configPath := globalConfigFile()

			configData := make(map[string]any)
			data, err := os.ReadFile(configPath) //nolint:gosec // G304: Path is from trusted config location
			if err != nil {
				return app.OK(map[string]any{
					"key":    key,
					"status": "not_found",
				}, output.WithSummary(fmt.Sprintf("Config file not found: %s", configPath)))
			}
			_ = json.Unmarshal(data, &configData) // Ignore error - treat as empty

			if _, exists := configData[key]; !exists {
				return app.OK(map[string]any{
					"key":    key,
					"status": "not_set",
				}, output.WithSummary(fmt.Sprintf("Key not set: %s", key)))
			}
			delete(configData, key)

			data, err = json.MarshalIndent(configData, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if err := atomicWriteFile(configPath, append(data, '\n')); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			return app.OK(map[string]any{
				"key":    key,
				"status": "unset",
			},
				output.WithSummary(fmt.Sprintf("Unset %s", key)),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "show",
						Cmd:         "reelscout config show",
						Description: "View config",
					},
				),
			)
		},
	}
}

// atomicWriteFile writes data to a file atomically using temp+rename.
// Files are always created with 0600 permissions (owner read/write only).
func atomicWriteFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows: rename fails when the destination exists.
	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS != "windows" {
			os.Remove(tmpPath)
			return err
		}
		_ = os.Remove(path)
		return os.Rename(tmpPath, path)
	}
	return nil
}
