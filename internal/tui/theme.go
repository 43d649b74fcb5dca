// Package tui provides terminal user interface components.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

// ResolveTheme loads a theme with the following precedence:
//  1. NO_COLOR env var set → NoColorTheme
//  2. REELSCOUT_THEME env var → custom colors.toml file
//  3. User theme from ~/.config/reelscout/theme/colors.toml
//  4. Default theme
//
// The theme directory may be a symlink into another theme system:
//
//	ln -s ~/.config/omarchy/current/theme ~/.config/reelscout/theme
func ResolveTheme() Theme {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NoColorTheme()
	}

	if path := os.Getenv("REELSCOUT_THEME"); path != "" {
		if theme, err := LoadThemeFromFile(path); err == nil {
			return theme
		}
	}

	if theme, err := LoadUserTheme(); err == nil {
		return theme
	}

	return DefaultTheme()
}

// NoColorTheme returns a theme with empty colors.
// Lipgloss treats empty strings as "no color", resulting in plain text output.
func NoColorTheme() Theme {
	empty := lipgloss.AdaptiveColor{Light: "", Dark: ""}
	return Theme{
		Primary:    empty,
		Secondary:  empty,
		Success:    empty,
		Warning:    empty,
		Error:      empty,
		Muted:      empty,
		Background: empty,
		Foreground: empty,
		Border:     empty,
		Rating:     empty,
	}
}

// ThemePath returns the colors.toml ResolveTheme prefers, or "" when
// NO_COLOR is set.
func ThemePath() string {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return ""
	}
	if path := os.Getenv("REELSCOUT_THEME"); path != "" {
		return path
	}
	return userThemePath()
}

func userThemePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "reelscout", "theme", "colors.toml")
}

// LoadUserTheme loads ~/.config/reelscout/theme/colors.toml.
func LoadUserTheme() (Theme, error) {
	path := userThemePath()
	if path == "" {
		return Theme{}, os.ErrNotExist
	}
	return LoadThemeFromFile(path)
}

// LoadThemeFromFile parses a colors.toml file and returns a Theme.
func LoadThemeFromFile(path string) (Theme, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path from trusted config
	if err != nil {
		return Theme{}, err
	}

	colors, err := parseColors(data)
	if err != nil {
		return Theme{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return mapColorsToTheme(colors), nil
}

// parseColors decodes a colors.toml document and keeps the top-level keys
// whose values are hex colors. Tables and non-color values are ignored.
func parseColors(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	result := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if isValidHexColor(s) {
			result[k] = s
		}
	}
	return result, nil
}

// isValidHexColor checks for #RGB or #RRGGBB.
func isValidHexColor(s string) bool {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 3 && len(hex) != 6) {
		return false
	}
	for _, c := range hex {
		isDigit := c >= '0' && c <= '9'
		isLower := c >= 'a' && c <= 'f'
		isUpper := c >= 'A' && c <= 'F'
		if !isDigit && !isLower && !isUpper {
			return false
		}
	}
	return true
}

// mapColorsToTheme maps colors.toml names onto theme roles.
//
//	accent, color4  → Primary
//	color7          → Secondary
//	color2          → Success
//	color3          → Warning, Rating
//	color1          → Error
//	color8, color0  → Muted, Border
//	background      → Background
//	foreground      → Foreground
func mapColorsToTheme(colors map[string]string) Theme {
	defaults := DefaultTheme()

	pick := func(def lipgloss.AdaptiveColor, keys ...string) lipgloss.AdaptiveColor {
		for _, k := range keys {
			if v, ok := colors[k]; ok {
				// Terminal themes are typically dark; only the Dark variant is replaced.
				return lipgloss.AdaptiveColor{Light: def.Light, Dark: v}
			}
		}
		return def
	}

	return Theme{
		Primary:    pick(defaults.Primary, "accent", "color4"),
		Secondary:  pick(defaults.Secondary, "color7"),
		Success:    pick(defaults.Success, "color2"),
		Warning:    pick(defaults.Warning, "color3"),
		Error:      pick(defaults.Error, "color1"),
		Muted:      pick(defaults.Muted, "color8", "color0"),
		Background: pick(defaults.Background, "background"),
		Foreground: pick(defaults.Foreground, "foreground"),
		Border:     pick(defaults.Border, "color8", "color0"),
		Rating:     pick(defaults.Rating, "color3"),
	}
}
