package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Background lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Rating     lipgloss.AdaptiveColor
}

// DefaultTheme returns the default reelscout theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:    lipgloss.AdaptiveColor{Light: "#6c4bd8", Dark: "#ab8bff"},
		Secondary:  lipgloss.AdaptiveColor{Light: "#5f6368", Dark: "#a8b5db"},
		Success:    lipgloss.AdaptiveColor{Light: "#1e8e3e", Dark: "#81c995"},
		Warning:    lipgloss.AdaptiveColor{Light: "#b06000", Dark: "#fdd663"},
		Error:      lipgloss.AdaptiveColor{Light: "#d93025", Dark: "#f87171"},
		Muted:      lipgloss.AdaptiveColor{Light: "#80868b", Dark: "#9ca4ab"},
		Background: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#030014"},
		Foreground: lipgloss.AdaptiveColor{Light: "#202124", Dark: "#ffffff"},
		Border:     lipgloss.AdaptiveColor{Light: "#dadce0", Dark: "#221f3d"},
		Rating:     lipgloss.AdaptiveColor{Light: "#b06000", Dark: "#ffd875"},
	}
}

// Styles holds the styled components for the TUI.
type Styles struct {
	theme Theme

	// Text styles
	Title   lipgloss.Style
	Heading lipgloss.Style
	Accent  lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Rating  lipgloss.Style

	// Containers
	SearchBar        lipgloss.Style
	SearchBarFocused lipgloss.Style
	Card             lipgloss.Style
	CardSelected     lipgloss.Style
	CardTitle        lipgloss.Style

	Spinner lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates a new Styles with the resolved user theme.
func NewStyles() *Styles {
	return NewStylesWithTheme(ResolveTheme())
}

// NewStylesWithTheme creates a new Styles with a custom theme.
func NewStylesWithTheme(theme Theme) *Styles {
	s := &Styles{theme: theme}

	s.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	s.Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Foreground)

	s.Accent = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	s.Body = lipgloss.NewStyle().
		Foreground(theme.Foreground)

	s.Muted = lipgloss.NewStyle().
		Foreground(theme.Muted)

	s.Success = lipgloss.NewStyle().
		Foreground(theme.Success)

	s.Warning = lipgloss.NewStyle().
		Foreground(theme.Warning)

	s.Error = lipgloss.NewStyle().
		Foreground(theme.Error)

	s.Rating = lipgloss.NewStyle().
		Foreground(theme.Rating)

	s.SearchBar = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	s.SearchBarFocused = s.SearchBar.
		BorderForeground(theme.Primary)

	s.Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	s.CardSelected = s.Card.
		BorderForeground(theme.Primary)

	s.CardTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Foreground)

	s.Spinner = lipgloss.NewStyle().
		Foreground(theme.Primary)

	s.Help = lipgloss.NewStyle().
		Foreground(theme.Muted)

	return s
}

// Theme returns the current theme.
func (s *Styles) Theme() Theme {
	return s.theme
}

// RenderStatus renders a status message with appropriate styling.
func (s *Styles) RenderStatus(ok bool, message string) string {
	if ok {
		return s.Success.Render("✓ " + message)
	}
	return s.Error.Render("✗ " + message)
}
