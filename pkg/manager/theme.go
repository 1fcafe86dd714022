package manager

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme provides the lipgloss styles used by the TUI.
// All hooks are safe to call even when theming is disabled; they fall back to plain strings.
//
// Sources (in priority order):
// 1) Explicit name passed to LoadTheme (the config "theme" key)
// 2) Env var SWITCH_MANAGER_THEME = none | dark | light | catppuccin | catppuccin-mocha
// 3) Auto-detection: disabled when the terminal has no color (NO_COLOR, TERM=dumb),
//    otherwise dark or light by background.
type Theme struct {
	Enabled bool
	Name    string

	Header    lipgloss.Style
	Accent    lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Separator lipgloss.Style
	Help      lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warn      lipgloss.Style

	// Border frames overlays (output, detail, help).
	Border lipgloss.Style
}

// ThemeEnvVar selects a theme when the config does not.
const ThemeEnvVar = "SWITCH_MANAGER_THEME"

// LoadTheme resolves a theme by name, then by environment, then automatically.
func LoadTheme(name string) Theme {
	if t, ok := themeByName(name); ok {
		return t
	}
	if t, ok := themeByName(os.Getenv(ThemeEnvVar)); ok {
		return t
	}
	return AutoTheme()
}

func themeByName(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off", "disabled":
		return NoTheme(), true
	case "catppuccin", "catppuccin-mocha", "mocha":
		return CatppuccinMochaTheme(), true
	case "light":
		return LightTheme(), true
	case "dark":
		return DarkTheme(), true
	default:
		return Theme{}, false
	}
}

// NoTheme disables all styling.
func NoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:      "none",
		Header:    plain,
		Accent:    plain,
		Selected:  plain.Reverse(true),
		Dim:       plain,
		Separator: plain,
		Help:      plain,
		Error:     plain,
		Success:   plain,
		Warn:      plain,
		Border:    plain.Border(lipgloss.NormalBorder()),
	}
}

// AutoTheme enables theming whenever the terminal supports color.
func AutoTheme() Theme {
	if termenv.EnvColorProfile() == termenv.Ascii {
		return NoTheme()
	}
	if !termenv.HasDarkBackground() {
		return LightTheme()
	}
	return DarkTheme()
}

// palette builds a theme from color values.
func palette(name string, header, accent, selected, dim, sep, errc, ok, warn lipgloss.TerminalColor) Theme {
	s := lipgloss.NewStyle()
	return Theme{
		Enabled:   true,
		Name:      name,
		Header:    s.Bold(true).Foreground(header),
		Accent:    s.Foreground(accent),
		Selected:  s.Bold(true).Foreground(selected),
		Dim:       s.Foreground(dim),
		Separator: s.Foreground(sep),
		Help:      s.Foreground(accent),
		Error:     s.Foreground(errc),
		Success:   s.Foreground(ok),
		Warn:      s.Foreground(warn),
		Border:    s.Border(lipgloss.RoundedBorder()).BorderForeground(accent),
	}
}

// DarkTheme provides a sane default palette for dark terminals.
func DarkTheme() Theme {
	return palette("dark",
		lipgloss.Color("15"), // header: bright white
		lipgloss.Color("6"),  // accent: cyan
		lipgloss.Color("15"), // selected
		lipgloss.Color("8"),  // dim
		lipgloss.Color("8"),  // separator
		lipgloss.Color("1"),  // error
		lipgloss.Color("2"),  // success
		lipgloss.Color("3"),  // warn
	)
}

// LightTheme provides a default palette for light terminals.
func LightTheme() Theme {
	return palette("light",
		lipgloss.Color("0"),
		lipgloss.Color("4"),
		lipgloss.Color("0"),
		lipgloss.Color("8"),
		lipgloss.Color("8"),
		lipgloss.Color("1"),
		lipgloss.Color("2"),
		lipgloss.Color("3"),
	)
}

// CatppuccinMochaTheme uses the Catppuccin Mocha palette.
func CatppuccinMochaTheme() Theme {
	return palette("catppuccin",
		lipgloss.Color("#cba6f7"), // mauve
		lipgloss.Color("#94e2d5"), // teal
		lipgloss.Color("#fab387"), // peach
		lipgloss.Color("#6c7086"), // overlay0
		lipgloss.Color("#585b70"), // surface2
		lipgloss.Color("#f38ba8"), // red
		lipgloss.Color("#a6e3a1"), // green
		lipgloss.Color("#f9e2af"), // yellow
	)
}

// HeaderLine applies header styling.
func (t Theme) HeaderLine(s string) string   { return t.Header.Render(s) }
func (t Theme) AccentText(s string) string   { return t.Accent.Render(s) }
func (t Theme) SelectedText(s string) string { return t.Selected.Render(s) }
func (t Theme) DimText(s string) string      { return t.Dim.Render(s) }
func (t Theme) HelpText(s string) string     { return t.Help.Render(s) }
func (t Theme) ErrorText(s string) string    { return t.Error.Render(s) }
func (t Theme) SuccessText(s string) string  { return t.Success.Render(s) }
func (t Theme) WarnText(s string) string     { return t.Warn.Render(s) }

// SeparatorRune returns a colored column separator (│).
func (t Theme) SeparatorRune() string { return t.Separator.Render("│") }
