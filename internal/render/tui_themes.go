package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat interface
type TUITheme struct {
	Name        string
	Description string

	Surface lipgloss.Color
	Border  lipgloss.Color

	// Primary colors the bot, Secondary the user.
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color

	// Markdown is the glamour style that fits the palette.
	Markdown string
}

// DefaultTUITheme is used when no theme is configured
const DefaultTUITheme = "tokyonight"

var tuiThemes = []TUITheme{
	{
		Name:        "tokyonight",
		Description: "Tokyo Night, dark with blue accents",
		Surface:     "#24283b", Border: "#414868",
		Primary: "#7aa2f7", Secondary: "#9ece6a", Accent: "#bb9af7",
		Warning: "#e0af68", Error: "#f7768e",
		Text: "#c0caf5", TextDim: "#565f89", TextMute: "#3b4261",
		Markdown: StyleTokyoNight,
	},
	{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha, warm pastels",
		Surface:     "#313244", Border: "#45475a",
		Primary: "#89b4fa", Secondary: "#a6e3a1", Accent: "#cba6f7",
		Warning: "#f9e2af", Error: "#f38ba8",
		Text: "#cdd6f4", TextDim: "#6c7086", TextMute: "#45475a",
		Markdown: StyleDark,
	},
	{
		Name:        "nord",
		Description: "Nord, cool arctic tones",
		Surface:     "#3b4252", Border: "#4c566a",
		Primary: "#88c0d0", Secondary: "#a3be8c", Accent: "#b48ead",
		Warning: "#ebcb8b", Error: "#bf616a",
		Text: "#eceff4", TextDim: "#7b88a1", TextMute: "#4c566a",
		Markdown: StyleDark,
	},
	{
		Name:        "dracula",
		Description: "Dracula, vibrant on dark",
		Surface:     "#44475a", Border: "#6272a4",
		Primary: "#8be9fd", Secondary: "#50fa7b", Accent: "#ff79c6",
		Warning: "#f1fa8c", Error: "#ff5555",
		Text: "#f8f8f2", TextDim: "#6272a4", TextMute: "#44475a",
		Markdown: StyleDracula,
	},
}

var (
	themeMu         sync.RWMutex
	currentTUITheme = tuiThemes[0]
)

// GetTUITheme returns the active theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates the theme called name and reports whether it exists
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName looks a theme up by name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, theme := range tuiThemes {
		if theme.Name == name {
			return theme, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes returns every built-in theme
func AvailableTUIThemes() []TUITheme {
	out := make([]TUITheme, len(tuiThemes))
	copy(out, tuiThemes)
	return out
}

// TUIThemeNames returns the theme names in display order
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
