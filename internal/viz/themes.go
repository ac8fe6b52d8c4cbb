package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the report and the watch view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Good    lipgloss.Color
	Warn    lipgloss.Color
	Bad     lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:    "night",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Good:    lipgloss.Color("#00ff88"),
		Warn:    lipgloss.Color("#ffcc00"),
		Bad:     lipgloss.Color("#ff4444"),
	}

	ThemeWorkshop = Theme{
		Name:    "workshop",
		Primary: lipgloss.Color("#d08c3c"),
		Accent:  lipgloss.Color("#6fa8dc"),
		Text:    lipgloss.Color("#f3e9dc"),
		Muted:   lipgloss.Color("#7d6b5d"),
		Good:    lipgloss.Color("#93c47d"),
		Warn:    lipgloss.Color("#f1c232"),
		Bad:     lipgloss.Color("#cc4125"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#bbbbbb"),
		Text:    lipgloss.Color("#eeeeee"),
		Muted:   lipgloss.Color("#777777"),
		Good:    lipgloss.Color("#ffffff"),
		Warn:    lipgloss.Color("#bbbbbb"),
		Bad:     lipgloss.Color("#888888"),
	}

	CurrentTheme = ThemeNight

	Themes = []Theme{ThemeNight, ThemeWorkshop, ThemeMono}
)

// GetTheme returns a theme by name, falling back to night.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemeNight
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
