package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme of the viewer.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var Themes = []Theme{
	{
		Name:      "default",
		Primary:   lipgloss.Color("86"),
		Secondary: lipgloss.Color("49"),
		Accent:    lipgloss.Color("205"),
		Text:      lipgloss.Color("252"),
		Muted:     lipgloss.Color("240"),
		Success:   lipgloss.Color("82"),
		Warning:   lipgloss.Color("220"),
		Error:     lipgloss.Color("196"),
	},
	{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"), // green phosphor
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Success:   lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
		Error:     lipgloss.Color("#ff0000"),
	},
	{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Success:   lipgloss.Color("#00ff00"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff0000"),
	},
	{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#00a8cc"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
		Error:     lipgloss.Color("#ff4444"),
	},
	{
		Name:      "sunset",
		Primary:   lipgloss.Color("#ff6b6b"), // coral
		Secondary: lipgloss.Color("#feca57"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Success:   lipgloss.Color("#5fd068"),
		Warning:   lipgloss.Color("#ffc048"),
		Error:     lipgloss.Color("#ff4757"),
	},
}

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Canvas      lipgloss.Style
	Stats       lipgloss.Style
	Header      lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	Param       lipgloss.Style
	ActiveParam lipgloss.Style
	Graph       lipgloss.Style
	Help        lipgloss.Style
	Phase       map[string]lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas:      lipgloss.NewStyle().Padding(1, 2).Foreground(t.Text),
		Stats:       lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(42),
		Header:      lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:       lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:       lipgloss.NewStyle().Foreground(t.Text),
		Param:       lipgloss.NewStyle().Foreground(t.Muted),
		ActiveParam: lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		Graph:       lipgloss.NewStyle().Foreground(t.Secondary).Padding(1, 0),
		Help:        lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		Phase: map[string]lipgloss.Style{
			"idle":     lipgloss.NewStyle().Foreground(t.Muted).Bold(true),
			"running":  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
			"paused":   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
			"settling": lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		},
	}
}
