package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/cartbox/internal/config"
)

const (
	stateMenu = iota
	stateLive
)

// App is the preset picker that opens a live view of the chosen preset.
type App struct {
	state   int
	cursor  int
	presets []string
	base    *config.Config
	log     *zap.Logger
	live    Model
	width   int
	height  int
}

// NewApp lists the named presets. base supplies everything except the
// preset's parameters and duration.
func NewApp(base *config.Config, log *zap.Logger) App {
	if log == nil {
		log = zap.NewNop()
	}
	return App{
		state:   stateMenu,
		presets: config.ListPresets(),
		base:    base,
		log:     log,
	}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		a.width, a.height = size.Width, size.Height
	}
	if a.state == stateLive {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "m" {
			a.state = stateMenu
			return a, nil
		}
		live, cmd := a.live.Update(msg)
		a.live = live.(Model)
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.open(a.presets[a.cursor])
	}
	return a, nil
}

func (a App) open(name string) (App, tea.Cmd) {
	cfg := *a.base
	preset := config.Presets[name]
	cfg.Params = preset.Params
	cfg.Frame.Duration = preset.Duration

	a.live = NewModel(&cfg, name, a.log)
	if a.width > 0 {
		live, _ := a.live.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		a.live = live.(Model)
	}
	a.state = stateLive
	a.log.Info("preset opened", zap.String("preset", name))
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateLive {
		return a.live.View()
	}

	theme := GetTheme(a.base.Theme)
	header := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	active := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	dim := lipgloss.NewStyle().Foreground(theme.Muted)

	var s strings.Builder
	s.WriteString("\n  " + header.Render("CARTBOX") + dim.Render("  cart and box on a frictional floor") + "\n\n")
	for i, name := range a.presets {
		line := fmt.Sprintf("%-12s %s", name, config.Presets[name].Description)
		if i == a.cursor {
			s.WriteString("  " + active.Render("> "+line) + "\n")
		} else {
			s.WriteString("    " + dim.Render(line) + "\n")
		}
	}
	s.WriteString("\n  " + dim.Render("↑↓ select · enter open · m back to menu · q quit") + "\n")
	return s.String()
}
