package viz

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/cartbox/internal/config"
	"github.com/san-kum/cartbox/internal/export"
	"github.com/san-kum/cartbox/internal/scene"
)

const (
	canvasWidth     = 64
	canvasHeight    = 20
	statsWidth      = 46
	historyCapacity = 300
	snapshotScale   = 4
)

// Canvas position inside the rendered view, in terminal cells.
const (
	canvasLeft = 2
	canvasTop  = 1
)

type TickMsg time.Time

type tunable struct {
	name string
	ref  func(*scene.Params) *float64
	min  float64
}

var tunables = []tunable{
	{"accel", func(p *scene.Params) *float64 { return &p.Acceleration }, 0},
	{"decel", func(p *scene.Params) *float64 { return &p.Deceleration }, 0},
	{"max speed", func(p *scene.Params) *float64 { return &p.MaxSpeed }, 0.1},
	{"target", func(p *scene.Params) *float64 { return &p.TargetDistance }, 1},
	{"cart mass", func(p *scene.Params) *float64 { return &p.CartMass }, 0.1},
	{"box mass", func(p *scene.Params) *float64 { return &p.BoxMass }, 0.1},
	{"floor μ", func(p *scene.Params) *float64 { return &p.FloorFriction }, 0},
	{"cart-box μ", func(p *scene.Params) *float64 { return &p.CartBoxFriction }, 0},
}

// hud collects what the controller hooks report between frames.
type hud struct {
	speed     []float64
	completed *scene.Telemetry
	event     string
}

// Model is the live viewer around one scene controller.
type Model struct {
	ctrl     *scene.Controller
	params   scene.Params
	initial  scene.Params
	preset   string
	dt       float64
	interval time.Duration
	dataDir  string

	renderer *Renderer
	theme    Theme
	styles   Styles
	hud      *hud
	log      *zap.Logger

	selected int
	showHelp bool
}

// NewModel builds a controller from cfg and wires its hooks into the view.
func NewModel(cfg *config.Config, preset string, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	h := &hud{}
	opts := cfg.SceneOptions(log)
	opts.Hooks = scene.Hooks{
		OnSimulationUpdate: func(t scene.Telemetry) {
			h.speed = append(h.speed, t.Speed)
			if len(h.speed) > historyCapacity {
				h.speed = h.speed[1:]
			}
		},
		OnSimulationComplete: func(t scene.Telemetry) {
			h.completed = &t
			h.event = fmt.Sprintf("complete: %.1f m in %.1f s", t.Distance, t.Elapsed)
		},
		OnObjectSelect: func(info *scene.ObjectInfo) {
			if info == nil {
				h.event = "selection cleared"
				return
			}
			h.event = "selected " + info.Name
		},
		OnPhaseChange: func(from, to scene.Phase) {
			if to == scene.PhaseRunning {
				h.speed = h.speed[:0]
				h.completed = nil
			}
			h.event = fmt.Sprintf("%s → %s", from, to)
		},
	}

	fps := cfg.Frame.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	theme := GetTheme(cfg.Theme)
	return Model{
		ctrl:     scene.New(cfg.Params, opts),
		params:   cfg.Params,
		initial:  cfg.Params,
		preset:   preset,
		dt:       cfg.Frame.Dt,
		interval: time.Second / time.Duration(fps),
		dataDir:  cfg.DataDir,
		renderer: NewRenderer(canvasWidth, canvasHeight),
		theme:    theme,
		styles:   NewStyles(theme),
		hud:      h,
		log:      log,
	}
}

// Controller exposes the scene driven by the model.
func (m Model) Controller() *scene.Controller { return m.ctrl }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the scene one frame per tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s", "enter":
			m.command(scene.CommandStart, m.ctrl.Start)
		case " ", "p":
			m.command(scene.CommandStop, m.ctrl.Stop)
		case "r":
			m.command(scene.CommandReset, m.ctrl.Reset)
		case "R":
			m.params = m.initial
		case "1":
			m.ctrl.Select(scene.SelectCart)
		case "2":
			m.ctrl.Select(scene.SelectBox)
		case "0", "esc":
			m.ctrl.Select(scene.SelectNone)
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "shift+tab":
			m.selected = (m.selected + len(tunables) - 1) % len(tunables)
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "t":
			m.theme = NextTheme(m.theme.Name)
			m.styles = NewStyles(m.theme)
		case "e":
			m.snapshot()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.showHelp {
			m.pick(msg.X, msg.Y)
		}
	case tea.WindowSizeMsg:
		w := max(32, msg.Width-statsWidth-2*canvasLeft-2)
		h := max(10, msg.Height-2*canvasTop-1)
		m.renderer = NewRenderer(w, h)
	case TickMsg:
		m.ctrl.Frame(m.dt, m.params)
		if m.hud.completed != nil && m.ctrl.Phase() == scene.PhaseRunning {
			m.command(scene.CommandStop, m.ctrl.Stop)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) command(cmd scene.Command, fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, scene.ErrInvalidTransition) {
			m.hud.event = fmt.Sprintf("cannot %s while %s", cmd, m.ctrl.Phase())
			return
		}
		m.log.Error("command failed", zap.String("command", string(cmd)), zap.Error(err))
		return
	}
	m.log.Info("command", zap.String("command", string(cmd)), zap.String("phase", m.ctrl.Phase().String()))
}

func (m *Model) adjustParam(factor float64) {
	t := tunables[m.selected]
	v := t.ref(&m.params)
	next := *v * factor
	if next == 0 && factor > 1 {
		next = 0.01
	}
	*v = max(next, t.min)
}

// pick selects the body under a terminal cell.
func (m *Model) pick(col, row int) {
	x := (col-canvasLeft)*2 + 1
	y := (row-canvasTop)*4 + 2
	w, h := m.renderer.Canvas.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	origin, dir := m.renderer.Projector(m.ctrl.Camera()).Ray(x, y)
	m.ctrl.Select(m.ctrl.Registry().Pick(origin, dir))
}

func (m *Model) snapshot() {
	m.renderer.Render(m.ctrl)
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		m.hud.event = "snapshot failed"
		m.log.Error("snapshot", zap.Error(err))
		return
	}
	path := filepath.Join(m.dataDir, fmt.Sprintf("snapshot-%d.svg", time.Now().Unix()))
	svg := export.CanvasToSVG(m.renderer.Canvas, snapshotScale)
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		m.hud.event = "snapshot failed"
		m.log.Error("snapshot", zap.Error(err))
		return
	}
	m.hud.event = "saved " + path
	m.log.Info("snapshot saved", zap.String("path", path))
}

// View renders the scene and the stats panel side by side.
func (m Model) View() string {
	m.renderer.Render(m.ctrl)
	st := m.styles
	canvasView := st.Canvas.Render(m.renderer.Canvas.String())

	var s strings.Builder
	title := "CARTBOX"
	if m.preset != "" {
		title += " · " + m.preset
	}
	s.WriteString(st.Header.Render(title) + "\n")

	phase := m.ctrl.Phase().String()
	s.WriteString(st.Phase[phase].Render(strings.ToUpper(phase)))
	if m.ctrl.Locked() {
		s.WriteString(st.Label.Render("  locked"))
	}
	s.WriteString("\n\n")

	tel := m.ctrl.Telemetry()
	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", tel.Elapsed))
	row("Distance", fmt.Sprintf("%.2f / %.0f m", tel.Distance, m.params.TargetDistance))
	row("Speed", fmt.Sprintf("%.2f m/s", tel.Speed))
	if sess := m.ctrl.Session(); sess != nil && sess.Braking {
		row("Braking", "yes")
	}
	if m.hud.completed != nil {
		row("Result", fmt.Sprintf("%.2f m in %.2fs", m.hud.completed.Distance, m.hud.completed.Elapsed))
	}

	if len(m.hud.speed) > 1 {
		chart := asciigraph.Plot(m.hud.speed, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	if info := m.ctrl.SelectedInfo(); info != nil {
		s.WriteString("\n" + strings.ToUpper(info.Name) + "\n")
		row("Mass", fmt.Sprintf("%.2f kg", info.Mass))
		row("Friction", fmt.Sprintf("%.2f", info.Friction))
		row("Size", fmt.Sprintf("%.2f×%.2f×%.2f", info.Dimensions.X(), info.Dimensions.Y(), info.Dimensions.Z()))
		row("Position", fmt.Sprintf("%.2f, %.2f, %.2f", info.Position.X(), info.Position.Y(), info.Position.Z()))
		row("Speed", fmt.Sprintf("%.2f m/s", info.Speed))
	}

	s.WriteString("\nPARAMETERS\n")
	for i, t := range tunables {
		val, initial := *t.ref(&m.params), *t.ref(&m.initial)
		line := fmt.Sprintf("%-10s %s %.2f", t.name, bar(val, initial, 10), val)
		if i == m.selected {
			s.WriteString(st.ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.Param.Render(line) + "\n")
		}
	}

	if m.hud.event != "" {
		s.WriteString("\n" + st.Value.Render(m.hud.event) + "\n")
	}
	s.WriteString(st.Help.Render("S:Start SP:Stop R:Reset Q:Quit\n1/2/0:Select  Tab ↑↓:Tune  ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

// bar draws val relative to twice its initial value.
func bar(val, initial float64, width int) string {
	if initial == 0 {
		initial = 1e-6
	}
	ratio := min(max(val/(2*initial), 0), 1)
	filled := int(ratio * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  S/Enter  - Start run                ║
║  Space/P  - Stop run                 ║
║  R        - Reset scene              ║
║  Shift+R  - Restore parameters       ║
║  1 / 2    - Select cart / box        ║
║  0/Esc    - Clear selection          ║
║  Click    - Select body under cursor ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  T        - Cycle themes             ║
║  E        - Save SVG snapshot        ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
