package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cartbox/internal/config"
	"github.com/san-kum/cartbox/internal/scene"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func ticks(n int) []tea.Msg {
	msgs := make([]tea.Msg, n)
	for i := range msgs {
		msgs[i] = TickMsg(time.Time{})
	}
	return msgs
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return NewModel(cfg, "reference", nil)
}

func TestModel_StartStopReset(t *testing.T) {
	m := newTestModel(t)
	ctrl := m.Controller()

	m = send(t, m, key("s"))
	if ctrl.Phase() != scene.PhaseRunning {
		t.Fatalf("phase = %v, want running", ctrl.Phase())
	}

	m = send(t, m, ticks(60)...)
	tel := ctrl.Telemetry()
	if tel.Elapsed < 0.99 || tel.Speed <= 0 {
		t.Errorf("telemetry after one second = %+v", tel)
	}
	if len(m.hud.speed) != 60 {
		t.Errorf("speed history = %d, want 60", len(m.hud.speed))
	}

	m = send(t, m, key(" "))
	if ctrl.Phase() != scene.PhasePaused {
		t.Errorf("phase = %v, want paused", ctrl.Phase())
	}

	m = send(t, m, key("s"))
	if !strings.Contains(m.hud.event, "cannot start") {
		t.Errorf("event = %q, want rejected start", m.hud.event)
	}

	m = send(t, m, key("r"))
	if ctrl.Phase() != scene.PhaseSettling {
		t.Errorf("phase = %v, want settling", ctrl.Phase())
	}
	send(t, m, ticks(60)...)
	if ctrl.Phase() != scene.PhaseIdle {
		t.Errorf("phase = %v, want idle", ctrl.Phase())
	}
}

func TestModel_TuneParameters(t *testing.T) {
	m := newTestModel(t)
	want := m.params.Deceleration * 1.05

	m = send(t, m, key("tab"), key("k"))
	if m.params.Deceleration != want {
		t.Errorf("decel = %v, want %v", m.params.Deceleration, want)
	}

	m = send(t, m, key("R"))
	if m.params != m.initial {
		t.Error("R did not restore parameters")
	}

	// Masses never drop below their floor.
	m.selected = 4
	for range 200 {
		m = send(t, m, key("j"))
	}
	if m.params.CartMass != 0.1 {
		t.Errorf("cart mass = %v, want clamp at 0.1", m.params.CartMass)
	}
}

func TestModel_Select(t *testing.T) {
	m := newTestModel(t)
	ctrl := m.Controller()

	m = send(t, m, key("2"))
	if ctrl.Selection() != scene.SelectBox || m.hud.event != "selected box" {
		t.Errorf("selection = %v, event %q", ctrl.Selection(), m.hud.event)
	}
	if !strings.Contains(m.View(), "BOX") {
		t.Error("view does not show the selected body")
	}

	m = send(t, m, key("0"))
	if ctrl.Selection() != scene.SelectNone {
		t.Errorf("selection = %v, want none", ctrl.Selection())
	}
}

func TestModel_ClickPicksCart(t *testing.T) {
	m := newTestModel(t)
	ctrl := m.Controller()

	start := ctrl.Layout().CartStart()
	proj := m.renderer.Projector(ctrl.Camera())
	x, y, _, ok := proj.Project(start.Add(mgl64.Vec3{-0.8, 0, 0.5}))
	if !ok {
		t.Fatal("cart not visible")
	}

	click := tea.MouseMsg{X: x/2 + canvasLeft, Y: y/4 + canvasTop, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	m = send(t, m, click)
	if ctrl.Selection() != scene.SelectCart {
		t.Errorf("selection = %v, want cart", ctrl.Selection())
	}

	// Outside the canvas nothing changes.
	send(t, m, tea.MouseMsg{X: 500, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if ctrl.Selection() != scene.SelectCart {
		t.Errorf("selection = %v after clicking outside", ctrl.Selection())
	}
}

func TestModel_Snapshot(t *testing.T) {
	m := newTestModel(t)
	m = send(t, m, key("e"))

	files, err := filepath.Glob(filepath.Join(m.dataDir, "snapshot-*.svg"))
	if err != nil || len(files) != 1 {
		t.Fatalf("snapshots = %v (%v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<circle") {
		t.Error("snapshot has no dots")
	}
}

func TestModel_ThemeCycle(t *testing.T) {
	m := newTestModel(t)
	first := m.theme.Name
	for range len(Themes) {
		m = send(t, m, key("t"))
	}
	if m.theme.Name != first {
		t.Errorf("theme = %q after a full cycle, want %q", m.theme.Name, first)
	}
	if GetTheme("missing").Name != Themes[0].Name {
		t.Error("unknown theme does not fall back")
	}
}

func TestApp_OpensPreset(t *testing.T) {
	a := NewApp(config.DefaultConfig(), nil)
	if !strings.Contains(a.View(), "reference") {
		t.Fatal("menu does not list presets")
	}

	var next tea.Model = a
	for _, name := range a.presets {
		if name == "coast" {
			break
		}
		next, _ = next.Update(key("j"))
	}
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = next.(App)

	if a.state != stateLive || a.live.preset != "coast" {
		t.Fatalf("state = %d preset = %q", a.state, a.live.preset)
	}
	if a.live.params.Deceleration != 0 {
		t.Errorf("coast preset not applied: %+v", a.live.params)
	}

	next, _ = a.Update(key("m"))
	if next.(App).state != stateMenu {
		t.Error("m does not return to the menu")
	}
}
