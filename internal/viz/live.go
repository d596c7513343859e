package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pbdsim/internal/metrics"
	"github.com/san-kum/pbdsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameRate       = 60

	DefaultScale = 8.0
	minScale     = 1.0
	maxScale     = 64.0
	zoomFactor   = 1.25
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model presents one simulation. The simulation never reads input or draws;
// this model owns both.
type Model struct {
	sim           *sim.Simulation
	name          string
	violation     *metrics.Violation
	width, height int
	canvas        *Canvas
	running       bool
	scale         float64
	origin        mgl64.Vec2
	history       []float64
	showHelp      bool
	showContacts  bool
	theme         Theme
	style         palette
}

// NewModel wraps s. Particles are drawn at scale dots per world unit around
// a fixed origin placed at the centre of the initial scenario.
func NewModel(s *sim.Simulation, name string, scale float64) Model {
	if scale <= 0 {
		scale = DefaultScale
	}
	v := metrics.NewViolation()
	s.AddMetric(v)

	m := Model{
		sim:          s,
		name:         name,
		violation:    v,
		width:        width,
		height:       height,
		canvas:       NewCanvas(width, height),
		scale:        scale,
		origin:       centre(s.Snapshot()),
		history:      make([]float64, 0, historyCapacity),
		showContacts: true,
		theme:        Themes[0],
		style:        newPalette(Themes[0]),
	}
	m.draw()
	return m
}

func centre(ps []sim.ParticleView) mgl64.Vec2 {
	if len(ps) == 0 {
		return mgl64.Vec2{}
	}
	lo, hi := ps[0].Position, ps[0].Position
	for _, p := range ps[1:] {
		lo = mgl64.Vec2{math.Min(lo.X(), p.Position.X()), math.Min(lo.Y(), p.Position.Y())}
		hi = mgl64.Vec2{math.Max(hi.X(), p.Position.X()), math.Max(hi.Y(), p.Position.Y())}
	}
	return lo.Add(hi).Mul(0.5)
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation. A single press of
// "." advances exactly one step; space toggles stepping once per frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case ".":
			m.running = false
			m.step()
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.zoom(zoomFactor)
		case "-", "_":
			m.zoom(1 / zoomFactor)
		case "c":
			m.showContacts = !m.showContacts
		case "t":
			m.theme = NextTheme(m.theme)
			m.style = newPalette(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.draw()
	case TickMsg:
		if m.running {
			m.step()
			m.draw()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.sim.Step()
	m.history = append(m.history, m.violation.Value())
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) reset() {
	m.sim.Reset()
	m.history = m.history[:0]
	m.running = false
}

func (m *Model) zoom(f float64) {
	m.scale = math.Max(minScale, math.Min(maxScale, m.scale*f))
}

// resize keeps the canvas beside the 40 column stats panel.
func (m *Model) resize(w, h int) {
	cw := max(w-48, 20)
	ch := max(h-4, 8)
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// project maps world coordinates to canvas dots, y up.
func (m *Model) project(p mgl64.Vec2) (float64, float64) {
	w, h := m.canvas.Dots()
	d := p.Sub(m.origin).Mul(m.scale)
	return float64(w)/2 + d.X(), float64(h)/2 - d.Y()
}

func (m *Model) draw() {
	m.canvas.Clear()
	snap := m.sim.Snapshot()

	if m.showContacts {
		for _, c := range m.sim.Contacts() {
			ax, ay := m.project(snap[c.A].Position)
			bx, by := m.project(snap[c.B].Position)
			if !finite(ax, ay, bx, by) {
				continue
			}
			m.canvas.DrawLine(int(ax), int(ay), int(bx), int(by))
		}
	}

	for _, p := range snap {
		x, y := m.project(p.Position)
		if !finite(x, y) {
			continue
		}
		if p.InvMass == 0 {
			m.canvas.Circle(x, y, p.Radius*m.scale)
		}
		m.canvas.FillCircle(x, y, p.Radius*m.scale)
	}
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.style
	cfg := m.sim.Config()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	if m.running {
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(28), asciigraph.Caption("violation"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.sim.Steps()))
	row("Solver", cfg.Solver.String())
	row("Kind", cfg.Constraint.String())
	row("Particles", fmt.Sprintf("%d", m.sim.Len()))
	row("Contacts", fmt.Sprintf("%d", len(m.sim.Contacts())))
	row("Violation", fmt.Sprintf("%.2e", m.violation.Value()))
	p := m.sim.Momentum()
	row("Momentum", fmt.Sprintf("(%.3f, %.3f)", p.X(), p.Y()))
	row("Scale", fmt.Sprintf("%.1f dots/unit", m.scale))

	s.WriteString(st.help.Render("─────────────────────\n.:Step SP:Run R:Reset Q:Quit\n+/-:Zoom C:Contacts ?:Help"))

	canvasView := st.canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  .        - Advance one step         ║
║  Space    - Run / pause stepping     ║
║  R        - Reset scenario           ║
║  + / -    - Zoom in / out            ║
║  C        - Toggle contact lines     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens the live view until the user quits.
func Run(s *sim.Simulation, name string, scale float64) error {
	_, err := tea.NewProgram(NewModel(s, name, scale), tea.WithAltScreen()).Run()
	return err
}
