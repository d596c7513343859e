package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/pbdsim/internal/sim"
)

// Builder constructs the simulation for a named scenario.
type Builder func(name string) (*sim.Simulation, error)

const (
	stateMenu = iota
	stateSim
)

// picker is a scenario menu that hands over to a live Model.
type picker struct {
	state, cursor int
	names         []string
	info          map[string]string
	build         Builder
	scale         float64
	err           error
	width, height int
	live          Model
}

// NewPicker lists names and opens the chosen one. info holds an optional
// one-line description per name.
func NewPicker(names []string, info map[string]string, build Builder, scale float64) tea.Model {
	return picker{names: names, info: info, build: build, scale: scale}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		if w, ok := msg.(tea.WindowSizeMsg); ok {
			m.width, m.height = w.Width, w.Height
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m.start()
		}
	}
	return m, nil
}

func (m picker) start() (tea.Model, tea.Cmd) {
	if len(m.names) == 0 {
		return m, nil
	}
	name := m.names[m.cursor]
	s, err := m.build(name)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.live = NewModel(s, name, m.scale)
	if m.width > 0 {
		m.live.resize(m.width, m.height)
		m.live.draw()
	}
	m.state = stateSim
	return m, m.live.Init()
}

func (m picker) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	var b strings.Builder
	h := lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	b.WriteString("\n\n    " + h.Render("PBDSIM") + "\n    " + Subtle.Render("particle constraint solver") + "\n    " + Subtle.Render("──────────────────────────") + "\n\n")

	cursor := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	for i, name := range m.names {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursor.Render("▸"), selected.Render(fmt.Sprintf("%-12s", name)), desc.Render(m.info[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", Subtle.Render(fmt.Sprintf("%-12s", name)), Subtle.Render(m.info[name])))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + SparkHigh.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyBar("j/k", "navigate", "enter", "open", "esc", "back", "q", "quit") + "\n")
	return b.String()
}

// RunPicker opens the scenario menu until the user quits.
func RunPicker(names []string, info map[string]string, build Builder, scale float64) error {
	_, err := tea.NewProgram(NewPicker(names, info, build, scale), tea.WithAltScreen()).Run()
	return err
}
