package viz

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Particles = []sim.Particle{
		{Position: mgl64.Vec2{-1, 0}, Velocity: mgl64.Vec2{0.1, 0}, InvMass: 1, Radius: 0.5},
		{Position: mgl64.Vec2{1, 0}, InvMass: 0, Radius: 0.5},
	}
	s, err := sim.New(cfg)
	require.NoError(t, err)
	return s
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, k string) Model {
	next, _ := m.Update(key(k))
	return next.(Model)
}

func TestSingleStepKey(t *testing.T) {
	s := newSim(t)
	m := NewModel(s, "pair", 0)
	assert.Equal(t, DefaultScale, m.scale)

	m = press(m, ".")
	assert.Equal(t, 1, s.Steps())
	assert.False(t, m.running)

	// ticks do nothing while paused
	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, s.Steps())
}

func TestContinuousToggle(t *testing.T) {
	s := newSim(t)
	m := press(NewModel(s, "pair", 4), " ")
	require.True(t, m.running)

	for i := 0; i < 3; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	assert.Equal(t, 3, s.Steps())
	assert.Len(t, m.history, 3)

	m = press(m, " ")
	next, _ := m.Update(TickMsg{})
	m = next.(Model)
	assert.Equal(t, 3, s.Steps())
}

func TestResetAndZoom(t *testing.T) {
	s := newSim(t)
	m := NewModel(s, "pair", 4)
	m = press(m, ".")
	m = press(m, ".")
	m = press(m, "r")
	assert.Equal(t, 0, s.Steps())
	assert.Empty(t, m.history)

	m = press(m, "+")
	assert.InDelta(t, 5, m.scale, 1e-12)
	for i := 0; i < 40; i++ {
		m = press(m, "-")
	}
	assert.Equal(t, minScale, m.scale)
}

func TestProjectKeepsOriginCentred(t *testing.T) {
	m := NewModel(newSim(t), "pair", 4)
	w, h := m.canvas.Dots()

	x, y := m.project(mgl64.Vec2{0, 0})
	assert.Equal(t, float64(w)/2, x)
	assert.Equal(t, float64(h)/2, y)

	x, y = m.project(mgl64.Vec2{1, 1})
	assert.Equal(t, float64(w)/2+4, x)
	assert.Equal(t, float64(h)/2-4, y, "world y points up")
}

func TestDrawShowsParticles(t *testing.T) {
	m := NewModel(newSim(t), "pair", 4)
	w, h := m.canvas.Dots()
	assert.True(t, m.canvas.IsSet(w/2-4, h/2))
	assert.True(t, m.canvas.IsSet(w/2+4, h/2))
	assert.False(t, m.canvas.IsSet(0, 0))
	assert.Contains(t, m.View(), "PAIR")
}

func TestQuit(t *testing.T) {
	_, cmd := NewModel(newSim(t), "pair", 4).Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestPickerOpensScenario(t *testing.T) {
	built := ""
	build := func(name string) (*sim.Simulation, error) {
		built = name
		return newSim(t), nil
	}
	var p tea.Model = NewPicker([]string{"a", "b"}, nil, build, 4)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "b", built)
	assert.NotNil(t, cmd)
	assert.Contains(t, p.View(), "B")

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, p.View(), "PBDSIM")
}

func TestPickerShowsBuildError(t *testing.T) {
	build := func(string) (*sim.Simulation, error) { return nil, errors.New("boom") }
	var p tea.Model = NewPicker([]string{"a"}, nil, build, 4)
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, p.View(), "boom")
}
