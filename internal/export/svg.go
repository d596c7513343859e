package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/pbdsim/internal/contact"
	"github.com/san-kum/pbdsim/internal/particle"
	"github.com/san-kum/pbdsim/internal/sim"
)

// Trace records every particle's position after each step. It is a
// sim.Observer.
type Trace struct {
	Paths [][]mgl64.Vec2
}

func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) OnStep(_ int, st *particle.Store, _ *contact.Set) {
	for len(t.Paths) < st.Len() {
		t.Paths = append(t.Paths, nil)
	}
	for i, p := range st.Position {
		t.Paths[i] = append(t.Paths[i], p)
	}
}

// Scene is what SceneToSVG draws.
type Scene struct {
	Particles []sim.ParticleView
	Contacts  []contact.Contact
	Trace     *Trace
}

type frame struct {
	minX, maxY, scale float64
	height            int
}

func (f frame) point(p mgl64.Vec2) (float64, float64) {
	return (p.X() - f.minX) * f.scale, float64(f.height) - (f.maxY-p.Y())*f.scale
}

// fit maps the scene bounds into width x height with 10% padding and equal
// scale on both axes.
func fit(sc Scene, width, height int) frame {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p mgl64.Vec2, r float64) {
		if !finite(p) {
			return
		}
		minX, maxX = math.Min(minX, p.X()-r), math.Max(maxX, p.X()+r)
		minY, maxY = math.Min(minY, p.Y()-r), math.Max(maxY, p.Y()+r)
	}
	for _, p := range sc.Particles {
		grow(p.Position, p.Radius)
	}
	if sc.Trace != nil {
		for _, path := range sc.Trace.Paths {
			for _, p := range path {
				grow(p, 0)
			}
		}
	}
	if math.IsInf(minX, 1) {
		minX, maxX, minY, maxY = -1, 1, -1, 1
	}

	rangeX := math.Max(maxX-minX, 1e-9)
	rangeY := math.Max(maxY-minY, 1e-9)
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1

	scale := math.Min(float64(width)/(maxX-minX), float64(height)/(maxY-minY))
	// centre the shorter axis
	padX := (float64(width)/scale - (maxX - minX)) / 2
	padY := (float64(height)/scale - (maxY - minY)) / 2
	return frame{minX: minX - padX, maxY: maxY + padY, scale: scale, height: height}
}

// SceneToSVG draws particles as circles, contacts as lines between the
// pair's centres and traced paths as polylines. Immovable particles are
// drawn as outlines.
func SceneToSVG(sc Scene, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	f := fit(sc, width, height)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	if sc.Trace != nil {
		sb.WriteString(`<g fill="none" stroke="#444444" stroke-width="1">` + "\n")
		for _, path := range sc.Trace.Paths {
			if len(path) < 2 {
				continue
			}
			sb.WriteString(`<path d="`)
			first := true
			for _, p := range path {
				if !finite(p) {
					continue
				}
				x, y := f.point(p)
				if first {
					sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
					first = false
				} else {
					sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
				}
			}
			sb.WriteString(`"/>` + "\n")
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString(`<g stroke="#ff88ff" stroke-width="1">` + "\n")
	for _, c := range sc.Contacts {
		if c.A >= len(sc.Particles) || c.B >= len(sc.Particles) {
			continue
		}
		a, b := sc.Particles[c.A].Position, sc.Particles[c.B].Position
		if !finite(a) || !finite(b) {
			continue
		}
		ax, ay := f.point(a)
		bx, by := f.point(b)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", ax, ay, bx, by))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#00ff00" stroke="#00ff00">` + "\n")
	for _, p := range sc.Particles {
		if !finite(p.Position) {
			continue
		}
		x, y := f.point(p.Position)
		r := p.Radius * f.scale
		if p.InvMass == 0 {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none"/>`+"\n", x, y, r))
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", x, y, r))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func finite(p mgl64.Vec2) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
