// Package optim searches solver settings for the lowest value of a metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pbdsim/internal/sim"
)

// Parameters that Apply understands.
const (
	ParamIterations = "iterations"
	ParamRelaxation = "relaxation"
	ParamStiffness  = "stiffness"
	ParamDt         = "dt"
)

var ErrNoCandidate = errors.New("optim: no valid candidate")

// Apply sets the named parameters on a copy of cfg.
func Apply(cfg sim.Config, params map[string]float64) (sim.Config, error) {
	for name, v := range params {
		switch name {
		case ParamIterations:
			cfg.Iterations = int(math.Round(v))
		case ParamRelaxation:
			cfg.Relaxation = v
		case ParamStiffness:
			cfg.Stiffness = v
		case ParamDt:
			cfg.Dt = v
		default:
			return cfg, fmt.Errorf("optim: unknown parameter %q", name)
		}
	}
	return cfg, nil
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs base for steps under every grid point and returns the point
// with the lowest final value of metricName. Points whose configuration is
// rejected or whose metric is not finite are recorded but never win.
func (g *GridSearch) Search(
	ctx context.Context,
	base sim.Config,
	steps int,
	newMetrics func() []sim.Metric,
	metricName string,
) (Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var all []Candidate
	best := Candidate{Value: math.Inf(1)}
	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		c := Candidate{Params: params}
		c.Value, c.Err = evaluate(ctx, base, params, steps, newMetrics, metricName)
		if errors.Is(c.Err, context.Canceled) || errors.Is(c.Err, context.DeadlineExceeded) {
			return c.Err
		}
		all = append(all, c)
		if c.Err == nil && !math.IsNaN(c.Value) && c.Value < best.Value {
			best = c
		}
		return nil
	})
	if err != nil {
		return Candidate{}, all, err
	}
	if best.Params == nil {
		return Candidate{}, all, ErrNoCandidate
	}
	return best, all, nil
}

func evaluate(
	ctx context.Context,
	base sim.Config,
	params map[string]float64,
	steps int,
	newMetrics func() []sim.Metric,
	metricName string,
) (float64, error) {
	cfg, err := Apply(base, params)
	if err != nil {
		return 0, err
	}
	s, err := sim.New(cfg)
	if err != nil {
		return 0, err
	}
	for _, m := range newMetrics() {
		s.AddMetric(m)
	}
	result, err := s.Run(ctx, steps)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("optim: no metric %q", metricName)
	}
	if math.IsInf(val, 0) {
		return val, fmt.Errorf("optim: %s diverged", metricName)
	}
	return val, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		if err := ctx.Err(); err != nil {
			return err
		}
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
