package sim

import (
	"context"

	"github.com/san-kum/pbdsim/internal/solver"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs one scenario under several solver modes at once. Each run
// gets its own Simulation, so nothing is shared between goroutines.
type Ensemble struct {
	cfg     Config
	modes   []solver.Mode
	metrics func() []Metric
}

// NewEnsemble builds an ensemble. metrics is called once per run so every
// simulation owns fresh metric instances; it may be nil.
func NewEnsemble(cfg Config, modes []solver.Mode, metrics func() []Metric) *Ensemble {
	return &Ensemble{cfg: cfg, modes: modes, metrics: metrics}
}

// Run steps every mode n times and returns results in mode order. Every
// simulation is built before any starts, so a rejected mode runs nothing.
// The first error while stepping cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, n int) ([]*Result, error) {
	sims := make([]*Simulation, len(e.modes))
	for i, mode := range e.modes {
		cfg := e.cfg
		cfg.Solver = mode
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		sims[i] = s
	}
	if e.metrics != nil {
		for _, s := range sims {
			for _, m := range e.metrics() {
				s.AddMetric(m)
			}
		}
	}

	results := make([]*Result, len(sims))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range sims {
		i, s := i, s
		g.Go(func() error {
			r, err := s.Run(ctx, n)
			results[i] = r
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
