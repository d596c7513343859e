package sim

import (
	"errors"
	"fmt"
)

// Configuration errors. A *ConfigError wraps one of these.
var (
	ErrStiffness   = errors.New("sim: stiffness must be finite and positive")
	ErrInvMass     = errors.New("sim: inverse mass must be finite and non-negative")
	ErrRadius      = errors.New("sim: radius must be finite and non-negative")
	ErrTimestep    = errors.New("sim: dt must be finite and positive")
	ErrIterations  = errors.New("sim: iteration count must be at least 1")
	ErrRelaxation  = errors.New("sim: relaxation must lie in (0, 1]")
	ErrLink        = errors.New("sim: link distance must be finite and positive")
	ErrUnsupported = errors.New("sim: constraint kind not supported by solver")
	ErrState       = errors.New("sim: particle state is not finite")
)

// ConfigError points at the offending field, and particle when there is one.
type ConfigError struct {
	Field    string
	Particle int
	Value    float64
	Wrapped  error
}

func (e *ConfigError) Error() string {
	if e.Particle >= 0 {
		return fmt.Sprintf("%v: particle %d %s = %g", e.Wrapped, e.Particle, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s = %g", e.Wrapped, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

func fieldError(field string, value float64, err error) error {
	return &ConfigError{Field: field, Particle: -1, Value: value, Wrapped: err}
}
