package simulate

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/sampling"
)

// DefaultMaxSteps caps the transitions of a single trajectory.
const DefaultMaxSteps = 1_000_000

// DefaultWorkers runs the ensemble on the calling goroutine.
const DefaultWorkers = 1

// Observer receives every completed trajectory. Observers attached to a
// parallel run are called from several goroutines and must be safe for that.
type Observer interface {
	ObserveTrajectory(t chain.Trajectory)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t chain.Trajectory)

// ObserveTrajectory implements Observer.
func (f ObserverFunc) ObserveTrajectory(t chain.Trajectory) { f(t) }

// Option configures Run.
type Option func(*config)

type config struct {
	seed     uint64
	workers  int
	maxSteps int
	observer Observer
	logger   zerolog.Logger
}

func defaultConfig() config {
	return config{
		seed:     sampling.DefaultSeed,
		workers:  DefaultWorkers,
		maxSteps: DefaultMaxSteps,
		logger:   zerolog.Nop(),
	}
}

// WithSeed sets the master seed; 0 selects sampling.DefaultSeed.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		if seed == 0 {
			seed = sampling.DefaultSeed
		}
		c.seed = seed
	}
}

// WithWorkers sets the number of goroutines. Panics if n < 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("simulate: WithWorkers(%d): need at least one worker", n))
	}
	return func(c *config) { c.workers = n }
}

// WithMaxSteps sets the per-trajectory transition cap. Panics if n < 1.
func WithMaxSteps(n int) Option {
	if n < 1 {
		panic(fmt.Sprintf("simulate: WithMaxSteps(%d): cap must be positive", n))
	}
	return func(c *config) { c.maxSteps = n }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithLogger sets the logger used for run-level debug events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}
