// Package simulate generates absorption trajectories of a chain.Chain.
//
// A Walker produces one trajectory; Run produces an ensemble of n
// trajectories, sequentially or on several workers. Trajectory i is always
// drawn from the stream seeded with sampling.DeriveSeed(seed, i), so the
// output depends only on the master seed, never on the worker count.
package simulate

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/sampling"
)

var (
	// ErrAbsorptionTimeout is returned when a trajectory exceeds its step cap.
	// Returned errors also match chain.ErrNonAbsorbingChain.
	ErrAbsorptionTimeout = errors.New("simulate: absorption timeout exceeded")

	// ErrInvalidEnsembleSize is returned by Run for n < 1.
	ErrInvalidEnsembleSize = errors.New("simulate: ensemble size must be >= 1")

	// ErrNilChain is returned when no chain is supplied.
	ErrNilChain = errors.New("simulate: nil chain")
)

// Walker simulates single trajectories of one chain from one stream.
// A Walker is not goroutine-safe.
type Walker struct {
	c        *chain.Chain
	stream   *sampling.Stream
	start    *sampling.Categorical
	rows     []*sampling.Categorical // nil for absorbing states
	maxSteps int
}

// NewWalker compiles the initial distribution and every transient row of c
// into samplers bound to stream. stream==nil uses sampling.DefaultSeed;
// maxSteps<=0 uses DefaultMaxSteps.
//
// Complexity: O(S²) to build.
func NewWalker(c *chain.Chain, stream *sampling.Stream, maxSteps int) (*Walker, error) {
	if c == nil {
		return nil, ErrNilChain
	}
	if stream == nil {
		stream = sampling.NewStream(sampling.DefaultSeed)
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	start, err := sampling.NewCategorical(c.Initial(), stream, c.Tolerance())
	if err != nil {
		return nil, fmt.Errorf("simulate: initial distribution: %w", err)
	}
	rows := make([]*sampling.Categorical, c.States())
	for _, s := range c.Transient() {
		row, err := c.Row(s)
		if err != nil {
			return nil, fmt.Errorf("simulate: row %d: %w", s, err)
		}
		if rows[s], err = sampling.NewCategorical(row, stream, c.Tolerance()); err != nil {
			return nil, fmt.Errorf("simulate: row %d: %w", s, err)
		}
	}

	return &Walker{c: c, stream: stream, start: start, rows: rows, maxSteps: maxSteps}, nil
}

// Run draws a start state and walks until the first absorbing state.
// A start state that is already absorbing yields a one-element trajectory.
//
// Errors:
//   - ErrAbsorptionTimeout (also chain.ErrNonAbsorbingChain) after maxSteps
//     transitions without absorption.
func (w *Walker) Run() (chain.Trajectory, error) {
	cur := w.start.Draw()
	traj := chain.Trajectory{cur}
	for steps := 0; !w.c.IsAbsorbing(cur); steps++ {
		if steps >= w.maxSteps {
			return nil, fmt.Errorf("no absorption after %d steps from state %d: %w: %w",
				w.maxSteps, traj[0], ErrAbsorptionTimeout, chain.ErrNonAbsorbingChain)
		}
		cur = w.rows[cur].Draw()
		traj = append(traj, cur)
	}

	return traj, nil
}

// RunSeeded reseeds the walker's stream and runs one trajectory.
func (w *Walker) RunSeeded(seed uint64) (chain.Trajectory, error) {
	w.stream.Reseed(seed)

	return w.Run()
}
