// Package estimate rebuilds chain statistics from simulated trajectories
// alone: transition counts, per-state occupancy and the empirical
// transition matrix.
package estimate

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/matrix"
)

var (
	// ErrNoTrajectories is returned for an empty trajectory list.
	ErrNoTrajectories = errors.New("estimate: no trajectories")

	// ErrEmptyTrajectory is returned when one trajectory has no states.
	ErrEmptyTrajectory = errors.New("estimate: empty trajectory")

	// ErrStateOutOfRange is returned for a state index outside [0, states).
	ErrStateOutOfRange = errors.New("estimate: state index out of range")
)

// Estimate holds the empirical statistics of an ensemble.
type Estimate struct {
	// Counts[i][j] is the number of observed i→j transitions.
	Counts [][]int
	// Occupancy[i] counts visits to i: once per transition out of i, plus
	// once for the final state of every trajectory.
	Occupancy []int
	// Final[i] counts trajectories that ended in i.
	Final []int
	// P is the row-normalized Counts; rows without outgoing transitions are
	// forced to a self-loop.
	P *matrix.Dense
}

// FromTrajectories accumulates counts over trajs and builds the empirical
// transition matrix over states states.
//
// Complexity: O(S² + Σ len(traj)).
func FromTrajectories(states int, trajs []chain.Trajectory) (*Estimate, error) {
	if states < 1 {
		return nil, fmt.Errorf("estimate: %d states: %w", states, matrix.ErrInvalidDimensions)
	}
	if len(trajs) == 0 {
		return nil, ErrNoTrajectories
	}

	e := &Estimate{
		Counts:    make([][]int, states),
		Occupancy: make([]int, states),
		Final:     make([]int, states),
	}
	for i := range e.Counts {
		e.Counts[i] = make([]int, states)
	}

	for k, tr := range trajs {
		if len(tr) == 0 {
			return nil, fmt.Errorf("trajectory %d: %w", k, ErrEmptyTrajectory)
		}
		for t, s := range tr {
			if s < 0 || s >= states {
				return nil, fmt.Errorf("trajectory %d, position %d: state %d: %w", k, t, s, ErrStateOutOfRange)
			}
		}
		for t := 0; t+1 < len(tr); t++ {
			e.Counts[tr[t]][tr[t+1]]++
			e.Occupancy[tr[t]]++
		}
		last := tr.Final()
		e.Occupancy[last]++
		e.Final[last]++
	}

	p, err := matrix.NewDense(states, states)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}
	for i, row := range e.Counts {
		total := 0
		for _, n := range row {
			total += n
		}
		if total == 0 {
			_ = p.Set(i, i, 1)
			continue
		}
		for j, n := range row {
			if n > 0 {
				_ = p.Set(i, j, float64(n)/float64(total))
			}
		}
	}
	e.P = p

	return e, nil
}

// AbsorptionFrequencies returns the occupancy of the given states normalized
// to sum to 1. With no visits at all every entry is 0.
func (e *Estimate) AbsorptionFrequencies(absorbing []int) ([]float64, error) {
	out := make([]float64, len(absorbing))
	total := 0
	for i, s := range absorbing {
		if s < 0 || s >= len(e.Occupancy) {
			return nil, fmt.Errorf("state %d: %w", s, ErrStateOutOfRange)
		}
		out[i] = float64(e.Occupancy[s])
		total += e.Occupancy[s]
	}
	if total == 0 {
		return out, nil
	}
	for i := range out {
		out[i] /= float64(total)
	}

	return out, nil
}

// Transitions returns the total number of observed transitions.
func (e *Estimate) Transitions() int {
	total := 0
	for _, row := range e.Counts {
		for _, n := range row {
			total += n
		}
	}

	return total
}
