// Package analysis reconciles the simulated and the closed-form view of an
// absorbing chain and runs the whole pipeline in one call.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/estimate"
	"github.com/katalvlaran/absorb/fundamental"
	"github.com/katalvlaran/absorb/simulate"
)

var (
	// ErrMissingInput is returned when Aggregate lacks the chain, the
	// estimate or the ensemble.
	ErrMissingInput = errors.New("analysis: missing input")

	// ErrPartitionMismatch is returned when a Solution was computed over a
	// different absorbing set than the chain's.
	ErrPartitionMismatch = errors.New("analysis: solution does not match chain partition")

	// ErrUnknownWeighting is returned by ParseWeighting.
	ErrUnknownWeighting = errors.New("analysis: unknown weighting")
)

// Weighting selects how per-start theoretical values are reduced to one
// number per absorbing state. The same weighting is applied to B and t.
type Weighting int

const (
	// WeightUniform averages over transient starting states with equal weight.
	WeightUniform Weighting = iota
	// WeightInitial weights every starting state by the initial
	// distribution. Absorbing starts contribute their own indicator and a
	// time of 0, so the result is the exact expectation of the empirical
	// figures.
	WeightInitial
)

// String implements fmt.Stringer.
func (w Weighting) String() string {
	switch w {
	case WeightUniform:
		return "uniform"
	case WeightInitial:
		return "initial"
	default:
		return fmt.Sprintf("Weighting(%d)", int(w))
	}
}

// ParseWeighting maps "uniform" or "initial" (case-insensitive) to a
// Weighting. The empty string selects WeightUniform.
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return WeightUniform, nil
	case "initial":
		return WeightInitial, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownWeighting)
	}
}

// Summary holds the reconciled scalars and vectors of one analysis.
// Vectors are indexed like AbsorbingStates.
type Summary struct {
	AbsorbingStates []int     `json:"absorbing_states"`
	Weighting       Weighting `json:"-"`

	EmpiricalProbabilities   []float64 `json:"empirical_probabilities"`
	TheoreticalProbabilities []float64 `json:"theoretical_probabilities,omitempty"`
	ProbabilityDeviation     []float64 `json:"probability_deviation,omitempty"`

	EmpiricalMeanTime   float64 `json:"empirical_mean_time"`
	TheoreticalMeanTime float64 `json:"theoretical_mean_time"`
	MeanTimeDeviation   float64 `json:"mean_time_deviation"`

	HasTheory bool `json:"has_theory"`
}

// Aggregate combines the empirical estimate and ensemble with the
// closed-form solution. sol may be nil, in which case only the empirical
// fields are filled and HasTheory is false.
//
// Errors:
//   - ErrMissingInput, ErrPartitionMismatch, estimate.ErrStateOutOfRange.
func Aggregate(c *chain.Chain, est *estimate.Estimate, ens *simulate.Ensemble, sol *fundamental.Solution, w Weighting) (*Summary, error) {
	if c == nil || est == nil || ens == nil {
		return nil, ErrMissingInput
	}
	absorbing := c.Absorbing()

	freq, err := est.AbsorptionFrequencies(absorbing)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	sum := &Summary{
		AbsorbingStates:        absorbing,
		Weighting:              w,
		EmpiricalProbabilities: freq,
		EmpiricalMeanTime:      ens.MeanTime(),
	}
	if sol == nil {
		return sum, nil
	}
	if !samePartition(sol, c) {
		return nil, ErrPartitionMismatch
	}

	switch w {
	case WeightUniform:
		sum.TheoreticalProbabilities = sol.MeanAbsorptionProbabilities()
		sum.TheoreticalMeanTime = sol.MeanExpectedTime()
		if len(sol.Transient) == 0 {
			sum.TheoreticalProbabilities = make([]float64, len(absorbing))
		}
	case WeightInitial:
		sum.TheoreticalProbabilities, sum.TheoreticalMeanTime, err = weightByInitial(c, sol)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", w, ErrUnknownWeighting)
	}

	sum.ProbabilityDeviation = make([]float64, len(absorbing))
	for i := range absorbing {
		sum.ProbabilityDeviation[i] = math.Abs(freq[i] - sum.TheoreticalProbabilities[i])
	}
	sum.MeanTimeDeviation = math.Abs(sum.EmpiricalMeanTime - sum.TheoreticalMeanTime)
	sum.HasTheory = true

	return sum, nil
}

// weightByInitial returns Σ_s init[s]·B[s,·] and Σ_s init[s]·t[s], with
// absorbing s contributing e_s and 0.
func weightByInitial(c *chain.Chain, sol *fundamental.Solution) ([]float64, float64, error) {
	initial := c.Initial()
	probs := make([]float64, len(sol.Absorbing))
	meanTime := 0.0
	for s, mass := range initial {
		if mass == 0 {
			continue
		}
		if pos := c.AbsorbingPosition(s); pos >= 0 {
			probs[pos] += mass
			continue
		}
		pos := c.TransientPosition(s)
		row, err := sol.B.Row(pos)
		if err != nil {
			return nil, 0, fmt.Errorf("analysis: B row %d: %w", pos, err)
		}
		for j, v := range row {
			probs[j] += mass * v
		}
		meanTime += mass * sol.ExpectedTimes[pos]
	}

	return probs, meanTime, nil
}

func samePartition(sol *fundamental.Solution, c *chain.Chain) bool {
	return slices.Equal(sol.Absorbing, c.Absorbing()) && slices.Equal(sol.Transient, c.Transient())
}
