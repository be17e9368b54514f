package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/estimate"
	"github.com/katalvlaran/absorb/fundamental"
	"github.com/katalvlaran/absorb/simulate"
)

// Report is the full output of Analyze.
type Report struct {
	RunID     uuid.UUID
	Ensemble  *simulate.Ensemble
	Empirical *estimate.Estimate
	// Theory is nil when TheoryErr is set.
	Theory    *fundamental.Solution
	TheoryErr error
	Summary   *Summary
	Elapsed   time.Duration
}

// Option configures Analyze.
type Option func(*options)

type options struct {
	weighting Weighting
	logger    zerolog.Logger
	runID     uuid.UUID
	sim       []simulate.Option
}

// WithWeighting selects the theoretical reduction (default WeightUniform).
func WithWeighting(w Weighting) Option {
	return func(o *options) { o.weighting = w }
}

// WithLogger sets the logger; the run ID is attached to every entry.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRunID fixes the run ID instead of generating a random one.
func WithRunID(id uuid.UUID) Option {
	return func(o *options) { o.runID = id }
}

// WithSimulation forwards options to simulate.Run.
func WithSimulation(opts ...simulate.Option) Option {
	return func(o *options) { o.sim = append(o.sim, opts...) }
}

// Analyze simulates n trajectories of c, estimates the empirical
// statistics, solves the closed form and reconciles both.
//
// A failure of the closed form (singular I − Q) is recorded in
// Report.TheoryErr; the empirical half of the report is still returned.
// Simulation and estimation errors abort the run.
func Analyze(ctx context.Context, c *chain.Chain, n int, opts ...Option) (*Report, error) {
	o := options{logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.runID == uuid.Nil {
		o.runID = uuid.New()
	}
	logger := o.logger.With().Str("run_id", o.runID.String()).Logger()
	began := time.Now()

	rep := &Report{RunID: o.runID}

	simOpts := append([]simulate.Option{simulate.WithLogger(logger)}, o.sim...)
	ens, err := simulate.Run(ctx, c, n, simOpts...)
	if err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		return nil, fmt.Errorf("analysis: simulate: %w", err)
	}
	rep.Ensemble = ens

	if rep.Empirical, err = estimate.FromTrajectories(c.States(), ens.Trajectories); err != nil {
		return nil, fmt.Errorf("analysis: estimate: %w", err)
	}

	if rep.Theory, err = fundamental.Solve(c); err != nil {
		if !errors.Is(err, fundamental.ErrSingularFundamentalMatrix) {
			return nil, fmt.Errorf("analysis: solve: %w", err)
		}
		rep.TheoryErr = err
		logger.Warn().Err(err).Msg("closed-form solution unavailable")
	}

	if rep.Summary, err = Aggregate(c, rep.Empirical, ens, rep.Theory, o.weighting); err != nil {
		return nil, err
	}
	rep.Elapsed = time.Since(began)

	logger.Info().
		Int("realizations", n).
		Str("weighting", o.weighting.String()).
		Float64("empirical_mean_time", rep.Summary.EmpiricalMeanTime).
		Float64("theoretical_mean_time", rep.Summary.TheoreticalMeanTime).
		Bool("has_theory", rep.Summary.HasTheory).
		Dur("elapsed", rep.Elapsed).
		Msg("analysis finished")

	return rep, nil
}
