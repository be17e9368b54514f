package analysis_test

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/absorb/analysis"
	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/estimate"
	"github.com/katalvlaran/absorb/fundamental"
	"github.com/katalvlaran/absorb/internal/testutil"
	"github.com/katalvlaran/absorb/simulate"
)

const theoreticalMeanTime = 9.837656903765687

func representative(t *testing.T) *chain.Chain {
	t.Helper()
	c, err := chain.New(testutil.RepresentativeRows(), testutil.RepresentativeInitial(), testutil.RepresentativeAbsorbing())
	require.NoError(t, err)

	return c
}

func TestAnalyze_Representative(t *testing.T) {
	c := representative(t)
	rep, err := analysis.Analyze(context.Background(), c, 100, analysis.WithSimulation(simulate.WithSeed(42)))
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, rep.RunID)
	require.Equal(t, 100, rep.Ensemble.Len())
	for _, tr := range rep.Ensemble.Trajectories {
		require.Contains(t, []int{5, 6}, tr.Final())
	}
	require.NoError(t, rep.TheoryErr)
	require.NotNil(t, rep.Theory)

	s := rep.Summary
	require.True(t, s.HasTheory)
	require.Equal(t, []int{5, 6}, s.AbsorbingStates)
	require.InDelta(t, 1.0, s.EmpiricalProbabilities[0]+s.EmpiricalProbabilities[1], 1e-12)
	require.InDeltaSlice(t, []float64{0.5518828451882843, 0.4481171548117153}, s.TheoreticalProbabilities, 1e-9)
	require.InDelta(t, theoreticalMeanTime, s.TheoreticalMeanTime, 1e-9)
	require.InDelta(t, s.MeanTimeDeviation, math.Abs(s.EmpiricalMeanTime-s.TheoreticalMeanTime), 1e-12)
}

// TestAnalyze_MeanTimeConverges pools ten ensembles of 100 and requires the
// pooled mean within 20% of the closed form.
func TestAnalyze_MeanTimeConverges(t *testing.T) {
	c := representative(t)
	total := 0.0
	const runs = 10
	for seed := uint64(1); seed <= runs; seed++ {
		rep, err := analysis.Analyze(context.Background(), c, 100, analysis.WithSimulation(simulate.WithSeed(seed)))
		require.NoError(t, err)
		total += rep.Summary.EmpiricalMeanTime
	}
	require.InEpsilon(t, theoreticalMeanTime, total/runs, 0.2)
}

func TestAnalyze_ProbabilitiesConverge(t *testing.T) {
	c := representative(t)
	rep, err := analysis.Analyze(context.Background(), c, 3000,
		analysis.WithWeighting(analysis.WeightInitial),
		analysis.WithSimulation(simulate.WithSeed(2718), simulate.WithWorkers(4)),
	)
	require.NoError(t, err)
	for i := range rep.Summary.AbsorbingStates {
		require.Less(t, rep.Summary.ProbabilityDeviation[i], 0.05)
	}
}

func TestAnalyze_AllMassOnAbsorbingState(t *testing.T) {
	c, err := chain.New(testutil.RepresentativeRows(), []float64{0, 0, 0, 0, 0, 1, 0}, testutil.RepresentativeAbsorbing())
	require.NoError(t, err)

	rep, err := analysis.Analyze(context.Background(), c, 20, analysis.WithWeighting(analysis.WeightInitial))
	require.NoError(t, err)
	require.Equal(t, 0.0, rep.Summary.EmpiricalMeanTime)
	require.Equal(t, []float64{1, 0}, rep.Summary.EmpiricalProbabilities)
	// Under the initial weighting theory and experiment agree exactly here.
	require.Equal(t, []float64{1, 0}, rep.Summary.TheoreticalProbabilities)
	require.Equal(t, 0.0, rep.Summary.TheoreticalMeanTime)
}

func TestAnalyze_SingularTheoryKeepsEmpirical(t *testing.T) {
	// States 1 and 2 cycle forever but are never entered from state 0.
	rows := [][]float64{
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
	c, err := chain.New(rows, []float64{1, 0, 0, 0}, []int{3}, chain.WithoutReachabilityCheck())
	require.NoError(t, err)

	rep, err := analysis.Analyze(context.Background(), c, 10)
	require.NoError(t, err)
	require.ErrorIs(t, rep.TheoryErr, fundamental.ErrSingularFundamentalMatrix)
	require.Nil(t, rep.Theory)
	require.False(t, rep.Summary.HasTheory)
	require.Equal(t, []float64{1}, rep.Summary.EmpiricalProbabilities)
	require.Equal(t, 1.0, rep.Summary.EmpiricalMeanTime)
	require.Nil(t, rep.Summary.TheoreticalProbabilities)
}

func TestAnalyze_Errors(t *testing.T) {
	c := representative(t)
	_, err := analysis.Analyze(context.Background(), c, 0)
	require.ErrorIs(t, err, simulate.ErrInvalidEnsembleSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = analysis.Analyze(ctx, c, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_LogsRunID(t *testing.T) {
	var buf bytes.Buffer
	id := uuid.MustParse("7c1f3b7e-2a43-4f61-9a57-3d5b8c0e9f10")
	_, err := analysis.Analyze(context.Background(), representative(t), 5,
		analysis.WithRunID(id),
		analysis.WithLogger(zerolog.New(&buf)),
	)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"run_id":"7c1f3b7e-2a43-4f61-9a57-3d5b8c0e9f10"`)
	require.Contains(t, buf.String(), "analysis finished")
}

func TestAggregate_Weightings(t *testing.T) {
	c := representative(t)
	ens, err := simulate.Run(context.Background(), c, 50, simulate.WithSeed(3))
	require.NoError(t, err)
	est, err := estimate.FromTrajectories(c.States(), ens.Trajectories)
	require.NoError(t, err)
	sol, err := fundamental.Solve(c)
	require.NoError(t, err)

	uni, err := analysis.Aggregate(c, est, ens, sol, analysis.WeightUniform)
	require.NoError(t, err)
	ini, err := analysis.Aggregate(c, est, ens, sol, analysis.WeightInitial)
	require.NoError(t, err)

	// The initial distribution is uniform over every transient state, so
	// both reductions coincide.
	require.InDeltaSlice(t, uni.TheoreticalProbabilities, ini.TheoreticalProbabilities, 1e-12)
	require.InDelta(t, uni.TheoreticalMeanTime, ini.TheoreticalMeanTime, 1e-12)
	require.Equal(t, uni.EmpiricalProbabilities, ini.EmpiricalProbabilities)

	empOnly, err := analysis.Aggregate(c, est, ens, nil, analysis.WeightUniform)
	require.NoError(t, err)
	require.False(t, empOnly.HasTheory)
	require.Equal(t, uni.EmpiricalMeanTime, empOnly.EmpiricalMeanTime)
}

func TestAggregate_InitialWeightingDiffers(t *testing.T) {
	c, err := chain.New(testutil.RepresentativeRows(), []float64{0, 0, 1, 0, 0, 0, 0}, testutil.RepresentativeAbsorbing())
	require.NoError(t, err)
	ens, err := simulate.Run(context.Background(), c, 10)
	require.NoError(t, err)
	est, err := estimate.FromTrajectories(c.States(), ens.Trajectories)
	require.NoError(t, err)
	sol, err := fundamental.Solve(c)
	require.NoError(t, err)

	ini, err := analysis.Aggregate(c, est, ens, sol, analysis.WeightInitial)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{0.5732217573221756, 0.42677824267782416}, ini.TheoreticalProbabilities, 1e-9)
	require.InDelta(t, 10.46443514644351, ini.TheoreticalMeanTime, 1e-9)
}

func TestAggregate_Errors(t *testing.T) {
	c := representative(t)
	_, err := analysis.Aggregate(c, nil, nil, nil, analysis.WeightUniform)
	require.ErrorIs(t, err, analysis.ErrMissingInput)

	ens, err := simulate.Run(context.Background(), c, 5)
	require.NoError(t, err)
	est, err := estimate.FromTrajectories(c.States(), ens.Trajectories)
	require.NoError(t, err)

	other, err := chain.NewWithTransientCount(testutil.RepresentativeRows(), testutil.RepresentativeInitial(), 5)
	require.NoError(t, err)
	sol, err := fundamental.Solve(other)
	require.NoError(t, err)
	sol.Absorbing = []int{6}
	_, err = analysis.Aggregate(c, est, ens, sol, analysis.WeightUniform)
	require.ErrorIs(t, err, analysis.ErrPartitionMismatch)

	_, err = analysis.Aggregate(c, est, ens, nil, analysis.Weighting(9))
	require.NoError(t, err)
	sol.Absorbing = []int{5, 6}
	_, err = analysis.Aggregate(c, est, ens, sol, analysis.Weighting(9))
	require.ErrorIs(t, err, analysis.ErrUnknownWeighting)
}

func TestParseWeighting(t *testing.T) {
	w, err := analysis.ParseWeighting("")
	require.NoError(t, err)
	require.Equal(t, analysis.WeightUniform, w)

	w, err = analysis.ParseWeighting(" Initial ")
	require.NoError(t, err)
	require.Equal(t, analysis.WeightInitial, w)
	require.Equal(t, "initial", w.String())

	_, err = analysis.ParseWeighting("visits")
	require.ErrorIs(t, err, analysis.ErrUnknownWeighting)
	require.Equal(t, "Weighting(7)", analysis.Weighting(7).String())
}
