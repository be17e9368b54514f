// SPDX-License-Identifier: MIT
package fundamental_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/fundamental"
	"github.com/katalvlaran/absorb/internal/testutil"
	"github.com/katalvlaran/absorb/matrix"
)

const eps = 1e-9

func representative(t *testing.T) *chain.Chain {
	t.Helper()
	c, err := chain.New(testutil.RepresentativeRows(), testutil.RepresentativeInitial(), testutil.RepresentativeAbsorbing())
	require.NoError(t, err)

	return c
}

func TestSolve_Representative(t *testing.T) {
	sol, err := fundamental.Solve(representative(t))
	require.NoError(t, err)

	require.Equal(t, []int{0, 1, 2, 3, 4}, sol.Transient)
	require.Equal(t, []int{5, 6}, sol.Absorbing)
	require.Equal(t, 5, sol.N.Rows())
	require.Equal(t, 2, sol.B.Cols())

	wantT := []float64{9.962343096234308, 10.004184100418408, 10.46443514644351, 9.962343096234306, 8.794979079497905}
	require.InDeltaSlice(t, wantT, sol.ExpectedTimes, eps)
	require.InDelta(t, 9.837656903765687, sol.MeanExpectedTime(), eps)

	wantB := [][]float64{
		{0.5481171548117153, 0.45188284518828437},
		{0.5502092050209204, 0.4497907949790794},
		{0.5732217573221756, 0.42677824267782416},
		{0.5481171548117153, 0.45188284518828437},
		{0.5397489539748952, 0.46025104602510447},
	}
	for i, row := range sol.B.RawRows() {
		require.InDeltaSlice(t, wantB[i], row, eps, "B row %d", i)
		require.InDelta(t, 1.0, row[0]+row[1], eps, "B row %d sum", i)
	}
	require.InDeltaSlice(t, []float64{0.5518828451882843, 0.4481171548117153}, sol.MeanAbsorptionProbabilities(), eps)

	wantVar := []float64{89.07197002853586, 89.18243728226044, 89.32966859823881, 89.07197002853587, 86.17667757917398}
	require.InDeltaSlice(t, wantVar, sol.Variance, 1e-7)
}

// TestSolve_MatchesOracle cross-checks N against gonum on the same blocks.
func TestSolve_MatchesOracle(t *testing.T) {
	sol, err := fundamental.Solve(representative(t))
	require.NoError(t, err)

	k := len(sol.Transient)
	iq := mat.NewDense(k, k, nil)
	for i, row := range sol.Q.RawRows() {
		for j, v := range row {
			d := -v
			if i == j {
				d += 1
			}
			iq.Set(i, j, d)
		}
	}
	var inv mat.Dense
	require.NoError(t, inv.Inverse(iq))
	for i, row := range sol.N.RawRows() {
		for j, v := range row {
			require.InDelta(t, inv.At(i, j), v, eps, "N(%d,%d)", i, j)
		}
	}

	// N entries are expected visit counts: diagonal >= 1, all >= 0.
	for i, row := range sol.N.RawRows() {
		require.GreaterOrEqual(t, row[i], 1.0)
		for _, v := range row {
			require.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestSolve_DirectAbsorptionRowIsIndicator(t *testing.T) {
	rows := [][]float64{
		{0.2, 0.3, 0.4, 0.1},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
	c, err := chain.NewWithTransientCount(rows, []float64{1, 0, 0, 0}, 2)
	require.NoError(t, err)

	sol, err := fundamental.Solve(c)
	require.NoError(t, err)

	b := sol.B.RawRows()
	require.Equal(t, []float64{0, 1}, b[1])
	require.InDeltaSlice(t, []float64{0.5, 0.5}, b[0], eps)
	require.InDeltaSlice(t, []float64{1.625, 1}, sol.ExpectedTimes, eps)
	require.InDeltaSlice(t, []float64{0.546875, 0}, sol.Variance, eps)
}

func TestSolve_GamblersRuin(t *testing.T) {
	const n = 4
	rows := testutil.GamblersRuinRows(n)
	initial := make([]float64, n+1)
	initial[2] = 1
	c, err := chain.New(rows, initial, []int{0, n})
	require.NoError(t, err)

	sol, err := fundamental.Solve(c)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, sol.Transient)

	// From i: ruin with probability 1 - i/n, expected duration i(n-i).
	for pos, i := range sol.Transient {
		row, err := sol.B.Row(pos)
		require.NoError(t, err)
		require.InDelta(t, 1-float64(i)/n, row[0], eps)
		require.InDelta(t, float64(i)/n, row[1], eps)
		require.InDelta(t, float64(i*(n-i)), sol.ExpectedTimes[pos], eps)
		require.InDelta(t, 8.0, sol.Variance[pos], 1e-8)
	}
}

func TestSolveK(t *testing.T) {
	p, err := matrix.NewFromRows(testutil.RepresentativeRows())
	require.NoError(t, err)

	byK, err := fundamental.SolveK(p, 5)
	require.NoError(t, err)
	byChain, err := fundamental.Solve(representative(t))
	require.NoError(t, err)
	require.Equal(t, byChain.ExpectedTimes, byK.ExpectedTimes)
	require.Equal(t, byChain.B.RawRows(), byK.B.RawRows())
}

func TestSolveK_NoTransientStates(t *testing.T) {
	p, err := matrix.NewIdentity(3)
	require.NoError(t, err)

	sol, err := fundamental.SolveK(p, 0)
	require.NoError(t, err)
	require.Empty(t, sol.Transient)
	require.Equal(t, []int{0, 1, 2}, sol.Absorbing)
	require.Nil(t, sol.N)
	require.Nil(t, sol.B)
	require.Empty(t, sol.ExpectedTimes)
	require.Empty(t, sol.MeanAbsorptionProbabilities())
	require.Equal(t, 0.0, sol.MeanExpectedTime())
}

func TestSolveK_Singular(t *testing.T) {
	// State 0 is treated as transient but never leaves itself.
	p, err := matrix.NewFromRows([][]float64{
		{1, 0, 0},
		{0.5, 0, 0.5},
		{0, 0, 1},
	})
	require.NoError(t, err)

	_, err = fundamental.SolveK(p, 2)
	require.ErrorIs(t, err, fundamental.ErrSingularFundamentalMatrix)
	require.ErrorIs(t, err, matrix.ErrSingular)
}

func TestSolveK_InvalidInput(t *testing.T) {
	_, err := fundamental.SolveK(nil, 0)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)

	rect, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	_, err = fundamental.SolveK(rect, 1)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	sq, err := matrix.NewIdentity(2)
	require.NoError(t, err)
	_, err = fundamental.SolveK(sq, 3)
	require.ErrorIs(t, err, chain.ErrInvalidPartition)
	_, err = fundamental.SolveK(sq, -1)
	require.ErrorIs(t, err, chain.ErrInvalidPartition)

	_, err = fundamental.Solve(nil)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
