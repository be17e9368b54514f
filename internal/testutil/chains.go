// Package testutil provides shared chain fixtures for package tests.
package testutil

// RepresentativeRows returns the 7-state reference chain: states 0..4 are
// transient, 5 and 6 absorbing. State 2 never moves directly to 6.
func RepresentativeRows() [][]float64 {
	return [][]float64{
		{0.1, 0.3, 0.2, 0.2, 0.1, 0.05, 0.05},
		{0.2, 0.1, 0.3, 0.2, 0.1, 0.05, 0.05},
		{0.3, 0.2, 0.1, 0.3, 0.05, 0.05, 0},
		{0.2, 0.3, 0.2, 0.1, 0.1, 0.05, 0.05},
		{0.1, 0.2, 0.1, 0.2, 0.2, 0.1, 0.1},
		{0, 0, 0, 0, 0, 1, 0},
		{0, 0, 0, 0, 0, 0, 1},
	}
}

// RepresentativeInitial is uniform over the transient states 0..4.
func RepresentativeInitial() []float64 {
	return []float64{0.2, 0.2, 0.2, 0.2, 0.2, 0, 0}
}

// RepresentativeAbsorbing lists the absorbing states of RepresentativeRows.
func RepresentativeAbsorbing() []int {
	return []int{5, 6}
}

// GamblersRuinRows returns a fair gambler's-ruin chain on 0..n with
// absorbing barriers 0 and n. Requires n >= 2.
func GamblersRuinRows(n int) [][]float64 {
	rows := make([][]float64, n+1)
	for i := range rows {
		rows[i] = make([]float64, n+1)
	}
	rows[0][0] = 1
	rows[n][n] = 1
	for i := 1; i < n; i++ {
		rows[i][i-1] = 0.5
		rows[i][i+1] = 0.5
	}

	return rows
}
