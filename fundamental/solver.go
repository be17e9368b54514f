// SPDX-License-Identifier: MIT
// Package fundamental computes the closed-form quantities of an absorbing
// chain from its canonical blocks:
//
//	Q = P[transient, transient]   R = P[transient, absorbing]
//	N = (I − Q)⁻¹                 B = N·R
//	t = N·1                       Var = (2N − I)·t − t∘t
//
// N[i][j] is the expected number of visits to transient j starting from
// transient i, B[i][a] the probability of ending in absorbing a, t[i] the
// expected number of steps before absorption and Var[i] its variance.
// Rows follow ascending transient index, columns of B ascending absorbing
// index.
package fundamental

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/matrix"
)

// ErrSingularFundamentalMatrix is returned when I − Q cannot be inverted,
// which means some transient state never reaches the absorbing set.
// Returned errors also match matrix.ErrSingular.
var ErrSingularFundamentalMatrix = errors.New("fundamental: I - Q is singular")

// Solution is the output of Solve and SolveK.
// For a chain without transient states every matrix is nil and every
// vector empty.
type Solution struct {
	Transient []int // state index of each Q/N/B row
	Absorbing []int // state index of each R/B column

	Q *matrix.Dense
	R *matrix.Dense
	N *matrix.Dense
	B *matrix.Dense

	ExpectedTimes []float64 // t
	Variance      []float64
}

// Solve computes the Solution over the explicit partition of c.
func Solve(c *chain.Chain) (*Solution, error) {
	if c == nil {
		return nil, fmt.Errorf("fundamental: %w", matrix.ErrNilMatrix)
	}

	return solve(c.Matrix(), c.Transient(), c.Absorbing())
}

// SolveK treats states 0..k-1 of p as transient and k..S-1 as absorbing.
// The rows of p are not validated as distributions; p must be square.
//
// Errors:
//   - matrix.ErrNilMatrix, matrix.ErrDimensionMismatch (p not square).
//   - chain.ErrInvalidPartition (k outside [0, S]).
//   - ErrSingularFundamentalMatrix.
func SolveK(p matrix.Matrix, k int) (*Solution, error) {
	if err := matrix.ValidateSquareNonNil(p); err != nil {
		return nil, fmt.Errorf("fundamental: %w", err)
	}
	s := p.Rows()
	if k < 0 || k > s {
		return nil, fmt.Errorf("fundamental: transient count %d for %d states: %w", k, s, chain.ErrInvalidPartition)
	}
	d, ok := p.(*matrix.Dense)
	if !ok {
		var err error
		if d, err = toDense(p); err != nil {
			return nil, fmt.Errorf("fundamental: %w", err)
		}
	}

	transient := make([]int, k)
	for i := range transient {
		transient[i] = i
	}
	absorbing := make([]int, 0, s-k)
	for i := k; i < s; i++ {
		absorbing = append(absorbing, i)
	}

	return solve(d, transient, absorbing)
}

// solve runs the block algorithm on an already partitioned matrix.
//
// Complexity: O(k³ + k²·a) for k transient and a absorbing states.
func solve(p *matrix.Dense, transient, absorbing []int) (*Solution, error) {
	sol := &Solution{
		Transient:     transient,
		Absorbing:     absorbing,
		ExpectedTimes: []float64{},
		Variance:      []float64{},
	}
	k := len(transient)
	if k == 0 {
		return sol, nil
	}

	var err error
	if sol.Q, err = p.Induced(transient, transient); err != nil {
		return nil, fmt.Errorf("fundamental: Q: %w", err)
	}
	if sol.R, err = p.Induced(transient, absorbing); err != nil {
		return nil, fmt.Errorf("fundamental: R: %w", err)
	}

	id, err := matrix.NewIdentity(k)
	if err != nil {
		return nil, fmt.Errorf("fundamental: %w", err)
	}
	iq, err := matrix.Sub(id, sol.Q)
	if err != nil {
		return nil, fmt.Errorf("fundamental: I-Q: %w", err)
	}
	if sol.N, err = matrix.Inverse(iq); err != nil {
		if errors.Is(err, matrix.ErrSingular) {
			return nil, fmt.Errorf("%w: %w", ErrSingularFundamentalMatrix, err)
		}
		return nil, fmt.Errorf("fundamental: N: %w", err)
	}

	b, err := matrix.Mul(sol.N, sol.R)
	if err != nil {
		return nil, fmt.Errorf("fundamental: B: %w", err)
	}
	sol.B = b.(*matrix.Dense)

	if sol.ExpectedTimes, err = matrix.RowSums(sol.N); err != nil {
		return nil, fmt.Errorf("fundamental: t: %w", err)
	}
	if sol.Variance, err = variance(sol.N, sol.ExpectedTimes); err != nil {
		return nil, fmt.Errorf("fundamental: variance: %w", err)
	}

	return sol, nil
}

// variance returns (2N − I)·t − t∘t, computed as 2·(N·t) − t − t∘t.
func variance(n *matrix.Dense, t []float64) ([]float64, error) {
	nt, err := matrix.MatVec(n, t)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = 2*nt[i] - ti - ti*ti
	}

	return out, nil
}

func toDense(p matrix.Matrix) (*matrix.Dense, error) {
	r, c := p.Rows(), p.Cols()
	d, err := matrix.NewDense(r, c)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, err := p.At(i, j)
			if err != nil {
				return nil, err
			}
			if err = d.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

// MeanAbsorptionProbabilities returns the column means of B: the absorption
// probabilities averaged uniformly over transient starting states.
// The result is empty when there are no transient states.
func (s *Solution) MeanAbsorptionProbabilities() []float64 {
	if s.B == nil {
		return []float64{}
	}
	means, err := matrix.ColMeans(s.B)
	if err != nil {
		return []float64{}
	}

	return means
}

// MeanExpectedTime returns the uniform mean of ExpectedTimes (0 if empty).
func (s *Solution) MeanExpectedTime() float64 {
	if len(s.ExpectedTimes) == 0 {
		return 0
	}

	return floats.Sum(s.ExpectedTimes) / float64(len(s.ExpectedTimes))
}
