// Package chain holds the validated input of an absorbing-chain analysis:
// the transition matrix, the initial distribution and the explicit
// partition of states into transient and absorbing.
//
// A Chain is immutable after construction; every accessor returns a copy.
package chain

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/absorb/matrix"
	"github.com/katalvlaran/absorb/sampling"
)

// Chain is a validated absorbing Markov chain.
type Chain struct {
	p           *matrix.Dense
	initial     []float64
	absorbing   []int // ascending
	transient   []int // ascending
	isAbsorbing []bool
	tol         float64
}

// New validates rows, initial and the absorbing index list and returns a Chain.
//
// Validation order: matrix shape → entries and row sums → partition →
// absorbing self-loops → initial distribution → reachability.
//
// Errors:
//   - ErrMalformedTransitionMatrix, ErrInvalidPartition, ErrNonAbsorbingChain,
//     sampling.ErrInvalidDistribution.
func New(rows [][]float64, initial []float64, absorbing []int, opts ...Option) (*Chain, error) {
	p, err := matrix.NewFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTransitionMatrix, err)
	}

	return build(p, initial, absorbing, opts)
}

// NewFromMatrix is New for a matrix.Matrix input. The matrix is copied.
func NewFromMatrix(p matrix.Matrix, initial []float64, absorbing []int, opts ...Option) (*Chain, error) {
	if err := matrix.ValidateNotNil(p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTransitionMatrix, err)
	}
	rows := make([][]float64, p.Rows())
	for i := range rows {
		rows[i] = make([]float64, p.Cols())
		for j := range rows[i] {
			v, err := p.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedTransitionMatrix, err)
			}
			rows[i][j] = v
		}
	}

	return New(rows, initial, absorbing, opts...)
}

// NewWithTransientCount builds a chain whose states 0..k-1 are transient and
// k..S-1 absorbing.
func NewWithTransientCount(rows [][]float64, initial []float64, k int, opts ...Option) (*Chain, error) {
	if k < 0 || k >= len(rows) {
		return nil, fmt.Errorf("transient count %d for %d states: %w", k, len(rows), ErrInvalidPartition)
	}
	absorbing := make([]int, 0, len(rows)-k)
	for i := k; i < len(rows); i++ {
		absorbing = append(absorbing, i)
	}

	return New(rows, initial, absorbing, opts...)
}

func build(p *matrix.Dense, initial []float64, absorbing []int, optFns []Option) (*Chain, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	n, c := p.Shape()
	if n != c {
		return nil, fmt.Errorf("shape %dx%d: %w", n, c, ErrMalformedTransitionMatrix)
	}

	// Stage 1: every row is a probability vector.
	for i := 0; i < n; i++ {
		row, _ := p.Row(i)
		if err := sampling.ValidateDistribution(row, o.tol); err != nil {
			return nil, fmt.Errorf("row %d: %w (%w)", i, ErrMalformedTransitionMatrix, err)
		}
	}

	// Stage 2: explicit partition.
	if len(absorbing) == 0 {
		return nil, fmt.Errorf("no absorbing states: %w", ErrInvalidPartition)
	}
	isAbs := make([]bool, n)
	for _, a := range absorbing {
		if a < 0 || a >= n {
			return nil, fmt.Errorf("absorbing index %d outside [0,%d): %w", a, n, ErrInvalidPartition)
		}
		if isAbs[a] {
			return nil, fmt.Errorf("absorbing index %d repeated: %w", a, ErrInvalidPartition)
		}
		isAbs[a] = true
	}
	abs := append([]int(nil), absorbing...)
	sort.Ints(abs)
	trans := make([]int, 0, n-len(abs))
	for i := 0; i < n; i++ {
		if !isAbs[i] {
			trans = append(trans, i)
		}
	}

	// Stage 3: absorbing rows are pure self-loops.
	for _, a := range abs {
		if v, _ := p.At(a, a); math.Abs(v-1) > o.tol {
			return nil, fmt.Errorf("absorbing state %d has P[%d,%d]=%g: %w", a, a, a, v, ErrMalformedTransitionMatrix)
		}
	}

	// Stage 4: initial distribution.
	if len(initial) != n {
		return nil, fmt.Errorf("initial distribution has %d entries, want %d: %w", len(initial), n, sampling.ErrInvalidDistribution)
	}
	if err := sampling.ValidateDistribution(initial, o.tol); err != nil {
		return nil, fmt.Errorf("initial distribution: %w", err)
	}

	ch := &Chain{
		p:           p,
		initial:     append([]float64(nil), initial...),
		absorbing:   abs,
		transient:   trans,
		isAbsorbing: isAbs,
		tol:         o.tol,
	}

	// Stage 5: every transient state can reach absorption.
	if o.reachability {
		if stuck := ch.unreachable(); len(stuck) > 0 {
			return nil, fmt.Errorf("states %v never absorb: %w", stuck, ErrNonAbsorbingChain)
		}
	}

	return ch, nil
}

// unreachable returns the transient states with no positive-probability path
// into the absorbing set, via a reverse BFS from the absorbing states.
//
// Complexity: O(S²).
func (c *Chain) unreachable() []int {
	n := c.States()
	seen := make([]bool, n)
	queue := make([]int, 0, n)
	for _, a := range c.absorbing {
		seen[a] = true
		queue = append(queue, a)
	}
	for head := 0; head < len(queue); head++ {
		to := queue[head]
		for from := 0; from < n; from++ {
			if seen[from] {
				continue
			}
			if v, _ := c.p.At(from, to); v > 0 {
				seen[from] = true
				queue = append(queue, from)
			}
		}
	}
	var stuck []int
	for _, t := range c.transient {
		if !seen[t] {
			stuck = append(stuck, t)
		}
	}

	return stuck
}

// States returns S, the number of states.
func (c *Chain) States() int { return c.p.Rows() }

// Matrix returns a copy of the transition matrix.
func (c *Chain) Matrix() *matrix.Dense { return c.p.Clone().(*matrix.Dense) }

// Row returns a copy of row i of P.
func (c *Chain) Row(i int) ([]float64, error) { return c.p.Row(i) }

// Initial returns a copy of the initial distribution.
func (c *Chain) Initial() []float64 { return append([]float64(nil), c.initial...) }

// Absorbing returns the absorbing state indices in ascending order.
func (c *Chain) Absorbing() []int { return append([]int(nil), c.absorbing...) }

// Transient returns the transient state indices in ascending order.
func (c *Chain) Transient() []int { return append([]int(nil), c.transient...) }

// IsAbsorbing reports whether state i is absorbing. Out-of-range is false.
func (c *Chain) IsAbsorbing(i int) bool {
	return i >= 0 && i < len(c.isAbsorbing) && c.isAbsorbing[i]
}

// Tolerance returns the numeric tolerance the chain was validated with.
func (c *Chain) Tolerance() float64 { return c.tol }

// AbsorbingPosition returns the position of state s within Absorbing(),
// or -1 when s is not absorbing.
func (c *Chain) AbsorbingPosition(s int) int {
	return position(c.absorbing, s)
}

// TransientPosition returns the position of state s within Transient(),
// or -1 when s is not transient.
func (c *Chain) TransientPosition(s int) int {
	return position(c.transient, s)
}

func position(sorted []int, s int) int {
	i := sort.SearchInts(sorted, s)
	if i < len(sorted) && sorted[i] == s {
		return i
	}

	return -1
}
