package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultTolerance is the allowed |Σp − 1| drift of a probability vector.
const DefaultTolerance = 1e-9

// ErrInvalidDistribution is returned for an empty probability vector, a
// negative or non-finite entry, or a sum deviating from 1 beyond tolerance.
// Vectors are never renormalized silently.
var ErrInvalidDistribution = errors.New("sampling: invalid probability distribution")

// ValidateDistribution checks p against tol (tol<=0 ⇒ DefaultTolerance).
//
// Complexity: O(len(p)).
func ValidateDistribution(p []float64, tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if len(p) == 0 {
		return fmt.Errorf("empty vector: %w", ErrInvalidDistribution)
	}
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("entry %d is %v: %w", i, v, ErrInvalidDistribution)
		}
		if v < 0 {
			return fmt.Errorf("entry %d is negative (%g): %w", i, v, ErrInvalidDistribution)
		}
	}
	if sum := floats.Sum(p); math.Abs(sum-1) > tol {
		return fmt.Errorf("sum is %.12g, want 1±%g: %w", sum, tol, ErrInvalidDistribution)
	}

	return nil
}

// Categorical draws indices from a fixed, validated probability vector using
// a caller-supplied source. It is as goroutine-safe as its source.
type Categorical struct {
	weights []float64
	dist    distuv.Categorical
}

// NewCategorical validates p and compiles a sampler bound to src.
// src==nil uses a Stream seeded with DefaultSeed.
//
// Complexity: O(len(p)) to build; O(log len(p)) per Draw.
func NewCategorical(p []float64, src rand.Source, tol float64) (*Categorical, error) {
	if err := ValidateDistribution(p, tol); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewStream(DefaultSeed)
	}
	w := make([]float64, len(p))
	copy(w, p)

	return &Categorical{weights: w, dist: distuv.NewCategorical(w, src)}, nil
}

// Draw returns index i with probability p[i]. Zero-probability indices are
// never returned.
func (c *Categorical) Draw() int {
	for {
		i := int(c.dist.Rand())
		if c.weights[i] > 0 {
			return i
		}
	}
}

// Len returns the number of categories.
func (c *Categorical) Len() int { return len(c.weights) }

// Prob returns the probability of index i (0 outside the support).
func (c *Categorical) Prob(i int) float64 {
	if i < 0 || i >= len(c.weights) {
		return 0
	}

	return c.weights[i]
}

// Sample is the one-shot form: validate p, then draw one index from src.
// For repeated draws from the same vector prefer NewCategorical.
func Sample(p []float64, src rand.Source) (int, error) {
	c, err := NewCategorical(p, src, DefaultTolerance)
	if err != nil {
		return 0, err
	}

	return c.Draw(), nil
}
