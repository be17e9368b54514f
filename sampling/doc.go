// Package sampling draws state indices from discrete probability vectors.
//
// Randomness always comes from an explicit source: a Stream is a seeded,
// reseedable PCG generator, and DeriveSeed splits a parent seed into
// independent substreams so that parallel workers never share state.
//
//	s := sampling.NewStream(42)
//	c, err := sampling.NewCategorical([]float64{0.2, 0.8}, s, 0)
//	if err != nil {
//	  // errors.Is(err, sampling.ErrInvalidDistribution)
//	}
//	i := c.Draw() // 0 with probability 0.2, 1 with probability 0.8
//
// Weighted draws are delegated to gonum's distuv.Categorical.
package sampling
