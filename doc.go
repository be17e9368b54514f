// Package absorb analyzes discrete-time, finite-state absorbing Markov chains
// two ways and puts the answers side by side.
//
// What you get:
//
//	• Simulation: first-passage trajectories drawn from a seeded PCG stream,
//	  sequentially or on several workers with identical output
//	• Estimation: transition counts, occupancy and the empirical matrix
//	• Closed form: N = (I − Q)⁻¹, B = N·R, t = N·1 and the time variance
//	• Reconciliation: empirical vs theoretical absorption probabilities and
//	  mean absorption time, under an explicit weighting
//
// Subpackages, leaves first:
//
//	matrix/       dense row-major matrices, Doolittle LU, inversion
//	sampling/     PCG streams, seed derivation, categorical draws
//	chain/        validated transition matrix + explicit absorbing partition
//	simulate/     Walker (one trajectory) and Run (an ensemble)
//	estimate/     statistics rebuilt from trajectories alone
//	fundamental/  Q, R, N, B, t, Var
//	analysis/     Aggregate and the one-call Analyze pipeline
//	config/       YAML + ABSORB_* environment configuration
//	cmd/absorb/   the command-line front end
//
// Quick start:
//
//	c, _ := chain.New(rows, initial, []int{5, 6})
//	rep, _ := analysis.Analyze(ctx, c, 1000, analysis.WithSimulation(simulate.WithSeed(7)))
//	fmt.Println(rep.Summary.EmpiricalMeanTime, rep.Summary.TheoreticalMeanTime)
package absorb
