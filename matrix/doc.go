// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra kernels used by the
// absorbing-chain solver.
//
// The matrix package provides:
//
//   - Dense: a row-major float64 matrix with safe accessors (At/Set return
//     errors instead of panicking) and copy-based sub-block extraction
//     (Induced), used to carve Q and R out of a transition matrix.
//   - Kernels: Sub, Mul, MatVec, LU (Doolittle) and Inverse.
//   - Reductions: RowSums, ColSums, ColMeans.
//
// All kernels validate their inputs through validators.go and return
// package sentinels, wrapped with an operation tag ("Inverse: ...") so that
// callers match them with errors.Is.
//
// Determinism:
//
//	Loop orders are fixed (i→k→j for Mul, col↑/i↑/i↓ for Inverse) and no
//	pivoting is performed, so identical inputs give bit-identical outputs.
//
// Complexity:
//
//	Mul and Inverse are O(n³); everything else is O(r·c).
package matrix
