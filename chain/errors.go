package chain

import "errors"

var (
	// ErrMalformedTransitionMatrix is returned when P is not square, has a
	// negative or non-finite entry, has a row not summing to 1 within
	// tolerance, or declares an absorbing state whose row is not a pure
	// self-loop.
	ErrMalformedTransitionMatrix = errors.New("chain: malformed transition matrix")

	// ErrInvalidPartition is returned when the absorbing index list is empty,
	// out of range or contains duplicates.
	ErrInvalidPartition = errors.New("chain: invalid transient/absorbing partition")

	// ErrNonAbsorbingChain is returned when some transient state has no
	// positive-probability path to an absorbing state.
	ErrNonAbsorbingChain = errors.New("chain: absorption unreachable")

	// ErrInvalidTrajectory is returned by CheckTrajectory for a sequence that
	// is not a first-passage path of the chain.
	ErrInvalidTrajectory = errors.New("chain: invalid trajectory")
)
