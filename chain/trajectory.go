package chain

import "fmt"

// Trajectory is the ordered sequence of visited states, from the start state
// to the first absorbing state reached.
type Trajectory []int

// Steps returns the number of transitions (len−1); 0 for an empty trajectory.
func (t Trajectory) Steps() int {
	if len(t) == 0 {
		return 0
	}

	return len(t) - 1
}

// Final returns the last state, or -1 for an empty trajectory.
func (t Trajectory) Final() int {
	if len(t) == 0 {
		return -1
	}

	return t[len(t)-1]
}

// CheckTrajectory verifies that t is a first-passage path of c: non-empty,
// every state in range, every transition has positive probability, the last
// state is absorbing and no earlier state is.
func (c *Chain) CheckTrajectory(t Trajectory) error {
	if len(t) == 0 {
		return fmt.Errorf("empty: %w", ErrInvalidTrajectory)
	}
	n := c.States()
	for i, s := range t {
		if s < 0 || s >= n {
			return fmt.Errorf("position %d: state %d out of range: %w", i, s, ErrInvalidTrajectory)
		}
		last := i == len(t)-1
		if c.isAbsorbing[s] != last {
			return fmt.Errorf("position %d: state %d absorbing=%t: %w", i, s, c.isAbsorbing[s], ErrInvalidTrajectory)
		}
		if i > 0 {
			if v, _ := c.p.At(t[i-1], s); v <= 0 {
				return fmt.Errorf("transition %d→%d has zero probability: %w", t[i-1], s, ErrInvalidTrajectory)
			}
		}
	}

	return nil
}
