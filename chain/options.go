package chain

import "fmt"

// DefaultTolerance bounds |Σ row − 1| and the off-diagonal mass of absorbing rows.
const DefaultTolerance = 1e-9

// Option configures chain validation.
type Option func(*options)

type options struct {
	tol          float64
	reachability bool
}

func defaultOptions() options {
	return options{tol: DefaultTolerance, reachability: true}
}

// WithTolerance overrides DefaultTolerance. Panics if eps is not positive:
// that is a programmer error, not an input error.
func WithTolerance(eps float64) Option {
	if !(eps > 0) {
		panic(fmt.Sprintf("chain: WithTolerance(%g): tolerance must be > 0", eps))
	}
	return func(o *options) { o.tol = eps }
}

// WithoutReachabilityCheck skips the eager absorption-reachability check.
// A chain built this way may make simulations hit their step cap and the
// solver report a singular fundamental matrix.
func WithoutReachabilityCheck() Option {
	return func(o *options) { o.reachability = false }
}
