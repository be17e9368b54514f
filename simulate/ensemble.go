package simulate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/sampling"
)

// Ensemble is the output of Run. Trajectories[i] and Times[i] belong to the
// i-th invocation.
type Ensemble struct {
	Trajectories []chain.Trajectory
	Times        []int
	Seed         uint64 // effective master seed
}

// Len returns the number of trajectories.
func (e *Ensemble) Len() int { return len(e.Trajectories) }

// MeanTime returns the arithmetic mean of Times (0 for an empty ensemble).
func (e *Ensemble) MeanTime() float64 {
	if len(e.Times) == 0 {
		return 0
	}
	total := 0
	for _, t := range e.Times {
		total += t
	}

	return float64(total) / float64(len(e.Times))
}

// Run simulates n independent trajectories of c.
//
// Behavior highlights:
//   - ctx is checked between trajectories, never inside one.
//   - The first error (timeout or cancellation) aborts the run.
//   - With WithWorkers(k>1) each worker owns its own Walker and Stream and
//     writes only its own result slots.
//
// Errors:
//   - ErrNilChain, ErrInvalidEnsembleSize, ErrAbsorptionTimeout, ctx.Err().
func Run(ctx context.Context, c *chain.Chain, n int, opts ...Option) (*Ensemble, error) {
	if c == nil {
		return nil, ErrNilChain
	}
	if n < 1 {
		return nil, ErrInvalidEnsembleSize
	}
	cfg := defaultConfig()
	for _, fn := range opts {
		fn(&cfg)
	}
	workers := min(cfg.workers, n)

	ens := &Ensemble{
		Trajectories: make([]chain.Trajectory, n),
		Times:        make([]int, n),
		Seed:         cfg.seed,
	}
	cfg.logger.Debug().
		Int("realizations", n).
		Int("workers", workers).
		Uint64("seed", cfg.seed).
		Int("max_steps", cfg.maxSteps).
		Msg("ensemble started")
	began := time.Now()

	// worker runs trajectories first, first+stride, ... into ens.
	worker := func(ctx context.Context, first, stride int) error {
		w, err := NewWalker(c, sampling.NewStream(cfg.seed), cfg.maxSteps)
		if err != nil {
			return err
		}
		for i := first; i < n; i += stride {
			if err := ctx.Err(); err != nil {
				return err
			}
			traj, err := w.RunSeeded(sampling.DeriveSeed(cfg.seed, uint64(i)))
			if err != nil {
				return err
			}
			ens.Trajectories[i] = traj
			ens.Times[i] = traj.Steps()
			if cfg.observer != nil {
				cfg.observer.ObserveTrajectory(traj)
			}
		}
		return nil
	}

	if workers == 1 {
		if err := worker(ctx, 0, 1); err != nil {
			cfg.logger.Debug().Err(err).Msg("ensemble aborted")
			return nil, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for k := 0; k < workers; k++ {
			g.Go(func() error { return worker(gctx, k, workers) })
		}
		if err := g.Wait(); err != nil {
			cfg.logger.Debug().Err(err).Msg("ensemble aborted")
			return nil, err
		}
	}

	cfg.logger.Debug().
		Dur("elapsed", time.Since(began)).
		Float64("mean_steps", ens.MeanTime()).
		Msg("ensemble finished")

	return ens, nil
}
