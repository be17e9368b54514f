package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/absorb/analysis"
	"github.com/katalvlaran/absorb/config"
	"github.com/katalvlaran/absorb/internal/log"
	"github.com/katalvlaran/absorb/internal/metrics"
	"github.com/katalvlaran/absorb/simulate"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate the chain and compare with the closed form",
		Long: `Run one analysis: simulate the configured number of trajectories,
estimate the empirical transition matrix and absorption frequencies, solve
N = (I - Q)^-1, B = N R and t = N 1, and print both side by side.

Examples:
  absorb run                          # built-in 7-state chain, 100 trajectories
  absorb run --config chain.yaml      # your own chain
  ABSORB_SEED=7 absorb run --show 5   # reseed, print five trajectories
  absorb run --json --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			withMetrics, _ := cmd.Flags().GetBool("metrics")
			show, _ := cmd.Flags().GetInt("show")

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log.Configure(log.Config{Level: cfg.Log.Level, Output: cmd.ErrOrStderr(), Version: version})

			c, err := cfg.Chain()
			if err != nil {
				return fmt.Errorf("invalid chain: %w", err)
			}
			opts, err := cfg.AnalysisOptions()
			if err != nil {
				return err
			}
			opts = append(opts, analysis.WithLogger(log.WithComponent("analysis")))

			var collector *metrics.Collector
			if withMetrics {
				collector = metrics.NewCollector()
				opts = append(opts, analysis.WithSimulation(simulate.WithObserver(collector)))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rep, err := analysis.Analyze(ctx, c, cfg.Realizations, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				err = writeJSON(out, rep, show)
			} else {
				err = writeText(out, rep, show)
			}
			if err != nil {
				return err
			}
			if collector != nil {
				return writeMetrics(out, collector)
			}

			return nil
		},
	}
	cmd.Flags().String("config", "", "YAML configuration file (default: built-in reference chain)")
	cmd.Flags().Bool("metrics", false, "Append Prometheus metrics in text exposition format")
	cmd.Flags().Int("show", 0, "Print the first N trajectories")

	return cmd
}

// runOutput is the JSON document printed by run --json.
type runOutput struct {
	RunID        string            `json:"run_id"`
	Summary      *analysis.Summary `json:"summary"`
	Weighting    string            `json:"weighting"`
	Realizations int               `json:"realizations"`
	Seed         uint64            `json:"seed"`

	EmpiricalTransition [][]float64 `json:"empirical_transition"`
	Occupancy           []int       `json:"occupancy"`

	Fundamental             [][]float64 `json:"fundamental,omitempty"`
	AbsorptionProbabilities [][]float64 `json:"absorption_probabilities,omitempty"`
	ExpectedTimes           []float64   `json:"expected_times,omitempty"`
	TimeVariance            []float64   `json:"time_variance,omitempty"`
	TheoryError             string      `json:"theory_error,omitempty"`

	Trajectories [][]int `json:"trajectories,omitempty"`
}

func writeJSON(w io.Writer, rep *analysis.Report, show int) error {
	doc := runOutput{
		RunID:               rep.RunID.String(),
		Summary:             rep.Summary,
		Weighting:           rep.Summary.Weighting.String(),
		Realizations:        rep.Ensemble.Len(),
		Seed:                rep.Ensemble.Seed,
		EmpiricalTransition: rep.Empirical.P.RawRows(),
		Occupancy:           rep.Empirical.Occupancy,
	}
	if rep.Theory != nil && rep.Theory.N != nil {
		doc.Fundamental = rep.Theory.N.RawRows()
		doc.AbsorptionProbabilities = rep.Theory.B.RawRows()
		doc.ExpectedTimes = rep.Theory.ExpectedTimes
		doc.TimeVariance = rep.Theory.Variance
	}
	if rep.TheoryErr != nil {
		doc.TheoryError = rep.TheoryErr.Error()
	}
	for i := 0; i < min(show, rep.Ensemble.Len()); i++ {
		doc.Trajectories = append(doc.Trajectories, rep.Ensemble.Trajectories[i])
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

func writeText(w io.Writer, rep *analysis.Report, show int) error {
	s := rep.Summary
	fmt.Fprintf(w, "run %s: %d trajectories, seed %d, weighting %s\n\n",
		rep.RunID, rep.Ensemble.Len(), rep.Ensemble.Seed, s.Weighting)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s.HasTheory {
		fmt.Fprintln(tw, "absorbing state\tempirical\ttheoretical\t|diff|")
		for i, st := range s.AbsorbingStates {
			fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\n", st, s.EmpiricalProbabilities[i], s.TheoreticalProbabilities[i], s.ProbabilityDeviation[i])
		}
		fmt.Fprintf(tw, "mean steps\t%.4f\t%.4f\t%.4f\n", s.EmpiricalMeanTime, s.TheoreticalMeanTime, s.MeanTimeDeviation)
	} else {
		fmt.Fprintln(tw, "absorbing state\tempirical")
		for i, st := range s.AbsorbingStates {
			fmt.Fprintf(tw, "%d\t%.4f\n", st, s.EmpiricalProbabilities[i])
		}
		fmt.Fprintf(tw, "mean steps\t%.4f\n", s.EmpiricalMeanTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rep.TheoryErr != nil {
		fmt.Fprintf(w, "\nclosed form unavailable: %v\n", rep.TheoryErr)
	} else if rep.Theory.N != nil {
		fmt.Fprintf(w, "\nfundamental matrix N (transient states %v):\n%s", rep.Theory.Transient, rep.Theory.N)
		fmt.Fprintf(w, "\nabsorption probabilities B (columns %v):\n%s", rep.Theory.Absorbing, rep.Theory.B)
		fmt.Fprintf(w, "\nexpected steps t: %s\n", formatFloats(rep.Theory.ExpectedTimes))
	}

	fmt.Fprintf(w, "\nempirical transition matrix (%d transitions):\n%s", rep.Empirical.Transitions(), rep.Empirical.P)

	if show > 0 {
		fmt.Fprintln(w)
		for i := 0; i < min(show, rep.Ensemble.Len()); i++ {
			fmt.Fprintf(w, "trajectory %d (%d steps): %v\n", i, rep.Ensemble.Times[i], rep.Ensemble.Trajectories[i])
		}
	}

	return nil
}

func writeMetrics(w io.Writer, c *metrics.Collector) error {
	families, err := c.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	fmt.Fprintln(w)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4f", x)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
