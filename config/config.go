// Package config loads an analysis configuration from YAML and environment
// variables and turns it into a validated chain plus run options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/absorb/analysis"
	"github.com/katalvlaran/absorb/chain"
	"github.com/katalvlaran/absorb/sampling"
	"github.com/katalvlaran/absorb/simulate"
)

// Environment variables applied on top of the file.
const (
	EnvSeed         = "ABSORB_SEED"
	EnvRealizations = "ABSORB_REALIZATIONS"
	EnvWorkers      = "ABSORB_WORKERS"
	EnvLogLevel     = "ABSORB_LOG_LEVEL"
)

// DefaultRealizations is the ensemble size of the default configuration.
const DefaultRealizations = 100

// ErrInvalidConfig is returned for unreadable or inconsistent settings.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config describes one analysis run.
type Config struct {
	// Transition is the row-stochastic matrix P.
	Transition [][]float64 `json:"transition" yaml:"transition"`

	// Initial is the distribution of the start state.
	Initial []float64 `json:"initial" yaml:"initial"`

	// Absorbing lists the absorbing states. Mutually exclusive with
	// TransientCount.
	Absorbing []int `json:"absorbing,omitempty" yaml:"absorbing,omitempty"`

	// TransientCount marks states 0..k-1 transient and the rest absorbing.
	TransientCount *int `json:"transient_count,omitempty" yaml:"transient_count,omitempty"`

	Realizations int     `json:"realizations" yaml:"realizations"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	Workers      int     `json:"workers" yaml:"workers"`
	MaxSteps     int     `json:"max_steps" yaml:"max_steps"`
	Weighting    string  `json:"weighting" yaml:"weighting"`
	Tolerance    float64 `json:"tolerance" yaml:"tolerance"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is a zerolog level name: "debug", "info" (default), "warn"...
	Level string `json:"level" yaml:"level"`
}

// runDefaults returns the run parameters without a chain.
func runDefaults() *Config {
	return &Config{
		Realizations: DefaultRealizations,
		Seed:         sampling.DefaultSeed,
		Workers:      simulate.DefaultWorkers,
		MaxSteps:     simulate.DefaultMaxSteps,
		Weighting:    analysis.WeightUniform.String(),
		Tolerance:    chain.DefaultTolerance,
		Log:          LogConfig{Level: "info"},
	}
}

// Default returns the 7-state reference configuration: states 0..4
// transient with uniform initial mass, 5 and 6 absorbing.
func Default() *Config {
	c := runDefaults()
	c.Transition = [][]float64{
		{0.1, 0.3, 0.2, 0.2, 0.1, 0.05, 0.05},
		{0.2, 0.1, 0.3, 0.2, 0.1, 0.05, 0.05},
		{0.3, 0.2, 0.1, 0.3, 0.05, 0.05, 0},
		{0.2, 0.3, 0.2, 0.1, 0.1, 0.05, 0.05},
		{0.1, 0.2, 0.1, 0.2, 0.2, 0.1, 0.1},
		{0, 0, 0, 0, 0, 1, 0},
		{0, 0, 0, 0, 0, 0, 1},
	}
	c.Initial = []float64{0.2, 0.2, 0.2, 0.2, 0.2, 0, 0}
	c.Absorbing = []int{5, 6}

	return c
}

// Load reads path (or starts from Default when path is empty), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if path == "" {
		c = Default()
	} else {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("reading config file: %w: %w", ErrInvalidConfig, readErr)
		}
		if c, err = parse(data); err != nil {
			return nil, err
		}
	}
	if err = applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Parse decodes YAML and validates it. Omitted run parameters keep their
// defaults; a document with no chain fields at all uses the default chain.
func Parse(data []byte) (*Config, error) {
	c, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func parse(data []byte) (*Config, error) {
	c := runDefaults()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w: %w", ErrInvalidConfig, err)
	}
	if len(c.Transition) == 0 && len(c.Initial) == 0 && c.Absorbing == nil && c.TransientCount == nil {
		d := Default()
		c.Transition, c.Initial, c.Absorbing = d.Transition, d.Initial, d.Absorbing
	}

	return c, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the run parameters and the partition fields. The chain
// itself is validated by Chain.
func (c *Config) Validate() error {
	switch {
	case c.Realizations < 1:
		return fmt.Errorf("realizations must be >= 1, got %d: %w", c.Realizations, ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("workers must be >= 1, got %d: %w", c.Workers, ErrInvalidConfig)
	case c.MaxSteps < 1:
		return fmt.Errorf("max_steps must be >= 1, got %d: %w", c.MaxSteps, ErrInvalidConfig)
	case c.Tolerance <= 0:
		return fmt.Errorf("tolerance must be > 0, got %g: %w", c.Tolerance, ErrInvalidConfig)
	case len(c.Transition) == 0:
		return fmt.Errorf("transition matrix is empty: %w", ErrInvalidConfig)
	case c.Absorbing != nil && c.TransientCount != nil:
		return fmt.Errorf("absorbing and transient_count are mutually exclusive: %w", ErrInvalidConfig)
	case c.Absorbing == nil && c.TransientCount == nil:
		return fmt.Errorf("one of absorbing or transient_count is required: %w", ErrInvalidConfig)
	}
	if _, err := analysis.ParseWeighting(c.Weighting); err != nil {
		return fmt.Errorf("weighting: %w: %w", ErrInvalidConfig, err)
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log level %q: %w", c.Log.Level, ErrInvalidConfig)
		}
	}

	return nil
}

// Chain builds the validated chain described by c.
func (c *Config) Chain() (*chain.Chain, error) {
	opt := chain.WithTolerance(c.Tolerance)
	if c.TransientCount != nil {
		return chain.NewWithTransientCount(c.Transition, c.Initial, *c.TransientCount, opt)
	}

	return chain.New(c.Transition, c.Initial, c.Absorbing, opt)
}

// AnalysisOptions maps the run parameters onto analysis.Analyze options.
// Callers append their own logger and observer.
func (c *Config) AnalysisOptions() ([]analysis.Option, error) {
	w, err := analysis.ParseWeighting(c.Weighting)
	if err != nil {
		return nil, err
	}

	return []analysis.Option{
		analysis.WithWeighting(w),
		analysis.WithSimulation(
			simulate.WithSeed(c.Seed),
			simulate.WithWorkers(c.Workers),
			simulate.WithMaxSteps(c.MaxSteps),
		),
	}, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(c *Config) error {
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvSeed, v, ErrInvalidConfig)
		}
		c.Seed = n
	}
	if v := os.Getenv(EnvRealizations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvRealizations, v, ErrInvalidConfig)
		}
		c.Realizations = n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvWorkers, v, ErrInvalidConfig)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}

	return nil
}
