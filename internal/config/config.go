// Package config provides configuration management functionality.
package config

import (
	"time"

	"github.com/aristath/horizon/internal/domain"
)

// Defaults for the engine. All of these are overridable per call; none are
// read from the environment — the engine is a library, not a process.
const (
	DefaultTrials           = 10000
	DefaultPaths            = 1000
	DefaultInflationRate    = 0.025
	DefaultValueFloor       = 1e-8
	DefaultMaxIterations    = 1000
	DefaultTolerance        = 1e-6
	DefaultRiskFreeRate     = 0.02
	DefaultAutocorrelation  = 0.1
	DefaultMinRegimeHistory = 60
)

// Config holds engine configuration shared by the simulator, the estimator
// and the optimizer. Passed explicitly into every service constructor;
// there is no process-wide state.
type Config struct {
	// Monte Carlo sizes
	Trials int // trials per goal-success estimate
	Paths  int // paths per simulator run

	// Economics
	InflationRate float64 // annual, applied to inflation-adjusted targets
	RiskFreeRate  float64 // annual, for Sharpe

	// Numerics
	ValueFloor      float64 // positivity floor for simulated values
	Autocorrelation float64 // AR(1) coefficient on monthly trial returns

	// Optimizer termination
	MaxIterations int
	Tolerance     float64
	Deadline      time.Duration // zero means no deadline

	// Regime fitting
	MinRegimeHistory int // minimum observations before fitting is attempted

	// Base seed for all stochastic components. Worker/path seeds derive from
	// it by index, so results are independent of scheduling order.
	Seed uint64
}

// Default returns the engine defaults with the given base seed.
func Default(seed uint64) Config {
	return Config{
		Trials:           DefaultTrials,
		Paths:            DefaultPaths,
		InflationRate:    DefaultInflationRate,
		RiskFreeRate:     DefaultRiskFreeRate,
		ValueFloor:       DefaultValueFloor,
		Autocorrelation:  DefaultAutocorrelation,
		MaxIterations:    DefaultMaxIterations,
		Tolerance:        DefaultTolerance,
		MinRegimeHistory: DefaultMinRegimeHistory,
		Seed:             seed,
	}
}

// Validate rejects configurations that can never produce meaningful results.
func (c Config) Validate() error {
	if c.Trials <= 0 {
		return domain.ConfigurationError{Field: "trials", Message: "must be greater than 0"}
	}
	if c.Paths <= 0 {
		return domain.ConfigurationError{Field: "paths", Message: "must be greater than 0"}
	}
	if c.InflationRate < 0 {
		return domain.ConfigurationError{Field: "inflation_rate", Message: "must not be negative"}
	}
	if c.ValueFloor <= 0 {
		return domain.ConfigurationError{Field: "value_floor", Message: "must be greater than 0"}
	}
	if c.MaxIterations <= 0 {
		return domain.ConfigurationError{Field: "max_iterations", Message: "must be greater than 0"}
	}
	if c.Tolerance <= 0 {
		return domain.ConfigurationError{Field: "tolerance", Message: "must be greater than 0"}
	}
	return nil
}
