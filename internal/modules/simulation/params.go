// Package simulation generates Monte Carlo price paths from a regime-aware
// jump-diffusion process.
//
// The per-step evolution is
//
//	S_{t+1} = S_t * exp[(mu - sigma²/2)*dt + sigma*sqrt(dt)*Z_t + J_t]
//
// with Z_t standard normal and J_t a compound Poisson jump: K_t ~
// Poisson(lambda*dt) jump events per step, each drawn from a Student-t
// (nu=4) with the configured jump mean and scale. When a step has more
// than one jump event the draws are summed. Values are floored at a small
// epsilon so no path ever touches zero.
package simulation

import (
	"github.com/aristath/horizon/internal/domain"
)

// DefaultValueFloor is the positivity floor applied to every simulated value.
const DefaultValueFloor = 1e-8

// Params configures one simulator run.
//
// Drift and Volatility are annualized; Dt is the step length in years
// (1.0/12 for monthly steps). JumpIntensity is the expected number of
// jumps per year.
type Params struct {
	Paths        int     `json:"paths"`
	Periods      int     `json:"periods"`
	Dt           float64 `json:"dt"`
	InitialValue float64 `json:"initial_value"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`

	// VolatilitySeries optionally replaces the scalar volatility with a
	// per-step annualized sigma (e.g. a GARCH forecast). Must cover every
	// period when set.
	VolatilitySeries []float64 `json:"volatility_series,omitempty"`

	// Jump process. Zero intensity disables jumps entirely.
	JumpIntensity float64 `json:"jump_intensity"`
	JumpMean      float64 `json:"jump_mean"`
	JumpStd       float64 `json:"jump_std"`

	// Regimes optionally overrides drift/volatility per step with regime
	// per-period moments. Must cover every period when set.
	Regimes []domain.MarketRegime `json:"-"`

	Seed uint64 `json:"seed"`

	// ValueFloor guards against float underflow; zero means DefaultValueFloor.
	ValueFloor float64 `json:"value_floor,omitempty"`
}

// Validate rejects parameters that can never produce a meaningful run.
// Called before any work starts.
func (p Params) Validate() error {
	if p.Paths <= 0 {
		return domain.ConfigurationError{Field: "paths", Message: "must be greater than 0"}
	}
	if p.Periods <= 0 {
		return domain.ConfigurationError{Field: "periods", Message: "must be greater than 0"}
	}
	if p.Dt <= 0 {
		return domain.ConfigurationError{Field: "dt", Message: "must be greater than 0"}
	}
	if p.InitialValue <= 0 {
		return domain.ConfigurationError{Field: "initial_value", Message: "must be greater than 0"}
	}
	if p.Volatility < 0 {
		return domain.ConfigurationError{Field: "volatility", Message: "must not be negative"}
	}
	if p.JumpIntensity < 0 {
		return domain.ConfigurationError{Field: "jump_intensity", Message: "must not be negative"}
	}
	if p.JumpStd < 0 {
		return domain.ConfigurationError{Field: "jump_std", Message: "must not be negative"}
	}
	if p.VolatilitySeries != nil && len(p.VolatilitySeries) < p.Periods {
		return domain.ConfigurationError{Field: "volatility_series", Message: "must cover every period"}
	}
	if p.Regimes != nil && len(p.Regimes) < p.Periods {
		return domain.ConfigurationError{Field: "regimes", Message: "must cover every period"}
	}
	return nil
}

// floor returns the effective positivity floor.
func (p Params) floor() float64 {
	if p.ValueFloor > 0 {
		return p.ValueFloor
	}
	return DefaultValueFloor
}
