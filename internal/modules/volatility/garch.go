// Package volatility provides GARCH(1,1) time-varying volatility modelling.
//
// The model captures volatility clustering: large moves beget large moves.
// Conditional variance follows
//
//	sigma²_t = omega + alpha*r²_{t-1} + beta*sigma²_{t-1}
//
// seeded with the sample variance of the input returns.
package volatility

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/horizon/internal/domain"
)

// Params holds the GARCH(1,1) coefficients.
type Params struct {
	Omega float64 `json:"omega"` // long-run variance weight, > 0
	Alpha float64 `json:"alpha"` // reaction to last squared return, >= 0
	Beta  float64 `json:"beta"`  // persistence of last variance, >= 0
}

// DefaultParams are mild-persistence coefficients suitable for monthly
// equity returns when no fitted parameters are available.
func DefaultParams() Params {
	return Params{Omega: 0.00001, Alpha: 0.08, Beta: 0.90}
}

// Validate enforces positivity and the stationarity condition alpha+beta < 1.
// A non-stationary parameterization has no finite long-run variance, so it
// is rejected before any work starts.
func (p Params) Validate() error {
	if p.Omega <= 0 {
		return domain.ConfigurationError{Field: "omega", Message: "must be greater than 0"}
	}
	if p.Alpha < 0 {
		return domain.ConfigurationError{Field: "alpha", Message: "must not be negative"}
	}
	if p.Beta < 0 {
		return domain.ConfigurationError{Field: "beta", Message: "must not be negative"}
	}
	if p.Alpha+p.Beta >= 1 {
		return domain.ConfigurationError{Field: "alpha+beta", Message: "must be below 1 for stationarity"}
	}
	return nil
}

// LongRunVariance returns the unconditional variance omega/(1-alpha-beta).
func (p Params) LongRunVariance() float64 {
	return p.Omega / (1 - p.Alpha - p.Beta)
}

// Model computes conditional volatility series from return history.
// Pure: the same inputs always produce the same series.
type Model struct {
	params Params
	log    zerolog.Logger
}

// NewModel creates a GARCH(1,1) model. Returns a ConfigurationError when
// the parameters violate positivity or stationarity.
func NewModel(params Params, log zerolog.Logger) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Model{
		params: params,
		log:    log.With().Str("component", "garch").Logger(),
	}, nil
}

// Params returns the model coefficients.
func (m *Model) Params() Params {
	return m.params
}

// Series returns the conditional volatility (not variance) for each step of
// the return series. The first element is the square root of the sample
// variance; element t conditions on return t-1. O(n).
func (m *Model) Series(returns []float64) ([]float64, error) {
	if len(returns) < 2 {
		return nil, domain.InsufficientDataError{Required: 2, Got: len(returns)}
	}

	sample := stat.Variance(returns, nil)
	if sample <= 0 {
		sample = m.params.LongRunVariance()
	}

	sigmas := make([]float64, len(returns))
	variance := sample
	sigmas[0] = math.Sqrt(variance)
	for t := 1; t < len(returns); t++ {
		variance = m.params.Omega + m.params.Alpha*returns[t-1]*returns[t-1] + m.params.Beta*variance
		sigmas[t] = math.Sqrt(variance)
	}
	return sigmas, nil
}

// Forecast projects conditional volatility h steps ahead from the end of
// the return series. Variance decays geometrically toward the long-run
// variance at rate alpha+beta.
func (m *Model) Forecast(returns []float64, h int) ([]float64, error) {
	if h <= 0 {
		return nil, domain.ConfigurationError{Field: "horizon", Message: "must be greater than 0"}
	}
	series, err := m.Series(returns)
	if err != nil {
		return nil, err
	}

	lastSigma := series[len(series)-1]
	lastReturn := returns[len(returns)-1]

	variance := m.params.Omega + m.params.Alpha*lastReturn*lastReturn + m.params.Beta*lastSigma*lastSigma
	longRun := m.params.LongRunVariance()
	persistence := m.params.Alpha + m.params.Beta

	forecast := make([]float64, h)
	for i := 0; i < h; i++ {
		forecast[i] = math.Sqrt(variance)
		variance = longRun + persistence*(variance-longRun)
	}
	return forecast, nil
}
