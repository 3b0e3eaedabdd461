// Package risk reduces simulated path sets to tail-risk and
// distribution-shape statistics.
package risk

import (
	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/simulation"
	"github.com/aristath/horizon/pkg/formulas"
)

// Calculator computes RiskMetrics from a path matrix. Pure, O(P*N).
type Calculator struct {
	riskFreeRate   float64 // annual
	periodsPerYear float64
	log            zerolog.Logger
}

// NewCalculator creates a risk metrics calculator. periodsPerYear converts
// per-period statistics to annual terms (12 for monthly paths).
func NewCalculator(riskFreeRate, periodsPerYear float64, log zerolog.Logger) (*Calculator, error) {
	if periodsPerYear <= 0 {
		return nil, domain.ConfigurationError{Field: "periods_per_year", Message: "must be greater than 0"}
	}
	return &Calculator{
		riskFreeRate:   riskFreeRate,
		periodsPerYear: periodsPerYear,
		log:            log.With().Str("component", "risk_metrics").Logger(),
	}, nil
}

// Calculate reduces the matrix to a RiskMetrics value.
//
// Conventions:
//   - VaR95/VaR99 are the 5th/1st percentiles of final path values:
//     low values are bad, so a lower VaR means more tail risk.
//   - CVaR95 is the mean of final values at or below VaR95, hence always
//     <= VaR95 (at least as extreme on the loss side).
//   - Drawdowns are per-path maxima of (running_max - value)/running_max,
//     reported as both the worst and the mean across paths.
//   - Skewness and kurtosis of the pooled period-return distribution use
//     the Fisher convention (excess kurtosis, normal = 0).
func (c *Calculator) Calculate(matrix *simulation.PathMatrix) (*domain.RiskMetrics, error) {
	if matrix == nil || matrix.NumPaths() == 0 {
		return nil, domain.ConfigurationError{Field: "paths", Message: "path matrix is empty"}
	}

	finals := matrix.FinalValues()
	var95 := formulas.Percentile(finals, 0.05)
	var99 := formulas.Percentile(finals, 0.01)
	cvar95 := formulas.TailMeanBelow(finals, var95)

	// Per-path drawdowns and pooled period returns in one pass.
	numPaths := matrix.NumPaths()
	numSteps := matrix.NumSteps()
	maxDD := 0.0
	sumDD := 0.0
	periodReturns := make([]float64, 0, numPaths*(numSteps-1))
	for i := 0; i < numPaths; i++ {
		path := matrix.Path(i)
		dd := formulas.MaxDrawdown(path)
		sumDD += dd
		if dd > maxDD {
			maxDD = dd
		}
		for t := 1; t < numSteps; t++ {
			if path[t-1] > 0 {
				periodReturns = append(periodReturns, path[t]/path[t-1]-1)
			}
		}
	}

	metrics := &domain.RiskMetrics{
		VaR95:        var95,
		VaR99:        var99,
		CVaR95:       cvar95,
		MaxDrawdown:  maxDD,
		MeanDrawdown: sumDD / float64(numPaths),
		Sharpe:       formulas.SharpeRatio(periodReturns, c.riskFreeRate, c.periodsPerYear),
		Volatility:   formulas.AnnualizedVolatility(periodReturns, c.periodsPerYear),
		Skewness:     formulas.Skewness(periodReturns),
		Kurtosis:     formulas.ExcessKurtosis(periodReturns),
	}

	c.log.Debug().
		Float64("var_95", metrics.VaR95).
		Float64("cvar_95", metrics.CVaR95).
		Float64("max_drawdown", metrics.MaxDrawdown).
		Msg("risk metrics computed")

	return metrics, nil
}
