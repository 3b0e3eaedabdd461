// Package formulas provides reusable statistical formulas for the planning
// engine. All functions are pure and allocation-light; callers own their
// input slices and the functions never mutate them.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Skewness calculates the sample skewness of the data.
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return stat.Skew(data, nil)
}

// ExcessKurtosis calculates the excess kurtosis (Fisher convention: a normal
// distribution scores 0).
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// Percentile returns the p-quantile (p in [0,1]) of the data using the
// empirical distribution. The input is copied and sorted internally.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// CalculateReturns converts a price series to simple percentage returns.
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1].
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
		}
	}
	return returns
}

// LogReturns converts a price series to log returns. Non-positive prices
// are skipped rather than producing NaN.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			returns = append(returns, math.Log(prices[i]/prices[i-1]))
		}
	}
	return returns
}

// AnnualizedVolatility scales a per-period standard deviation to annual terms.
func AnnualizedVolatility(periodReturns []float64, periodsPerYear float64) float64 {
	if len(periodReturns) == 0 || periodsPerYear <= 0 {
		return 0
	}
	return StdDev(periodReturns) * math.Sqrt(periodsPerYear)
}

// SharpeRatio calculates the annualized Sharpe ratio from per-period returns.
// riskFree is the annual risk-free rate; it is deflated to per-period terms
// before the excess-return computation.
func SharpeRatio(periodReturns []float64, riskFree, periodsPerYear float64) float64 {
	if len(periodReturns) < 2 || periodsPerYear <= 0 {
		return 0
	}
	sd := StdDev(periodReturns)
	if sd == 0 {
		return 0
	}
	excess := Mean(periodReturns) - riskFree/periodsPerYear
	return excess / sd * math.Sqrt(periodsPerYear)
}
