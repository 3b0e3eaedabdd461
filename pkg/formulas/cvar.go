package formulas

import (
	"math"
	"sort"
)

// CalculateCVaR calculates Conditional Value at Risk at the specified
// confidence level: the mean of the worst (1-confidence) fraction of values.
// For 95% confidence this is the average of the worst 5% of outcomes, so
// CVaR is always at least as extreme as the matching VaR on the loss side.
func CalculateCVaR(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	if len(values) == 1 {
		return values[0]
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	tailProbability := 1.0 - confidence
	tailCount := int(math.Ceil(float64(len(sorted)) * tailProbability))
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, v := range sorted[:tailCount] {
		sum += v
	}
	return sum / float64(tailCount)
}

// TailMeanBelow returns the mean of all values at or below the threshold.
// Returns the threshold itself when no value qualifies, keeping the
// CVaR <= VaR ordering intact for degenerate inputs.
func TailMeanBelow(values []float64, threshold float64) float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v <= threshold {
			sum += v
			count++
		}
	}
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}

// MaxDrawdown returns the largest peak-to-trough decline of a value series,
// as a fraction of the running peak. 0 for monotonically rising series.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	runningMax := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if runningMax > 0 {
			dd := (runningMax - v) / runningMax
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
