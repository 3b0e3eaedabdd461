package regime

import (
	"math"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/horizon/internal/domain"
)

// ThresholdClassifier labels regimes from a cumulative price index built
// out of the return series: bull when the index trades above its moving
// average with positive trailing returns, bear when below with negative
// trailing returns, neutral otherwise. No model fitting involved, so it
// always succeeds given enough data.
type ThresholdClassifier struct {
	minObservations int
	smaPeriod       int
	trailingWindow  int
	log             zerolog.Logger
}

// NewThresholdClassifier creates the fallback classifier.
func NewThresholdClassifier(minObservations int, log zerolog.Logger) *ThresholdClassifier {
	if minObservations < 20 {
		minObservations = 20
	}
	return &ThresholdClassifier{
		minObservations: minObservations,
		smaPeriod:       20,
		trailingWindow:  10,
		log:             log,
	}
}

// Classify implements Classifier.
func (c *ThresholdClassifier) Classify(returns []float64) (*Classification, error) {
	if len(returns) < c.minObservations {
		return nil, domain.InsufficientDataError{Required: c.minObservations, Got: len(returns)}
	}

	// Cumulative price index starting at 1.
	index := make([]float64, len(returns)+1)
	index[0] = 1
	for i, r := range returns {
		index[i+1] = index[i] * (1 + r)
	}

	sma := talib.Sma(index, c.smaPeriod)

	// Label every step that has both a moving average and a trailing window.
	labels := make([]domain.RegimeLabel, len(returns))
	for t := range returns {
		idx := t + 1 // index position for the price after return t
		if idx < c.smaPeriod || t+1 < c.trailingWindow {
			labels[t] = domain.RegimeNeutral
			continue
		}
		trailing := stat.Mean(returns[t+1-c.trailingWindow:t+1], nil)
		switch {
		case index[idx] > sma[idx] && trailing > 0:
			labels[t] = domain.RegimeBull
		case index[idx] < sma[idx] && trailing < 0:
			labels[t] = domain.RegimeBear
		default:
			labels[t] = domain.RegimeNeutral
		}
	}

	// Per-regime moments from the labelled buckets. Empty buckets inherit
	// the whole-series moments so every regime stays usable downstream.
	overallMean := stat.Mean(returns, nil)
	overallVar := stat.Variance(returns, nil)

	regimes := make(map[domain.RegimeLabel]domain.MarketRegime, numStates)
	probabilities := make(map[domain.RegimeLabel]float64, numStates)
	for _, label := range labelOrder {
		var bucket []float64
		for t, l := range labels {
			if l == label {
				bucket = append(bucket, returns[t])
			}
		}
		mean, variance := overallMean, overallVar
		if len(bucket) >= 2 {
			mean = stat.Mean(bucket, nil)
			variance = stat.Variance(bucket, nil)
		}
		regimes[label] = domain.MarketRegime{
			Label:    label,
			Mean:     mean,
			Variance: math.Max(variance, varianceFloor),
		}
		probabilities[label] = float64(len(bucket)) / float64(len(labels))
	}

	current := labels[len(labels)-1]

	c.log.Debug().Str("current", string(current)).Msg("threshold classification complete")

	return &Classification{
		Current:       regimes[current],
		Regimes:       regimes,
		Probabilities: probabilities,
		Method:        "threshold",
	}, nil
}
