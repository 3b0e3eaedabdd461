package regime

import (
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/horizon/internal/domain"
)

// syntheticRegimeSeries generates returns that alternate between a calm
// high-mean segment and a turbulent negative-mean segment.
func syntheticRegimeSeries(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 1))
	returns := make([]float64, n)
	for i := range returns {
		if (i/60)%2 == 0 {
			returns[i] = 0.008 + 0.02*rng.NormFloat64()
		} else {
			returns[i] = -0.010 + 0.05*rng.NormFloat64()
		}
	}
	return returns
}

func TestMarkovSwitching_InsufficientData(t *testing.T) {
	classifier := NewMarkovSwitchingClassifier(60, zerolog.Nop())
	_, err := classifier.Classify(make([]float64, 10))
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientDataError(err))
}

func TestMarkovSwitching_SeparatesRegimes(t *testing.T) {
	classifier := NewMarkovSwitchingClassifier(60, zerolog.Nop())
	returns := syntheticRegimeSeries(600, 7)

	classification, err := classifier.Classify(returns)
	require.NoError(t, err)
	require.Len(t, classification.Regimes, 3)

	bull := classification.Regimes[domain.RegimeBull]
	bear := classification.Regimes[domain.RegimeBear]
	assert.Greater(t, bull.Mean, bear.Mean, "bull mean must exceed bear mean")
	assert.Greater(t, bear.Variance, 0.0)
	assert.Equal(t, "markov_switching", classification.Method)

	// Transition matrix rows are probability distributions.
	require.Len(t, classification.Transition, 3)
	for _, row := range classification.Transition {
		sum := 0.0
		for _, p := range row {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	// Smoothed probabilities at the final observation sum to 1.
	total := 0.0
	for _, p := range classification.Probabilities {
		total += p
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestMarkovSwitching_Deterministic(t *testing.T) {
	classifier := NewMarkovSwitchingClassifier(60, zerolog.Nop())
	returns := syntheticRegimeSeries(400, 11)

	first, err := classifier.Classify(returns)
	require.NoError(t, err)
	second, err := classifier.Classify(returns)
	require.NoError(t, err)

	assert.Equal(t, first.Current.Label, second.Current.Label)
	assert.InDelta(t, first.Regimes[domain.RegimeBull].Mean, second.Regimes[domain.RegimeBull].Mean, 1e-15)
}

func TestThreshold_BullSeries(t *testing.T) {
	classifier := NewThresholdClassifier(20, zerolog.Nop())

	// Steady positive drift: the tail of the series must label bull.
	returns := make([]float64, 120)
	for i := range returns {
		returns[i] = 0.01
	}

	classification, err := classifier.Classify(returns)
	require.NoError(t, err)
	assert.Equal(t, domain.RegimeBull, classification.Current.Label)
	assert.Equal(t, "threshold", classification.Method)
}

func TestThreshold_BearSeries(t *testing.T) {
	classifier := NewThresholdClassifier(20, zerolog.Nop())

	returns := make([]float64, 120)
	for i := range returns {
		returns[i] = -0.01
	}

	classification, err := classifier.Classify(returns)
	require.NoError(t, err)
	assert.Equal(t, domain.RegimeBear, classification.Current.Label)
}

func TestService_PropagatesInsufficientData(t *testing.T) {
	service := NewService(60, zerolog.Nop())
	_, err := service.Classify(make([]float64, 5))
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientDataError(err))
}

func TestService_ClassifiesLongSeries(t *testing.T) {
	service := NewService(60, zerolog.Nop())
	classification, err := service.Classify(syntheticRegimeSeries(600, 3))
	require.NoError(t, err)
	assert.NotEmpty(t, classification.Regimes)
}

type sliceHistory []float64

func (s sliceHistory) Returns(assetClass string, n int) ([]float64, error) {
	if n > len(s) {
		n = len(s)
	}
	return s[len(s)-n:], nil
}

func TestService_ClassifyAsset(t *testing.T) {
	service := NewService(60, zerolog.Nop())
	history := sliceHistory(syntheticRegimeSeries(600, 9))

	classification, err := service.ClassifyAsset(history, "stocks", 600)
	require.NoError(t, err)
	assert.NotEmpty(t, classification.Regimes)

	_, err = service.ClassifyAsset(history, "stocks", 5)
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientDataError(err))
}

func TestSchedule_LengthAndDeterminism(t *testing.T) {
	service := NewService(60, zerolog.Nop())
	classification, err := service.Classify(syntheticRegimeSeries(600, 5))
	require.NoError(t, err)

	first := Schedule(classification, 36, 42)
	second := Schedule(classification, 36, 42)
	require.Len(t, first, 36)
	assert.Equal(t, first, second)
}

func TestSchedule_NilClassification(t *testing.T) {
	assert.Nil(t, Schedule(nil, 12, 1))
}
