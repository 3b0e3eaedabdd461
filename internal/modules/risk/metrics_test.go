package risk

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/horizon/internal/modules/simulation"
)

func simulate(t *testing.T, params simulation.Params) *simulation.PathMatrix {
	t.Helper()
	sim := simulation.NewSimulator(zerolog.Nop())
	matrix, err := sim.Generate(params)
	require.NoError(t, err)
	return matrix
}

func TestNewCalculator_RejectsBadPeriods(t *testing.T) {
	_, err := NewCalculator(0.02, 0, zerolog.Nop())
	require.Error(t, err)
}

func TestCalculate_TailOrdering(t *testing.T) {
	matrix := simulate(t, simulation.Params{
		Paths:        2000,
		Periods:      24,
		Dt:           1.0 / 12,
		InitialValue: 100,
		Drift:        0.06,
		Volatility:   0.20,
		Seed:         7,
	})

	calc, err := NewCalculator(0.02, 12, zerolog.Nop())
	require.NoError(t, err)
	metrics, err := calc.Calculate(matrix)
	require.NoError(t, err)

	// CVaR95 must be at least as extreme as VaR95 on the loss side,
	// and the 1% percentile sits below the 5% percentile.
	assert.LessOrEqual(t, metrics.CVaR95, metrics.VaR95)
	assert.LessOrEqual(t, metrics.VaR99, metrics.VaR95)
}

func TestCalculate_DrawdownBounds(t *testing.T) {
	matrix := simulate(t, simulation.Params{
		Paths:        500,
		Periods:      36,
		Dt:           1.0 / 12,
		InitialValue: 100,
		Drift:        0.05,
		Volatility:   0.25,
		Seed:         11,
	})

	calc, err := NewCalculator(0.02, 12, zerolog.Nop())
	require.NoError(t, err)
	metrics, err := calc.Calculate(matrix)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, metrics.MaxDrawdown, 0.0)
	assert.Less(t, metrics.MaxDrawdown, 1.0)
	assert.LessOrEqual(t, metrics.MeanDrawdown, metrics.MaxDrawdown)
	assert.Greater(t, metrics.Volatility, 0.0)
}

func TestCalculate_PositiveDriftSharpe(t *testing.T) {
	matrix := simulate(t, simulation.Params{
		Paths:        3000,
		Periods:      60,
		Dt:           1.0 / 12,
		InitialValue: 100,
		Drift:        0.12,
		Volatility:   0.10,
		Seed:         3,
	})

	calc, err := NewCalculator(0.0, 12, zerolog.Nop())
	require.NoError(t, err)
	metrics, err := calc.Calculate(matrix)
	require.NoError(t, err)

	// Strong drift over modest volatility: Sharpe must come out positive.
	assert.Greater(t, metrics.Sharpe, 0.0)
}

func TestCalculate_EmptyMatrix(t *testing.T) {
	calc, err := NewCalculator(0.02, 12, zerolog.Nop())
	require.NoError(t, err)

	_, err = calc.Calculate(nil)
	require.Error(t, err)
}
