package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAssumptions(t *testing.T) {
	var _ MarketAssumptionsProvider = StaticAssumptions{}

	assumptions := StaticAssumptions{
		"stocks": {AssetClass: "stocks", ExpectedReturn: 0.08, Volatility: 0.16},
		"bonds":  {AssetClass: "bonds", ExpectedReturn: 0.035, Volatility: 0.05},
	}

	stocks, ok := assumptions.Assumptions("stocks")
	require.True(t, ok)
	assert.Equal(t, 0.08, stocks.ExpectedReturn)

	_, ok = assumptions.Assumptions("crypto")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"stocks", "bonds"}, assumptions.AssetClasses())
}
