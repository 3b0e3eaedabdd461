// Package optimization solves the multi-goal contribution allocation
// problem: a bounded, budget-constrained, derivative-free search over
// monthly contribution vectors, scored by Monte Carlo goal-success
// estimates.
package optimization

import (
	"github.com/aristath/horizon/internal/domain"
)

// Canonical asset classes produced by the glide path. The configured
// MarketAssumptionsProvider must know both.
const (
	AssetClassStocks = "stocks"
	AssetClassBonds  = "bonds"
)

// Glide-path buckets: horizon decides the base stock weight, risk
// tolerance shifts it by up to +/-0.2, and the result is clamped so no
// allocation is ever all-in or all-out.
const (
	shortHorizonYears  = 2.0
	mediumHorizonYears = 10.0

	shortHorizonStock  = 0.30
	mediumHorizonStock = 0.60
	longHorizonStock   = 0.80

	riskShiftRange = 0.4 // (risk_tolerance - 0.5) * riskShiftRange
	minStockWeight = 0.05
	maxStockWeight = 0.95

	emergencyFundStock = 0.10
)

// GlidePathAllocation derives the deterministic stock/bond split for a
// goal from its horizon and risk tolerance. Emergency funds stay 10/90
// regardless of either.
func GlidePathAllocation(goal domain.FinancialGoal, yearsToTarget float64) map[string]float64 {
	if goal.Type == domain.GoalTypeEmergencyFund {
		return map[string]float64{
			AssetClassStocks: emergencyFundStock,
			AssetClassBonds:  1 - emergencyFundStock,
		}
	}

	var stock float64
	switch {
	case yearsToTarget <= shortHorizonYears:
		stock = shortHorizonStock
	case yearsToTarget <= mediumHorizonYears:
		stock = mediumHorizonStock
	default:
		stock = longHorizonStock
	}

	stock += (goal.RiskTolerance - 0.5) * riskShiftRange
	if stock < minStockWeight {
		stock = minStockWeight
	}
	if stock > maxStockWeight {
		stock = maxStockWeight
	}

	return map[string]float64{
		AssetClassStocks: stock,
		AssetClassBonds:  1 - stock,
	}
}
