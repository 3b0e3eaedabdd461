package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGoal() FinancialGoal {
	return FinancialGoal{
		Name:          "retirement",
		Type:          GoalTypeRetirement,
		TargetAmount:  500000,
		TargetDate:    time.Now().AddDate(20, 0, 0),
		Priority:      PriorityCritical,
		RiskTolerance: 0.6,
	}
}

func TestFinancialGoal_Validate(t *testing.T) {
	require.NoError(t, validGoal().Validate())

	cases := []struct {
		name   string
		mutate func(*FinancialGoal)
		field  string
	}{
		{"empty name", func(g *FinancialGoal) { g.Name = "" }, "name"},
		{"zero target", func(g *FinancialGoal) { g.TargetAmount = 0 }, "target_amount"},
		{"negative progress", func(g *FinancialGoal) { g.CurrentProgress = -1 }, "current_progress"},
		{"risk tolerance above one", func(g *FinancialGoal) { g.RiskTolerance = 1.5 }, "risk_tolerance"},
		{"negative flexibility", func(g *FinancialGoal) { g.Flexibility = -0.1 }, "flexibility"},
		{"minimum acceptable above one", func(g *FinancialGoal) { g.MinimumAcceptable = 2 }, "minimum_acceptable"},
		{"success threshold below zero", func(g *FinancialGoal) { g.SuccessThreshold = -0.2 }, "success_threshold"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			goal := validGoal()
			tc.mutate(&goal)

			err := goal.Validate()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

// Validate reports every violation at once so callers can fix them in one pass.
func TestFinancialGoal_ValidateCollectsAll(t *testing.T) {
	goal := validGoal()
	goal.Name = ""
	goal.TargetAmount = -5
	goal.RiskTolerance = 3

	err := goal.Validate()
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 3)
}

func TestFinancialGoal_YearsToTarget(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	goal := FinancialGoal{TargetDate: now.AddDate(10, 0, 0)}
	assert.InDelta(t, 10.0, goal.YearsToTarget(now), 0.02)

	past := FinancialGoal{TargetDate: now.AddDate(-2, 0, 0)}
	assert.Less(t, past.YearsToTarget(now), 0.0)
}

func TestPriority_Value(t *testing.T) {
	assert.Equal(t, 4.0, PriorityCritical.Value())
	assert.Equal(t, 3.0, PriorityHigh.Value())
	assert.Equal(t, 2.0, PriorityMedium.Value())
	assert.Equal(t, 1.0, PriorityLow.Value())
	assert.Equal(t, 1.0, Priority("bogus").Value())
}

func TestPriorityWeights(t *testing.T) {
	goals := []FinancialGoal{
		{Priority: PriorityCritical}, // 4
		{Priority: PriorityHigh},     // 3
		{Priority: PriorityLow},      // 1
	}

	weights := PriorityWeights(goals)
	require.Len(t, weights, 3)
	assert.InDelta(t, 4.0/8.0, weights[0], 1e-12)
	assert.InDelta(t, 3.0/8.0, weights[1], 1e-12)
	assert.InDelta(t, 1.0/8.0, weights[2], 1e-12)

	sum := weights[0] + weights[1] + weights[2]
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestObjective(t *testing.T) {
	assert.Equal(t, "maximize_weighted_success", MaximizeWeightedSuccess.String())
	assert.Equal(t, "balance_risk_return", BalanceRiskReturn.String())
	assert.Equal(t, "unknown", Objective(42).String())

	assert.True(t, MinimizeWeightedShortfall.Valid())
	assert.False(t, Objective(-1).Valid())
	assert.False(t, Objective(42).Valid())
}

func TestOptimizationConstraints_Validate(t *testing.T) {
	valid := OptimizationConstraints{
		TotalMonthlyBudget: 1000,
		GoalBounds: map[string]ContributionBounds{
			"house": {Min: 100, Max: 500},
		},
	}
	require.NoError(t, valid.Validate())

	zeroBudget := OptimizationConstraints{TotalMonthlyBudget: 0}
	assert.True(t, IsConfigurationError(zeroBudget.Validate()))

	negativeMin := OptimizationConstraints{
		TotalMonthlyBudget: 1000,
		GoalBounds:         map[string]ContributionBounds{"g": {Min: -1}},
	}
	assert.True(t, IsConfigurationError(negativeMin.Validate()))

	inverted := OptimizationConstraints{
		TotalMonthlyBudget: 1000,
		GoalBounds:         map[string]ContributionBounds{"g": {Min: 500, Max: 100}},
	}
	assert.True(t, IsConfigurationError(inverted.Validate()))
}

func TestAssetParams_Validate(t *testing.T) {
	require.NoError(t, AssetParams{AssetClass: "stocks", ExpectedReturn: 0.08, Volatility: 0.16}.Validate())

	assert.Error(t, AssetParams{Volatility: 0.1}.Validate())
	assert.Error(t, AssetParams{AssetClass: "stocks", Volatility: -0.1}.Validate())
}
