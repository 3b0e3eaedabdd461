package optimization

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/domain"
)

func optimizerConfig() config.Config {
	cfg := config.Default(42)
	// Small sizes keep the search cheap while staying statistically useful.
	cfg.Trials = 300
	cfg.MaxIterations = 25
	return cfg
}

func optimizerAssumptions() domain.StaticAssumptions {
	return domain.StaticAssumptions{
		"stocks": {AssetClass: "stocks", ExpectedReturn: 0.08, Volatility: 0.16},
		"bonds":  {AssetClass: "bonds", ExpectedReturn: 0.035, Volatility: 0.05},
	}
}

func twoGoals(now time.Time) []domain.FinancialGoal {
	return []domain.FinancialGoal{
		{
			Name:            "retirement",
			Type:            domain.GoalTypeRetirement,
			TargetAmount:    400000,
			TargetDate:      now.AddDate(25, 0, 0),
			Priority:        domain.PriorityCritical,
			CurrentProgress: 50000,
			RiskTolerance:   0.7,
		},
		{
			Name:            "house",
			Type:            domain.GoalTypeHomePurchase,
			TargetAmount:    60000,
			TargetDate:      now.AddDate(6, 0, 0),
			Priority:        domain.PriorityMedium,
			CurrentProgress: 5000,
			RiskTolerance:   0.4,
		},
	}
}

func TestOptimize_BudgetInvariant(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	result, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 1500},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)

	total := 0.0
	for _, allocation := range result.Allocations {
		assert.GreaterOrEqual(t, allocation.MonthlyContribution, 0.0)
		total += allocation.MonthlyContribution
	}
	assert.LessOrEqual(t, total, 1500+1e-9)
	assert.InDelta(t, total, result.TotalMonthlyContribution, 1e-9)
	assert.True(t, result.Feasible)
	assert.NotEmpty(t, result.RunID)

	assert.GreaterOrEqual(t, result.TotalSuccessProbability, 0.0)
	assert.LessOrEqual(t, result.TotalSuccessProbability, 1.0)
}

func TestOptimize_UsesGlidePathAllocations(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	result, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 1000},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)

	// Retirement: 25y horizon, risk 0.7 -> 0.80 + 0.08 = 0.88 stock.
	retirement := result.Allocations[0]
	assert.InDelta(t, 0.88, retirement.AssetAllocation[AssetClassStocks], 1e-9)

	// House: 6y horizon, risk 0.4 -> 0.60 - 0.04 = 0.56 stock.
	house := result.Allocations[1]
	assert.InDelta(t, 0.56, house.AssetAllocation[AssetClassStocks], 1e-9)

	for _, allocation := range result.Allocations {
		assert.Greater(t, allocation.ExpectedReturn, 0.0)
		assert.Greater(t, allocation.ExpectedVolatility, 0.0)
	}
}

// Per-goal minimum above the whole budget: the optimizer must return a
// budget-respecting compromise flagged infeasible, not an error.
func TestOptimize_InfeasibleMinimums(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	result, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{
			TotalMonthlyBudget: 1000,
			GoalBounds: map[string]domain.ContributionBounds{
				"retirement": {Min: 1200},
			},
		},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)

	assert.False(t, result.Feasible)

	total := 0.0
	for _, allocation := range result.Allocations {
		total += allocation.MonthlyContribution
	}
	assert.LessOrEqual(t, total, 1000+1e-9, "contributions capped at the budget, not the unmet minimum")
	assert.LessOrEqual(t, result.Allocations[0].MonthlyContribution, 1000+1e-9)
}

func TestOptimize_AllObjectives(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	for _, objective := range []domain.Objective{
		domain.MaximizeWeightedSuccess,
		domain.MinimizeWeightedShortfall,
		domain.MaximizeExpectedSurplus,
		domain.BalanceRiskReturn,
	} {
		t.Run(objective.String(), func(t *testing.T) {
			result, err := service.Optimize(
				context.Background(),
				twoGoals(now),
				domain.OptimizationConstraints{TotalMonthlyBudget: 1200},
				objective,
				now,
			)
			require.NoError(t, err)
			assert.Equal(t, objective, result.Objective)
			assert.Len(t, result.Allocations, 2)
		})
	}
}

func TestOptimize_UnknownObjective(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	_, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 1000},
		domain.Objective(99),
		now,
	)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestOptimize_NoGoals(t *testing.T) {
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())
	_, err := service.Optimize(
		context.Background(),
		nil,
		domain.OptimizationConstraints{TotalMonthlyBudget: 1000},
		domain.MaximizeWeightedSuccess,
		time.Now(),
	)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestOptimize_DeadlineFlagsEarlyTermination(t *testing.T) {
	now := time.Now()
	cfg := optimizerConfig()
	cfg.MaxIterations = 10000
	cfg.Deadline = 50 * time.Millisecond
	service := NewService(cfg, optimizerAssumptions(), zerolog.Nop())

	result, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 1000},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)
	assert.True(t, result.Diagnostics.TerminatedEarly)
}

func TestOptimize_MoreBudgetNeverHurts(t *testing.T) {
	now := time.Now()
	service := NewService(optimizerConfig(), optimizerAssumptions(), zerolog.Nop())

	tight, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 500},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)

	generous, err := service.Optimize(
		context.Background(),
		twoGoals(now),
		domain.OptimizationConstraints{TotalMonthlyBudget: 3000},
		domain.MaximizeWeightedSuccess,
		now,
	)
	require.NoError(t, err)

	// Allow a small stochastic slack: the search is noisy but a 6x budget
	// must not come out behind.
	assert.GreaterOrEqual(t, generous.TotalSuccessProbability, tight.TotalSuccessProbability-0.02)
}
