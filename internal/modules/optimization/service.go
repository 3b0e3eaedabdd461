package optimization

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/goals"
	"github.com/aristath/horizon/internal/workers"
)

// budgetTolerance absorbs float accumulation when checking the budget
// inequality.
const budgetTolerance = 1e-9

// defaultMaxBudgetShare caps any single goal's contribution at this share
// of the total budget unless a per-goal bound overrides it.
const defaultMaxBudgetShare = 0.8

// riskPenaltyWeight balances shortfall risk against success probability in
// the BalanceRiskReturn objective.
const riskPenaltyWeight = 0.5

// Result is the optimizer's output: one GoalAllocation per input goal plus
// convergence diagnostics. Immutable once produced; re-optimization builds
// a fresh Result.
type Result struct {
	RunID       string                  `json:"run_id"`
	Objective   domain.Objective        `json:"objective"`
	Allocations []domain.GoalAllocation `json:"allocations"`

	// TotalSuccessProbability is the unweighted mean of per-goal success
	// probabilities, even though the search objective itself is
	// priority-weighted. Kept that way deliberately so the headline number
	// treats every goal alike.
	TotalSuccessProbability  float64 `json:"total_success_probability"`
	TotalMonthlyContribution float64 `json:"total_monthly_contribution"`

	// Feasible is false when no contribution vector could satisfy the
	// budget together with the per-goal minimums; the allocations then
	// hold the best budget-respecting compromise rather than an error.
	Feasible bool `json:"feasible"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Service is the multi-goal allocation optimizer.
type Service struct {
	cfg         config.Config
	assumptions domain.MarketAssumptionsProvider
	log         zerolog.Logger

	// newOptimizer builds the search backend per run, sized to the outer
	// parallelism cap. Swappable in tests and for alternative optimizers.
	newOptimizer func(numWorkers int) Optimizer
}

// NewService creates the optimizer service with differential evolution as
// the search backend.
func NewService(cfg config.Config, assumptions domain.MarketAssumptionsProvider, log zerolog.Logger) *Service {
	componentLog := log.With().Str("component", "allocation_optimizer").Logger()
	return &Service{
		cfg:         cfg,
		assumptions: assumptions,
		log:         componentLog,
		newOptimizer: func(numWorkers int) Optimizer {
			return NewDifferentialEvolution(cfg.MaxIterations, cfg.Tolerance, cfg.Seed, numWorkers, componentLog)
		},
	}
}

// Optimize searches for the contribution vector that best serves the given
// objective under the budget constraint. Asset allocations per goal are
// fixed by the glide path before the search starts, so the decision vector
// is purely the monthly contributions.
//
// The context deadline (or cfg.Deadline, whichever is tighter) aborts the
// search at the next generation boundary; the best candidate found so far
// is returned with TerminatedEarly set.
func (s *Service) Optimize(
	ctx context.Context,
	goalList []domain.FinancialGoal,
	constraints domain.OptimizationConstraints,
	objective domain.Objective,
	now time.Time,
) (*Result, error) {
	if len(goalList) == 0 {
		return nil, domain.ConfigurationError{Field: "goals", Message: "at least one goal is required"}
	}
	if !objective.Valid() {
		return nil, domain.ConfigurationError{Field: "objective", Message: "unknown objective"}
	}
	if err := constraints.Validate(); err != nil {
		return nil, err
	}
	for _, goal := range goalList {
		if err := goal.Validate(); err != nil {
			return nil, err
		}
	}

	if s.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Deadline)
		defer cancel()
	}

	numGoals := len(goalList)
	budget := constraints.TotalMonthlyBudget

	// Fixed per-goal setup: horizon, glide-path allocation, bounds.
	years := make([]float64, numGoals)
	allocations := make([]map[string]float64, numGoals)
	lower := make([]float64, numGoals)
	upper := make([]float64, numGoals)
	for i, goal := range goalList {
		years[i] = goal.YearsToTarget(now)
		allocations[i] = GlidePathAllocation(goal, years[i])

		bounds := constraints.GoalBounds[goal.Name]
		lower[i] = bounds.Min
		upper[i] = defaultMaxBudgetShare * budget
		if bounds.Max > 0 && bounds.Max < upper[i] {
			upper[i] = bounds.Max
		}
		if upper[i] > budget {
			upper[i] = budget
		}
	}

	// When the per-goal minimums alone exceed the budget there is no
	// feasible vector. Scale the minimums down to fit and search within
	// the capped box: a budget-respecting compromise beats an exception.
	boundsFeasible := true
	minSum := 0.0
	for _, lo := range lower {
		minSum += lo
	}
	if minSum > budget+budgetTolerance {
		boundsFeasible = false
		scale := budget / minSum
		for i := range lower {
			lower[i] *= scale
		}
		s.log.Warn().
			Float64("minimum_sum", minSum).
			Float64("budget", budget).
			Msg("per-goal minimums exceed budget, scaling down")
	}
	for i := range upper {
		if upper[i] < lower[i] {
			upper[i] = lower[i]
		}
	}

	// Cap nested parallelism: the outer pool evaluates candidates, each
	// of which runs the estimator's inner trial pool.
	populationSize := dePopulationFactor * numGoals
	if populationSize < deMinPopulation {
		populationSize = deMinPopulation
	}
	limits := workers.NestedLimits(populationSize)
	estimator := goals.NewEstimator(s.cfg, s.assumptions, limits.Inner, s.log)

	weights := domain.PriorityWeights(goalList)
	evaluate := func(contributions []float64) float64 {
		return s.scoreCandidate(estimator, goalList, allocations, years, weights, contributions, budget, objective)
	}

	optimizer := s.newOptimizer(limits.Outer)
	best, diag, err := optimizer.Minimize(ctx, Problem{
		Lower:    lower,
		Upper:    upper,
		Evaluate: evaluate,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.assembleResult(estimator, goalList, allocations, years, best, objective, diag)
	if err != nil {
		return nil, err
	}
	result.Feasible = boundsFeasible && diag.FeasibleFound

	s.log.Info().
		Str("run_id", result.RunID).
		Str("objective", objective.String()).
		Float64("total_success", result.TotalSuccessProbability).
		Float64("total_contribution", result.TotalMonthlyContribution).
		Bool("feasible", result.Feasible).
		Bool("converged", diag.Converged).
		Msg("allocation optimization finished")

	return result, nil
}

// scoreCandidate evaluates one contribution vector. Lower is better;
// budget violations are penalized to +Inf so the search never trades a
// constraint breach for objective gain.
func (s *Service) scoreCandidate(
	estimator *goals.Estimator,
	goalList []domain.FinancialGoal,
	allocations []map[string]float64,
	years []float64,
	weights []float64,
	contributions []float64,
	budget float64,
	objective domain.Objective,
) float64 {
	total := 0.0
	for _, c := range contributions {
		total += c
	}
	if total > budget+budgetTolerance {
		return math.Inf(1)
	}

	score := 0.0
	for i, goal := range goalList {
		estimate, err := estimator.Estimate(goals.Request{
			Goal:                goal,
			MonthlyContribution: contributions[i],
			AssetAllocation:     allocations[i],
			YearsToTarget:       years[i],
		})
		if err != nil {
			return math.Inf(1)
		}

		switch objective {
		case domain.MaximizeWeightedSuccess:
			score -= weights[i] * estimate.SuccessProbability
		case domain.MinimizeWeightedShortfall:
			score += weights[i] * estimate.ExpectedShortfall
		case domain.MaximizeExpectedSurplus:
			score -= estimate.ExpectedSurplus
		case domain.BalanceRiskReturn:
			score += -weights[i]*estimate.SuccessProbability + riskPenaltyWeight*weights[i]*estimate.ShortfallRisk
		}
	}
	return score
}

// assembleResult re-evaluates the winning vector to fill the per-goal
// allocation details.
func (s *Service) assembleResult(
	estimator *goals.Estimator,
	goalList []domain.FinancialGoal,
	allocations []map[string]float64,
	years []float64,
	best []float64,
	objective domain.Objective,
	diag Diagnostics,
) (*Result, error) {
	result := &Result{
		RunID:       uuid.NewString(),
		Objective:   objective,
		Allocations: make([]domain.GoalAllocation, len(goalList)),
		Diagnostics: diag,
	}

	successSum := 0.0
	for i, goal := range goalList {
		estimate, err := estimator.Estimate(goals.Request{
			Goal:                goal,
			MonthlyContribution: best[i],
			AssetAllocation:     allocations[i],
			YearsToTarget:       years[i],
		})
		if err != nil {
			return nil, err
		}

		expectedReturn, expectedVolatility, err := estimator.BlendPortfolio(allocations[i])
		if err != nil {
			return nil, err
		}

		result.Allocations[i] = domain.GoalAllocation{
			GoalName:            goal.Name,
			MonthlyContribution: best[i],
			AssetAllocation:     allocations[i],
			ExpectedReturn:      expectedReturn,
			ExpectedVolatility:  expectedVolatility,
			SuccessProbability:  estimate.SuccessProbability,
			ExpectedShortfall:   estimate.ExpectedShortfall,
			YearsToTarget:       years[i],
		}
		successSum += estimate.SuccessProbability
		result.TotalMonthlyContribution += best[i]
	}
	result.TotalSuccessProbability = successSum / float64(len(goalList))

	return result, nil
}
