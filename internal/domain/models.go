// Package domain provides core domain models and types.
//
// All types here are plain data: they carry no behavior beyond validation
// and are safe to share read-only across worker goroutines.
package domain

import (
	"math"
	"time"
)

// AssetParams describes the market assumptions for a single asset class.
//
// Returns and volatility are annualized decimals (0.08 = 8% per year).
type AssetParams struct {
	AssetClass     string  `json:"asset_class"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

// Validate checks the asset parameters for values that can never be correct.
func (a AssetParams) Validate() error {
	if a.AssetClass == "" {
		return ValidationError{Field: "asset_class", Message: "must not be empty"}
	}
	if a.Volatility < 0 {
		return ValidationError{Field: "volatility", Message: "must not be negative"}
	}
	return nil
}

// Priority ranks goals against each other when budget is contested.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Value returns the numeric weight of a priority (critical=4 ... low=1).
// Unknown priorities weigh the same as low.
func (p Priority) Value() float64 {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 1
	}
}

// GoalType categorizes a financial goal. EmergencyFund goals get a fixed
// conservative allocation regardless of horizon or risk tolerance.
type GoalType string

const (
	GoalTypeRetirement    GoalType = "retirement"
	GoalTypeEmergencyFund GoalType = "emergency_fund"
	GoalTypeHomePurchase  GoalType = "home_purchase"
	GoalTypeEducation     GoalType = "education"
	GoalTypeCustom        GoalType = "custom"
)

// FinancialGoal is a caller-supplied savings target. Read-only to this core.
type FinancialGoal struct {
	Name              string    `json:"name"`
	Type              GoalType  `json:"type"`
	TargetAmount      float64   `json:"target_amount"`
	TargetDate        time.Time `json:"target_date"`
	Priority          Priority  `json:"priority"`
	CurrentProgress   float64   `json:"current_progress"`
	RiskTolerance     float64   `json:"risk_tolerance"` // 0 = fully averse, 1 = fully seeking
	Flexibility       float64   `json:"flexibility"`    // willingness to slip the date, [0,1]
	MinimumAcceptable float64   `json:"minimum_acceptable"`
	InflationAdjusted bool      `json:"inflation_adjusted"`
	SuccessThreshold  float64   `json:"success_threshold"`
}

// YearsToTarget returns the horizon from now until the target date in years.
// Past dates yield non-positive values.
func (g FinancialGoal) YearsToTarget(now time.Time) float64 {
	return g.TargetDate.Sub(now).Hours() / (24 * 365.25)
}

// Validate checks bounded scalars and amounts. Returns ValidationErrors
// listing every violation rather than stopping at the first.
func (g FinancialGoal) Validate() error {
	var errs ValidationErrors
	if g.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	if g.TargetAmount <= 0 {
		errs = append(errs, ValidationError{Field: "target_amount", Message: "must be greater than 0"})
	}
	if g.CurrentProgress < 0 {
		errs = append(errs, ValidationError{Field: "current_progress", Message: "must not be negative"})
	}
	if g.RiskTolerance < 0 || g.RiskTolerance > 1 {
		errs = append(errs, ValidationError{Field: "risk_tolerance", Message: "must be within [0,1]"})
	}
	if g.Flexibility < 0 || g.Flexibility > 1 {
		errs = append(errs, ValidationError{Field: "flexibility", Message: "must be within [0,1]"})
	}
	if g.MinimumAcceptable < 0 || g.MinimumAcceptable > 1 {
		errs = append(errs, ValidationError{Field: "minimum_acceptable", Message: "must be within [0,1]"})
	}
	if g.SuccessThreshold < 0 || g.SuccessThreshold > 1 {
		errs = append(errs, ValidationError{Field: "success_threshold", Message: "must be within [0,1]"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ContributionBounds is an optional per-goal [min,max] monthly contribution range.
type ContributionBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// OptimizationConstraints bound the optimizer's decision space.
type OptimizationConstraints struct {
	TotalMonthlyBudget float64                       `json:"total_monthly_budget"`
	GoalBounds         map[string]ContributionBounds `json:"goal_bounds,omitempty"` // keyed by goal name
}

// Validate checks the constraints before optimization starts.
func (c OptimizationConstraints) Validate() error {
	if c.TotalMonthlyBudget <= 0 {
		return ConfigurationError{Field: "total_monthly_budget", Message: "must be greater than 0"}
	}
	for name, b := range c.GoalBounds {
		if b.Min < 0 {
			return ConfigurationError{Field: "goal_bounds." + name, Message: "min must not be negative"}
		}
		if b.Max > 0 && b.Max < b.Min {
			return ConfigurationError{Field: "goal_bounds." + name, Message: "max must not be below min"}
		}
	}
	return nil
}

// GoalAllocation is the optimizer's per-goal output. Immutable once produced;
// re-optimization yields a fresh result set.
type GoalAllocation struct {
	GoalName            string             `json:"goal_name"`
	MonthlyContribution float64            `json:"monthly_contribution"`
	AssetAllocation     map[string]float64 `json:"asset_allocation"` // asset class -> weight, sums to 1
	ExpectedReturn      float64            `json:"expected_return"`  // annualized
	ExpectedVolatility  float64            `json:"expected_volatility"`
	SuccessProbability  float64            `json:"success_probability"`
	ExpectedShortfall   float64            `json:"expected_shortfall"`
	YearsToTarget       float64            `json:"years_to_target"`
}

// RiskMetrics summarizes the tail and distribution shape of a simulated path set.
//
// Skewness and kurtosis use the Fisher convention: kurtosis is reported as
// excess kurtosis, 0 for a normal distribution.
type RiskMetrics struct {
	VaR95        float64 `json:"var_95"` // 5th percentile of final values
	VaR99        float64 `json:"var_99"`
	CVaR95       float64 `json:"cvar_95"` // mean of final values at or below VaR95
	MaxDrawdown  float64 `json:"max_drawdown"`
	MeanDrawdown float64 `json:"mean_drawdown"`
	Sharpe       float64 `json:"sharpe"`
	Volatility   float64 `json:"volatility"` // annualized, from period returns
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"`
}

// Objective selects what the allocation optimizer maximizes or minimizes.
type Objective int

const (
	MaximizeWeightedSuccess Objective = iota
	MinimizeWeightedShortfall
	MaximizeExpectedSurplus
	BalanceRiskReturn
)

// String returns the canonical name of the objective.
func (o Objective) String() string {
	switch o {
	case MaximizeWeightedSuccess:
		return "maximize_weighted_success"
	case MinimizeWeightedShortfall:
		return "minimize_weighted_shortfall"
	case MaximizeExpectedSurplus:
		return "maximize_expected_surplus"
	case BalanceRiskReturn:
		return "balance_risk_return"
	default:
		return "unknown"
	}
}

// Valid reports whether the objective is one of the defined kinds.
func (o Objective) Valid() bool {
	return o >= MaximizeWeightedSuccess && o <= BalanceRiskReturn
}

// PriorityWeights returns normalized priority weights for a goal set.
// weight_i = priority_value(i) / sum(priority_values).
func PriorityWeights(goals []FinancialGoal) []float64 {
	weights := make([]float64, len(goals))
	total := 0.0
	for i, g := range goals {
		weights[i] = g.Priority.Value()
		total += weights[i]
	}
	if total <= 0 || math.IsNaN(total) {
		return weights
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}
