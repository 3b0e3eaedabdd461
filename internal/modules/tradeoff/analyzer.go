// Package tradeoff explores the neighborhood of an optimized allocation:
// what happens when one goal is favored over its competitors, which
// scenarios are Pareto-efficient, and how sensitive the outcome is to
// return assumptions and contribution changes.
package tradeoff

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/modules/goals"
	"github.com/aristath/horizon/internal/modules/optimization"
)

// DefaultShiftFraction is the share of each competitor's contribution
// moved to the favored goal in a favor-k scenario.
const DefaultShiftFraction = 0.20

// Contribution shift grid for sensitivity analysis.
var contributionShifts = []float64{-0.20, -0.10, 0.10, 0.20}

// returnShift is the per-asset-class expected-return perturbation.
const returnShift = 0.01

// Scenario is one re-allocation hypothesis and its re-evaluated outcomes.
type Scenario struct {
	Name          string             `json:"name"`
	FavoredGoal   string             `json:"favored_goal,omitempty"` // empty for the balanced baseline
	Contributions map[string]float64 `json:"contributions"`
	GoalSuccess   map[string]float64 `json:"goal_success"`
	MeanSuccess   float64            `json:"mean_success"`
}

// ParetoPoint is a scenario's position in (mean success, risk) space,
// risk being 1 - mean success.
type ParetoPoint struct {
	Scenario    string  `json:"scenario"`
	MeanSuccess float64 `json:"mean_success"`
	Risk        float64 `json:"risk"`
}

// ReturnSensitivity holds the mean success under a +/-1% shift of one
// asset class's expected return.
type ReturnSensitivity struct {
	AssetClass  string  `json:"asset_class"`
	UpSuccess   float64 `json:"up_success"`
	DownSuccess float64 `json:"down_success"`
}

// ContributionSensitivity holds a goal's success probability when its
// contribution is shifted by the given fraction.
type ContributionSensitivity struct {
	GoalName string  `json:"goal_name"`
	Shift    float64 `json:"shift"` // e.g. -0.2, -0.1, 0.1, 0.2
	Success  float64 `json:"success"`
}

// Analysis is the analyzer's full output.
type Analysis struct {
	Groups                  [][]string                `json:"groups"` // competing-goal name groups
	Scenarios               []Scenario                `json:"scenarios"`
	ParetoFrontier          []ParetoPoint             `json:"pareto_frontier"`
	ReturnSensitivities     []ReturnSensitivity       `json:"return_sensitivities"`
	ContributionSensitivity []ContributionSensitivity `json:"contribution_sensitivity"`
}

// Analyzer re-evaluates optimizer output under alternative scenarios.
type Analyzer struct {
	cfg           config.Config
	assumptions   domain.MarketAssumptionsProvider
	shiftFraction float64
	log           zerolog.Logger
}

// NewAnalyzer creates a trade-off analyzer with the default 20% favor shift.
func NewAnalyzer(cfg config.Config, assumptions domain.MarketAssumptionsProvider, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		cfg:           cfg,
		assumptions:   assumptions,
		shiftFraction: DefaultShiftFraction,
		log:           log.With().Str("component", "tradeoff_analyzer").Logger(),
	}
}

// Analyze builds competing-goal groups, evaluates balanced and favor-k
// scenarios per group, extracts the Pareto frontier, and computes return
// and contribution sensitivities around the optimized allocation.
func (a *Analyzer) Analyze(
	result *optimization.Result,
	goalList []domain.FinancialGoal,
	now time.Time,
) (*Analysis, error) {
	if result == nil || len(result.Allocations) == 0 {
		return nil, domain.ValidationError{Field: "result", Message: "optimizer result is required"}
	}
	if len(result.Allocations) != len(goalList) {
		return nil, domain.ValidationError{Field: "goals", Message: "goal list must match optimizer result"}
	}

	estimator := goals.NewEstimator(a.cfg, a.assumptions, 0, a.log)

	contributions := make(map[string]float64, len(goalList))
	allocations := make(map[string]map[string]float64, len(goalList))
	years := make(map[string]float64, len(goalList))
	for i, goal := range goalList {
		contributions[goal.Name] = result.Allocations[i].MonthlyContribution
		allocations[goal.Name] = result.Allocations[i].AssetAllocation
		years[goal.Name] = result.Allocations[i].YearsToTarget
	}

	groups := competingGroups(goalList, now)

	analysis := &Analysis{Groups: groups}

	// Balanced baseline plus one favor-k scenario per group member.
	baseline, err := a.evaluateScenario(estimator, "balanced", "", goalList, contributions, allocations, years)
	if err != nil {
		return nil, err
	}
	analysis.Scenarios = append(analysis.Scenarios, *baseline)

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, favored := range group {
			shifted := shiftContributions(contributions, group, favored, a.shiftFraction)
			scenario, err := a.evaluateScenario(
				estimator,
				fmt.Sprintf("favor %s", favored),
				favored,
				goalList, shifted, allocations, years,
			)
			if err != nil {
				return nil, err
			}
			analysis.Scenarios = append(analysis.Scenarios, *scenario)
		}
	}

	analysis.ParetoFrontier = paretoFrontier(analysis.Scenarios)

	returnSens, err := a.returnSensitivities(goalList, contributions, allocations, years)
	if err != nil {
		return nil, err
	}
	analysis.ReturnSensitivities = returnSens

	contribSens, err := a.contributionSensitivities(estimator, goalList, contributions, allocations, years)
	if err != nil {
		return nil, err
	}
	analysis.ContributionSensitivity = contribSens

	a.log.Debug().
		Int("groups", len(analysis.Groups)).
		Int("scenarios", len(analysis.Scenarios)).
		Msg("trade-off analysis complete")

	return analysis, nil
}

// competingGroups clusters goals that contend for the same budget: same
// priority, or time-overlapping [now, target_date] horizons. Overlap is
// transitive here (union of pairwise links), so chains of overlapping
// goals land in one group.
func competingGroups(goalList []domain.FinancialGoal, now time.Time) [][]string {
	n := len(goalList)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(x, y int) {
		parent[find(x)] = find(y)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if goalList[i].Priority == goalList[j].Priority ||
				horizonsOverlap(goalList[i], goalList[j], now) {
				union(i, j)
			}
		}
	}

	grouped := make(map[int][]string)
	for i, goal := range goalList {
		root := find(i)
		grouped[root] = append(grouped[root], goal.Name)
	}

	groups := make([][]string, 0, len(grouped))
	for i := 0; i < n; i++ {
		if members, ok := grouped[i]; ok && find(i) == i {
			groups = append(groups, members)
		}
	}
	return groups
}

// horizonsOverlap reports whether two goals' saving windows intersect.
// Both windows start today, so any two future-dated goals overlap; goals
// whose dates have passed have empty windows and never overlap.
func horizonsOverlap(a, b domain.FinancialGoal, now time.Time) bool {
	if !a.TargetDate.After(now) || !b.TargetDate.After(now) {
		return false
	}
	return true
}

// shiftContributions moves shiftFraction of every other group member's
// contribution to the favored goal. The total is conserved, so a
// budget-feasible input stays feasible.
func shiftContributions(contributions map[string]float64, group []string, favored string, fraction float64) map[string]float64 {
	shifted := make(map[string]float64, len(contributions))
	for name, c := range contributions {
		shifted[name] = c
	}

	moved := 0.0
	for _, name := range group {
		if name == favored {
			continue
		}
		delta := shifted[name] * fraction
		shifted[name] -= delta
		moved += delta
	}
	shifted[favored] += moved
	return shifted
}

// evaluateScenario re-runs the success estimator for every goal under the
// scenario's contributions.
func (a *Analyzer) evaluateScenario(
	estimator *goals.Estimator,
	name, favored string,
	goalList []domain.FinancialGoal,
	contributions map[string]float64,
	allocations map[string]map[string]float64,
	years map[string]float64,
) (*Scenario, error) {
	scenario := &Scenario{
		Name:          name,
		FavoredGoal:   favored,
		Contributions: contributions,
		GoalSuccess:   make(map[string]float64, len(goalList)),
	}

	sum := 0.0
	for _, goal := range goalList {
		estimate, err := estimator.Estimate(goals.Request{
			Goal:                goal,
			MonthlyContribution: contributions[goal.Name],
			AssetAllocation:     allocations[goal.Name],
			YearsToTarget:       years[goal.Name],
		})
		if err != nil {
			return nil, err
		}
		scenario.GoalSuccess[goal.Name] = estimate.SuccessProbability
		sum += estimate.SuccessProbability
	}
	scenario.MeanSuccess = sum / float64(len(goalList))
	return scenario, nil
}

// paretoFrontier keeps the scenarios not dominated in (mean success,
// risk = 1 - mean success) space: better or equal on both axes and
// strictly better on at least one.
func paretoFrontier(scenarios []Scenario) []ParetoPoint {
	points := make([]ParetoPoint, len(scenarios))
	for i, s := range scenarios {
		points[i] = ParetoPoint{
			Scenario:    s.Name,
			MeanSuccess: s.MeanSuccess,
			Risk:        1 - s.MeanSuccess,
		}
	}

	frontier := make([]ParetoPoint, 0, len(points))
	for i, p := range points {
		dominated := false
		for j, q := range points {
			if i == j {
				continue
			}
			if q.MeanSuccess >= p.MeanSuccess && q.Risk <= p.Risk &&
				(q.MeanSuccess > p.MeanSuccess || q.Risk < p.Risk) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	return frontier
}

// returnSensitivities recomputes the mean success with each asset class's
// expected return shifted by +/-1 percentage point.
func (a *Analyzer) returnSensitivities(
	goalList []domain.FinancialGoal,
	contributions map[string]float64,
	allocations map[string]map[string]float64,
	years map[string]float64,
) ([]ReturnSensitivity, error) {
	classes := a.assumptions.AssetClasses()
	sensitivities := make([]ReturnSensitivity, 0, len(classes))

	for _, class := range classes {
		up, err := a.meanSuccessWithShift(goalList, contributions, allocations, years, class, returnShift)
		if err != nil {
			return nil, err
		}
		down, err := a.meanSuccessWithShift(goalList, contributions, allocations, years, class, -returnShift)
		if err != nil {
			return nil, err
		}
		sensitivities = append(sensitivities, ReturnSensitivity{
			AssetClass:  class,
			UpSuccess:   up,
			DownSuccess: down,
		})
	}
	return sensitivities, nil
}

// meanSuccessWithShift evaluates all goals under a perturbed assumption set.
func (a *Analyzer) meanSuccessWithShift(
	goalList []domain.FinancialGoal,
	contributions map[string]float64,
	allocations map[string]map[string]float64,
	years map[string]float64,
	shiftClass string,
	shift float64,
) (float64, error) {
	perturbed := make(domain.StaticAssumptions)
	for _, class := range a.assumptions.AssetClasses() {
		params, _ := a.assumptions.Assumptions(class)
		if class == shiftClass {
			params.ExpectedReturn += shift
		}
		perturbed[class] = params
	}

	estimator := goals.NewEstimator(a.cfg, perturbed, 0, a.log)
	sum := 0.0
	for _, goal := range goalList {
		estimate, err := estimator.Estimate(goals.Request{
			Goal:                goal,
			MonthlyContribution: contributions[goal.Name],
			AssetAllocation:     allocations[goal.Name],
			YearsToTarget:       years[goal.Name],
		})
		if err != nil {
			return 0, err
		}
		sum += estimate.SuccessProbability
	}
	return sum / float64(len(goalList)), nil
}

// contributionSensitivities evaluates each goal's success under the
// +/-10% and +/-20% contribution shift grid.
func (a *Analyzer) contributionSensitivities(
	estimator *goals.Estimator,
	goalList []domain.FinancialGoal,
	contributions map[string]float64,
	allocations map[string]map[string]float64,
	years map[string]float64,
) ([]ContributionSensitivity, error) {
	sensitivities := make([]ContributionSensitivity, 0, len(goalList)*len(contributionShifts))
	for _, goal := range goalList {
		for _, shift := range contributionShifts {
			estimate, err := estimator.Estimate(goals.Request{
				Goal:                goal,
				MonthlyContribution: contributions[goal.Name] * (1 + shift),
				AssetAllocation:     allocations[goal.Name],
				YearsToTarget:       years[goal.Name],
			})
			if err != nil {
				return nil, err
			}
			sensitivities = append(sensitivities, ContributionSensitivity{
				GoalName: goal.Name,
				Shift:    shift,
				Success:  estimate.SuccessProbability,
			})
		}
	}
	return sensitivities, nil
}
