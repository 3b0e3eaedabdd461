// Package goals estimates the probability that a financial goal is met by
// its target date via Monte Carlo simulation of monthly contributions and
// portfolio returns.
package goals

import (
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/horizon/internal/config"
	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/workers"
	"github.com/aristath/horizon/pkg/formulas"
)

// weightSumTolerance is how far allocation weights may stray from 1.
const weightSumTolerance = 1e-6

// trialSeedStream separates trial RNG streams from path-simulator streams.
const trialSeedStream = 0x6a09e667f3bcc909

// Request is one estimation query: a goal, a candidate monthly contribution
// and an asset allocation, evaluated against the configured market
// assumptions over the given horizon.
type Request struct {
	Goal                domain.FinancialGoal
	MonthlyContribution float64
	AssetAllocation     map[string]float64 // asset class -> weight, must sum to 1
	YearsToTarget       float64
}

// Estimate is the outcome of a Monte Carlo success estimation.
// All monetary fields are non-negative by construction.
type Estimate struct {
	SuccessProbability float64 `json:"success_probability"`
	ExpectedShortfall  float64 `json:"expected_shortfall"`
	ExpectedSurplus    float64 `json:"expected_surplus"`
	ShortfallRisk      float64 `json:"shortfall_risk"` // P(final < target * minimum_acceptable)
	VaR95              float64 `json:"var_95"`         // 5th percentile of trial finals
	ExpectedFinalValue float64 `json:"expected_final_value"`
	AdjustedTarget     float64 `json:"adjusted_target"`
	TrialsRun          int     `json:"trials_run"`
}

// Estimator runs goal success estimations. Stateless across calls apart
// from its configuration; safe for concurrent use.
type Estimator struct {
	cfg         config.Config
	assumptions domain.MarketAssumptionsProvider
	pool        *workers.Pool
	log         zerolog.Logger

	// Optional asset-class correlations. Nil means independence.
	corrClasses []string
	corrIndex   map[string]int
	corr        *mat.SymDense
}

// NewEstimator creates an estimator. numWorkers <= 0 sizes the trial pool
// from physical cores; the optimizer passes an explicit cap to keep nested
// parallelism in budget.
func NewEstimator(cfg config.Config, assumptions domain.MarketAssumptionsProvider, numWorkers int, log zerolog.Logger) *Estimator {
	return &Estimator{
		cfg:         cfg,
		assumptions: assumptions,
		pool:        workers.NewPool(numWorkers),
		log:         log.With().Str("component", "goal_estimator").Logger(),
	}
}

// SetCorrelations installs an asset-class correlation matrix used for the
// quadratic variance blend. classes fixes the row/column order; corr must
// be symmetric with a unit diagonal. Passing nil restores independence.
func (e *Estimator) SetCorrelations(classes []string, corr [][]float64) error {
	if corr == nil {
		e.corrClasses, e.corrIndex, e.corr = nil, nil, nil
		return nil
	}
	n := len(classes)
	if len(corr) != n {
		return domain.ValidationError{Field: "correlations", Message: "matrix size must match class count"}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(corr[i]) != n {
			return domain.ValidationError{Field: "correlations", Message: "matrix must be square"}
		}
		for j := i; j < n; j++ {
			if math.Abs(corr[i][j]-corr[j][i]) > 1e-9 {
				return domain.ValidationError{Field: "correlations", Message: "matrix must be symmetric"}
			}
			sym.SetSym(i, j, corr[i][j])
		}
	}

	index := make(map[string]int, n)
	for i, class := range classes {
		index[class] = i
	}
	e.corrClasses = append([]string(nil), classes...)
	e.corrIndex = index
	e.corr = sym
	return nil
}

// Estimate runs the Monte Carlo estimation for one request.
//
// Horizons of zero or less short-circuit without running any trials:
// success is exactly 1 when current progress already covers the target and
// exactly 0 otherwise. Identical (config seed, request) inputs produce
// identical estimates regardless of worker count, because every trial owns
// an RNG seeded by its trial index.
func (e *Estimator) Estimate(req Request) (*Estimate, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	target := req.Goal.TargetAmount
	if req.Goal.InflationAdjusted && req.YearsToTarget > 0 {
		target *= math.Pow(1+e.cfg.InflationRate, req.YearsToTarget)
	}

	numMonths := int(math.Ceil(req.YearsToTarget * 12))
	if numMonths <= 0 {
		return degenerateEstimate(req.Goal.CurrentProgress, target), nil
	}

	monthlyMean, monthlyVariance, err := e.blendMonthly(req.AssetAllocation)
	if err != nil {
		return nil, err
	}
	monthlySigma := math.Sqrt(monthlyVariance)

	finals := make([]float64, e.cfg.Trials)
	e.pool.RunRange(e.cfg.Trials, func(start, end int) {
		for trial := start; trial < end; trial++ {
			finals[trial] = e.runTrial(req, numMonths, monthlyMean, monthlySigma, e.cfg.Seed+uint64(trial))
		}
	})

	return e.reduce(req.Goal, target, finals), nil
}

// BlendPortfolio returns the annualized expected return and volatility of
// an allocation under the configured assumptions.
func (e *Estimator) BlendPortfolio(allocation map[string]float64) (float64, float64, error) {
	monthlyMean, monthlyVariance, err := e.blendMonthly(allocation)
	if err != nil {
		return 0, 0, err
	}
	return monthlyMean * 12, math.Sqrt(monthlyVariance * 12), nil
}

// blendMonthly computes the monthly portfolio mean (linear in weights) and
// variance (quadratic in weights). Without a caller-supplied correlation
// matrix, asset classes are treated as independent: off-diagonal
// covariance terms are zero. That understates diversified risk slightly
// and is the documented default.
func (e *Estimator) blendMonthly(allocation map[string]float64) (float64, float64, error) {
	mean := 0.0
	for class, weight := range allocation {
		params, ok := e.assumptions.Assumptions(class)
		if !ok {
			return 0, 0, domain.ValidationError{Field: "asset_allocation", Message: "unknown asset class " + class}
		}
		mean += weight * params.ExpectedReturn / 12
	}

	if e.corr == nil {
		variance := 0.0
		for class, weight := range allocation {
			params, _ := e.assumptions.Assumptions(class)
			variance += weight * weight * params.Volatility * params.Volatility / 12
		}
		return mean, variance, nil
	}

	// Correlated blend: w' diag(sigma) R diag(sigma) w on monthly sigmas.
	n := len(e.corrClasses)
	weighted := mat.NewVecDense(n, nil)
	for class, weight := range allocation {
		i, ok := e.corrIndex[class]
		if !ok {
			return 0, 0, domain.ValidationError{Field: "correlations", Message: "no correlation entry for " + class}
		}
		params, _ := e.assumptions.Assumptions(class)
		weighted.SetVec(i, weight*params.Volatility/math.Sqrt(12))
	}
	variance := mat.Inner(weighted, e.corr, weighted)
	return mean, variance, nil
}

// runTrial walks one savings trajectory: add the contribution, then apply
// the month's return. Monthly returns carry an AR(1) autocorrelation on
// the previous month's return.
func (e *Estimator) runTrial(req Request, numMonths int, mean, sigma float64, seed uint64) float64 {
	src := rand.NewPCG(seed, trialSeedStream)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	ar := e.cfg.Autocorrelation
	balance := req.Goal.CurrentProgress
	prev := mean
	for m := 0; m < numMonths; m++ {
		balance += req.MonthlyContribution

		r := mean + ar*(prev-mean) + sigma*normal.Rand()
		balance *= 1 + r
		if balance < e.cfg.ValueFloor {
			balance = e.cfg.ValueFloor
		}
		prev = r
	}
	return balance
}

// reduce aggregates trial outcomes into an Estimate.
func (e *Estimator) reduce(goal domain.FinancialGoal, target float64, finals []float64) *Estimate {
	successes := 0
	shortfallHits := 0
	sumShortfall := 0.0
	sumSurplus := 0.0
	minimumBar := target * goal.MinimumAcceptable

	for _, final := range finals {
		if final >= target {
			successes++
			sumSurplus += final - target
		} else {
			sumShortfall += target - final
		}
		if final < minimumBar {
			shortfallHits++
		}
	}

	n := float64(len(finals))
	return &Estimate{
		SuccessProbability: float64(successes) / n,
		ExpectedShortfall:  sumShortfall / n,
		ExpectedSurplus:    sumSurplus / n,
		ShortfallRisk:      float64(shortfallHits) / n,
		VaR95:              formulas.Percentile(finals, 0.05),
		ExpectedFinalValue: formulas.Mean(finals),
		AdjustedTarget:     target,
		TrialsRun:          len(finals),
	}
}

// degenerateEstimate covers horizons that have already elapsed: the answer
// is fully determined by current progress, so zero trials run.
func degenerateEstimate(progress, target float64) *Estimate {
	estimate := &Estimate{
		AdjustedTarget:     target,
		ExpectedFinalValue: progress,
		VaR95:              progress,
		TrialsRun:          0,
	}
	if progress >= target {
		estimate.SuccessProbability = 1.0
		estimate.ExpectedSurplus = progress - target
	} else {
		estimate.SuccessProbability = 0.0
		estimate.ExpectedShortfall = target - progress
	}
	return estimate
}

// validate fails fast on malformed inputs before any trial runs.
func (e *Estimator) validate(req Request) error {
	if err := req.Goal.Validate(); err != nil {
		return err
	}
	if req.MonthlyContribution < 0 {
		return domain.ValidationError{Field: "monthly_contribution", Message: "must not be negative"}
	}
	if e.cfg.Trials <= 0 {
		return domain.ConfigurationError{Field: "trials", Message: "must be greater than 0"}
	}
	if len(req.AssetAllocation) == 0 {
		return domain.ValidationError{Field: "asset_allocation", Message: "must not be empty"}
	}

	sum := 0.0
	for class, weight := range req.AssetAllocation {
		if weight < 0 {
			return domain.ValidationError{Field: "asset_allocation", Message: "negative weight for " + class}
		}
		sum += weight
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return domain.ValidationError{Field: "asset_allocation", Message: "weights must sum to 1"}
	}
	return nil
}
