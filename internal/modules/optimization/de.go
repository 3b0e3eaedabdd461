package optimization

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aristath/horizon/internal/workers"
)

// Problem is a bounded derivative-free minimization problem. Evaluate must
// be safe for concurrent calls and should return +Inf for infeasible
// candidates; the optimizer treats any finite value as feasible.
type Problem struct {
	Lower    []float64
	Upper    []float64
	Evaluate func(x []float64) float64
}

// Diagnostics reports how a minimization run ended. Non-convergence is an
// expected, recoverable outcome of stochastic optimization and is never
// surfaced as an error.
type Diagnostics struct {
	Iterations      int     `json:"iterations"`
	Evaluations     int     `json:"evaluations"`
	BestObjective   float64 `json:"best_objective"`
	Converged       bool    `json:"converged"`
	TerminatedEarly bool    `json:"terminated_early"`
	FeasibleFound   bool    `json:"feasible_found"`
}

// Optimizer is the derivative-free global search capability. Differential
// evolution ships as the default; CMA-ES or particle swarm drop in behind
// the same contract.
type Optimizer interface {
	Minimize(ctx context.Context, problem Problem) ([]float64, Diagnostics, error)
}

// Differential evolution hyperparameters (rand/1/bin scheme).
const (
	deWeight           = 0.7 // differential weight F
	deCrossover        = 0.9 // crossover probability CR
	dePopulationFactor = 10  // population = max(minPopulation, factor*dims)
	deMinPopulation    = 40
	deStallLimit       = 10 // consecutive below-tolerance generations before convergence
	deSeedStream       = 0x2545f4914f6cdd1d
)

// DifferentialEvolution is a population-based global minimizer suited to
// noisy, non-smooth, non-convex objectives. Candidate evaluations within a
// generation run in parallel on a bounded pool; the RNG driving mutation is
// owned by the single coordinating goroutine, so runs are deterministic
// for a fixed seed regardless of worker count.
type DifferentialEvolution struct {
	maxIterations int
	tolerance     float64
	seed          uint64
	pool          *workers.Pool
	log           zerolog.Logger
}

// NewDifferentialEvolution creates the optimizer. numWorkers <= 0 sizes
// the evaluation pool from physical cores.
func NewDifferentialEvolution(maxIterations int, tolerance float64, seed uint64, numWorkers int, log zerolog.Logger) *DifferentialEvolution {
	return &DifferentialEvolution{
		maxIterations: maxIterations,
		tolerance:     tolerance,
		seed:          seed,
		pool:          workers.NewPool(numWorkers),
		log:           log.With().Str("component", "differential_evolution").Logger(),
	}
}

// Minimize implements Optimizer. Termination: max iterations, sustained
// sub-tolerance improvement, or context deadline — whichever comes first.
// The deadline is only checked at generation boundaries; a generation is
// never aborted midway.
func (de *DifferentialEvolution) Minimize(ctx context.Context, problem Problem) ([]float64, Diagnostics, error) {
	dims := len(problem.Lower)
	if dims == 0 || len(problem.Upper) != dims {
		return nil, Diagnostics{}, domain.ConfigurationError{Field: "bounds", Message: "lower and upper bounds must be non-empty and equal length"}
	}
	for d := 0; d < dims; d++ {
		if problem.Upper[d] < problem.Lower[d] {
			return nil, Diagnostics{}, domain.ConfigurationError{Field: "bounds", Message: "upper bound below lower bound"}
		}
	}
	if de.maxIterations <= 0 {
		return nil, Diagnostics{}, domain.ConfigurationError{Field: "max_iterations", Message: "must be greater than 0"}
	}

	populationSize := dePopulationFactor * dims
	if populationSize < deMinPopulation {
		populationSize = deMinPopulation
	}

	rng := rand.New(rand.NewPCG(de.seed, deSeedStream))

	population := make([][]float64, populationSize)
	fitness := make([]float64, populationSize)
	for i := range population {
		population[i] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			population[i][d] = problem.Lower[d] + rng.Float64()*(problem.Upper[d]-problem.Lower[d])
		}
	}
	de.evaluateAll(population, fitness, problem.Evaluate)

	diag := Diagnostics{Evaluations: populationSize}
	bestIdx := argmin(fitness)
	best := append([]float64(nil), population[bestIdx]...)
	bestFitness := fitness[bestIdx]

	trials := make([][]float64, populationSize)
	trialFitness := make([]float64, populationSize)
	for i := range trials {
		trials[i] = make([]float64, dims)
	}

	stall := 0
	for iter := 0; iter < de.maxIterations; iter++ {
		if ctx.Err() != nil {
			diag.TerminatedEarly = true
			break
		}
		diag.Iterations = iter + 1

		// Mutation and crossover are sequential so the RNG stream is
		// independent of evaluation scheduling.
		for i := 0; i < populationSize; i++ {
			a, b, c := distinctIndices(rng, populationSize, i)
			forced := rng.IntN(dims)
			for d := 0; d < dims; d++ {
				if d == forced || rng.Float64() < deCrossover {
					v := population[a][d] + deWeight*(population[b][d]-population[c][d])
					trials[i][d] = clamp(v, problem.Lower[d], problem.Upper[d])
				} else {
					trials[i][d] = population[i][d]
				}
			}
		}

		de.evaluateAll(trials, trialFitness, problem.Evaluate)
		diag.Evaluations += populationSize

		improvement := 0.0
		for i := 0; i < populationSize; i++ {
			if trialFitness[i] <= fitness[i] {
				copy(population[i], trials[i])
				fitness[i] = trialFitness[i]
				if fitness[i] < bestFitness {
					if !math.IsInf(bestFitness, 1) {
						improvement = math.Max(improvement, bestFitness-fitness[i])
					} else {
						improvement = math.Inf(1)
					}
					bestFitness = fitness[i]
					copy(best, population[i])
				}
			}
		}

		if improvement < de.tolerance {
			stall++
			if stall >= deStallLimit {
				diag.Converged = true
				break
			}
		} else {
			stall = 0
		}
	}

	diag.BestObjective = bestFitness
	diag.FeasibleFound = !math.IsInf(bestFitness, 1)

	de.log.Debug().
		Int("iterations", diag.Iterations).
		Int("evaluations", diag.Evaluations).
		Float64("best", bestFitness).
		Bool("converged", diag.Converged).
		Msg("differential evolution finished")

	return best, diag, nil
}

// evaluateAll scores every candidate in parallel; results land in the
// candidate's own fitness slot, so no synchronization is needed.
func (de *DifferentialEvolution) evaluateAll(candidates [][]float64, fitness []float64, evaluate func([]float64) float64) {
	de.pool.RunIndexed(len(candidates), func(i int) {
		fitness[i] = evaluate(candidates[i])
	})
}

// distinctIndices draws three distinct population indices, all different
// from excluded.
func distinctIndices(rng *rand.Rand, n, excluded int) (int, int, int) {
	draw := func(taken ...int) int {
	retry:
		for {
			candidate := rng.IntN(n)
			if candidate == excluded {
				continue
			}
			for _, t := range taken {
				if candidate == t {
					continue retry
				}
			}
			return candidate
		}
	}
	a := draw()
	b := draw(a)
	c := draw(a, b)
	return a, b, c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func argmin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}
