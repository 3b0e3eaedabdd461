package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/horizon/internal/workers"
)

// jump draws follow a Student-t with 4 degrees of freedom: heavy enough
// tails for crash modelling while keeping a finite variance.
const jumpDegreesOfFreedom = 4

// seedStream separates the per-path PCG streams from other engine RNGs.
const seedStream = 0x9e3779b97f4a7c15

// PathBackend generates a path matrix from simulation parameters.
// CPUBackend is the reference implementation; alternative backends (GPU)
// must honor the same statistical contract and determinism guarantee.
type PathBackend interface {
	Generate(params Params) (*PathMatrix, error)
}

// Simulator is the façade over a PathBackend.
type Simulator struct {
	backend PathBackend
	log     zerolog.Logger
}

// NewSimulator creates a simulator on the CPU-parallel reference backend.
func NewSimulator(log zerolog.Logger) *Simulator {
	componentLog := log.With().Str("component", "path_simulator").Logger()
	return &Simulator{
		backend: NewCPUBackend(0, componentLog),
		log:     componentLog,
	}
}

// NewSimulatorWithBackend creates a simulator on a custom backend.
func NewSimulatorWithBackend(backend PathBackend, log zerolog.Logger) *Simulator {
	return &Simulator{
		backend: backend,
		log:     log.With().Str("component", "path_simulator").Logger(),
	}
}

// Generate runs the backend after validating the parameters.
func (s *Simulator) Generate(params Params) (*PathMatrix, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	matrix, err := s.backend.Generate(params)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("paths", params.Paths).
		Int("periods", params.Periods).
		Uint64("seed", params.Seed).
		Msg("path generation complete")
	return matrix, nil
}

// CPUBackend generates paths on a worker pool, partitioned by path index
// into disjoint row ranges. Every path owns an exclusive RNG seeded as
// base_seed + path_index, so output is identical for identical (seed,
// params) regardless of worker count.
type CPUBackend struct {
	pool *workers.Pool
	log  zerolog.Logger
}

// NewCPUBackend creates the reference backend. numWorkers <= 0 sizes the
// pool from the machine's physical cores.
func NewCPUBackend(numWorkers int, log zerolog.Logger) *CPUBackend {
	return &CPUBackend{
		pool: workers.NewPool(numWorkers),
		log:  log,
	}
}

// Generate implements PathBackend.
func (b *CPUBackend) Generate(params Params) (*PathMatrix, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	matrix := newPathMatrix(params.Paths, params.Periods)
	b.pool.RunRange(params.Paths, func(start, end int) {
		for i := start; i < end; i++ {
			generatePath(matrix.Path(i), params, params.Seed+uint64(i))
		}
	})
	return matrix, nil
}

// generatePath fills one row of the matrix. row has length Periods+1 and
// row[0] is always the initial value.
func generatePath(row []float64, params Params, seed uint64) {
	src := rand.NewPCG(seed, seedStream)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	hasJumps := params.JumpIntensity > 0
	var poisson distuv.Poisson
	var jumpDist distuv.StudentsT
	if hasJumps {
		poisson = distuv.Poisson{Lambda: params.JumpIntensity * params.Dt, Src: src}
		if params.JumpStd > 0 {
			jumpDist = distuv.StudentsT{
				Mu:    params.JumpMean,
				Sigma: params.JumpStd,
				Nu:    jumpDegreesOfFreedom,
				Src:   src,
			}
		}
	}

	floor := params.floor()
	sqrtDt := math.Sqrt(params.Dt)

	row[0] = params.InitialValue
	value := params.InitialValue
	for t := 0; t < params.Periods; t++ {
		var stepDrift, shock float64
		z := normal.Rand()

		if params.Regimes != nil {
			// Regime moments are per-period already; no dt scaling.
			regime := params.Regimes[t]
			stepDrift = regime.Mean - regime.Variance/2
			shock = math.Sqrt(regime.Variance) * z
		} else {
			sigma := params.Volatility
			if params.VolatilitySeries != nil {
				sigma = params.VolatilitySeries[t]
			}
			stepDrift = (params.Drift - sigma*sigma/2) * params.Dt
			shock = sigma * sqrtDt * z
		}

		jump := 0.0
		if hasJumps {
			events := int(poisson.Rand())
			for k := 0; k < events; k++ {
				if params.JumpStd > 0 {
					jump += jumpDist.Rand()
				} else {
					jump += params.JumpMean
				}
			}
		}

		value *= math.Exp(stepDrift + shock + jump)
		if value < floor {
			value = floor
		}
		row[t+1] = value
	}
}
