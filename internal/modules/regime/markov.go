package regime

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/horizon/internal/domain"
)

const (
	numStates     = 3
	emMaxIter     = 200
	emTolerance   = 1e-8
	varianceFloor = 1e-12
)

// MarkovSwitchingClassifier fits a 3-state Markov-switching AR(1) model.
//
// The autoregressive coefficient is estimated once by least squares and held
// common across states; the AR-filtered innovations are then fitted with a
// 3-state Gaussian hidden Markov model via EM (Baum-Welch with scaling).
// State innovation moments are mapped back to stationary return moments
// through the AR(1) relations mean = m/(1-phi), variance = v/(1-phi²).
type MarkovSwitchingClassifier struct {
	minObservations int
	log             zerolog.Logger
}

// NewMarkovSwitchingClassifier creates the classifier. minObservations
// below the model's own floor of 30 is raised to it.
func NewMarkovSwitchingClassifier(minObservations int, log zerolog.Logger) *MarkovSwitchingClassifier {
	if minObservations < 30 {
		minObservations = 30
	}
	return &MarkovSwitchingClassifier{
		minObservations: minObservations,
		log:             log,
	}
}

// Classify implements Classifier.
func (c *MarkovSwitchingClassifier) Classify(returns []float64) (*Classification, error) {
	if len(returns) < c.minObservations {
		return nil, domain.InsufficientDataError{Required: c.minObservations, Got: len(returns)}
	}

	phi := arCoefficient(returns)

	// AR-filtered innovations.
	z := make([]float64, len(returns)-1)
	for t := 1; t < len(returns); t++ {
		z[t-1] = returns[t] - phi*returns[t-1]
	}

	fit, err := fitGaussianHMM(z)
	if err != nil {
		return nil, err
	}

	// Map innovation moments back to stationary return moments and order
	// states by mean: highest is bull, lowest is bear.
	type stateStats struct {
		index    int
		mean     float64
		variance float64
	}
	states := make([]stateStats, numStates)
	for s := 0; s < numStates; s++ {
		states[s] = stateStats{
			index:    s,
			mean:     fit.means[s] / (1 - phi),
			variance: fit.variances[s] / (1 - phi*phi),
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].mean > states[j].mean })

	regimes := make(map[domain.RegimeLabel]domain.MarketRegime, numStates)
	probabilities := make(map[domain.RegimeLabel]float64, numStates)
	stateToLabel := make(map[int]domain.RegimeLabel, numStates)
	for rank, label := range labelOrder {
		st := states[rank]
		regimes[label] = domain.MarketRegime{Label: label, Mean: st.mean, Variance: st.variance}
		probabilities[label] = fit.finalProbs[st.index]
		stateToLabel[st.index] = label
	}

	// Reorder the transition matrix into bull/neutral/bear order.
	transition := make([][]float64, numStates)
	for i, rowLabel := range labelOrder {
		transition[i] = make([]float64, numStates)
		for j, colLabel := range labelOrder {
			var from, to int
			for s, l := range stateToLabel {
				if l == rowLabel {
					from = s
				}
				if l == colLabel {
					to = s
				}
			}
			transition[i][j] = fit.transition[from][to]
		}
	}

	current := domain.RegimeNeutral
	best := -1.0
	for label, p := range probabilities {
		if p > best {
			best = p
			current = label
		}
	}

	c.log.Debug().
		Str("current", string(current)).
		Float64("phi", phi).
		Int("iterations", fit.iterations).
		Msg("Markov-switching fit complete")

	return &Classification{
		Current:       regimes[current],
		Regimes:       regimes,
		Probabilities: probabilities,
		Transition:    transition,
		Method:        "markov_switching",
	}, nil
}

// arCoefficient estimates the AR(1) coefficient by least squares,
// clamped away from the unit root.
func arCoefficient(returns []float64) float64 {
	mean := stat.Mean(returns, nil)
	num, den := 0.0, 0.0
	for t := 1; t < len(returns); t++ {
		num += (returns[t] - mean) * (returns[t-1] - mean)
		den += (returns[t-1] - mean) * (returns[t-1] - mean)
	}
	if den == 0 {
		return 0
	}
	phi := num / den
	if phi > 0.95 {
		phi = 0.95
	}
	if phi < -0.95 {
		phi = -0.95
	}
	return phi
}

// hmmFit holds the converged EM parameters.
type hmmFit struct {
	means      []float64
	variances  []float64
	transition [][]float64
	finalProbs []float64 // smoothed state probabilities at the last observation
	iterations int
}

// fitGaussianHMM runs Baum-Welch with per-step scaling on the innovation
// series. Initialization splits the sorted data into terciles so the three
// states start separated.
func fitGaussianHMM(z []float64) (*hmmFit, error) {
	n := len(z)
	if n < numStates*5 {
		return nil, domain.InsufficientDataError{Required: numStates * 5, Got: n}
	}

	sorted := make([]float64, n)
	copy(sorted, z)
	sort.Float64s(sorted)

	means := make([]float64, numStates)
	variances := make([]float64, numStates)
	third := n / numStates
	for s := 0; s < numStates; s++ {
		lo, hi := s*third, (s+1)*third
		if s == numStates-1 {
			hi = n
		}
		seg := sorted[lo:hi]
		means[s] = stat.Mean(seg, nil)
		v := stat.Variance(seg, nil)
		if v < varianceFloor {
			v = stat.Variance(z, nil)
		}
		variances[s] = math.Max(v, varianceFloor)
	}

	transition := make([][]float64, numStates)
	for i := range transition {
		transition[i] = make([]float64, numStates)
		for j := range transition[i] {
			if i == j {
				transition[i][j] = 0.90
			} else {
				transition[i][j] = 0.05
			}
		}
	}
	initial := []float64{1.0 / numStates, 1.0 / numStates, 1.0 / numStates}

	alpha := make([][]float64, n)
	beta := make([][]float64, n)
	gamma := make([][]float64, n)
	for t := 0; t < n; t++ {
		alpha[t] = make([]float64, numStates)
		beta[t] = make([]float64, numStates)
		gamma[t] = make([]float64, numStates)
	}
	scale := make([]float64, n)
	density := func(x, mean, variance float64) float64 {
		return math.Exp(-(x-mean)*(x-mean)/(2*variance)) / math.Sqrt(2*math.Pi*variance)
	}

	prevLogLik := math.Inf(-1)
	iterations := 0
	for iter := 0; iter < emMaxIter; iter++ {
		iterations = iter + 1

		// Forward pass with scaling.
		for s := 0; s < numStates; s++ {
			alpha[0][s] = initial[s] * density(z[0], means[s], variances[s])
		}
		scale[0] = normalize(alpha[0])
		for t := 1; t < n; t++ {
			for s := 0; s < numStates; s++ {
				sum := 0.0
				for q := 0; q < numStates; q++ {
					sum += alpha[t-1][q] * transition[q][s]
				}
				alpha[t][s] = sum * density(z[t], means[s], variances[s])
			}
			scale[t] = normalize(alpha[t])
		}

		logLik := 0.0
		for t := 0; t < n; t++ {
			if scale[t] <= 0 {
				return nil, fmt.Errorf("hmm fit degenerated at step %d", t)
			}
			logLik += math.Log(scale[t])
		}

		// Backward pass using the forward scaling factors.
		for s := 0; s < numStates; s++ {
			beta[n-1][s] = 1
		}
		for t := n - 2; t >= 0; t-- {
			for s := 0; s < numStates; s++ {
				sum := 0.0
				for q := 0; q < numStates; q++ {
					sum += transition[s][q] * density(z[t+1], means[q], variances[q]) * beta[t+1][q]
				}
				beta[t][s] = sum / scale[t+1]
			}
		}

		// State posteriors.
		for t := 0; t < n; t++ {
			total := 0.0
			for s := 0; s < numStates; s++ {
				gamma[t][s] = alpha[t][s] * beta[t][s]
				total += gamma[t][s]
			}
			if total <= 0 {
				return nil, fmt.Errorf("hmm posterior degenerated at step %d", t)
			}
			for s := 0; s < numStates; s++ {
				gamma[t][s] /= total
			}
		}

		// M-step: transition counts, state moments, initial distribution.
		updateTransitions(z, alpha, beta, scale, gamma, means, variances, transition, density)

		for s := 0; s < numStates; s++ {
			weight, mean := 0.0, 0.0
			for t := 0; t < n; t++ {
				weight += gamma[t][s]
				mean += gamma[t][s] * z[t]
			}
			if weight <= 0 {
				return nil, fmt.Errorf("state %d lost all posterior mass", s)
			}
			mean /= weight
			variance := 0.0
			for t := 0; t < n; t++ {
				variance += gamma[t][s] * (z[t] - mean) * (z[t] - mean)
			}
			variance /= weight
			means[s] = mean
			variances[s] = math.Max(variance, varianceFloor)
			initial[s] = gamma[0][s]
		}

		if math.IsNaN(logLik) || math.IsInf(logLik, 1) {
			return nil, fmt.Errorf("hmm log-likelihood diverged")
		}
		if math.Abs(logLik-prevLogLik) < emTolerance {
			break
		}
		prevLogLik = logLik
	}

	return &hmmFit{
		means:      means,
		variances:  variances,
		transition: transition,
		finalProbs: gamma[n-1],
		iterations: iterations,
	}, nil
}

// updateTransitions re-estimates the transition matrix from the expected
// transition counts (the xi statistics of Baum-Welch).
func updateTransitions(
	z []float64,
	alpha, beta [][]float64,
	scale []float64,
	gamma [][]float64,
	means, variances []float64,
	transition [][]float64,
	density func(x, mean, variance float64) float64,
) {
	n := len(z)
	numer := make([][]float64, numStates)
	denom := make([]float64, numStates)
	for s := range numer {
		numer[s] = make([]float64, numStates)
	}

	for t := 0; t < n-1; t++ {
		for s := 0; s < numStates; s++ {
			denom[s] += gamma[t][s]
			for q := 0; q < numStates; q++ {
				xi := alpha[t][s] * transition[s][q] *
					density(z[t+1], means[q], variances[q]) * beta[t+1][q] / scale[t+1]
				numer[s][q] += xi
			}
		}
	}

	for s := 0; s < numStates; s++ {
		if denom[s] <= 0 {
			continue
		}
		rowSum := 0.0
		for q := 0; q < numStates; q++ {
			transition[s][q] = numer[s][q] / denom[s]
			rowSum += transition[s][q]
		}
		if rowSum > 0 {
			for q := 0; q < numStates; q++ {
				transition[s][q] /= rowSum
			}
		}
	}
}

// normalize scales the slice to sum to 1 and returns the original sum.
func normalize(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum > 0 {
		for i := range v {
			v[i] /= sum
		}
	}
	return sum
}
