package regime

import (
	"math/rand/v2"

	"github.com/aristath/horizon/internal/domain"
)

// Schedule samples a per-step regime sequence of the given length from the
// classification's transition matrix, starting from the current regime.
// The sampled sequence feeds straight into the path simulator's regime
// overrides. Deterministic for a fixed seed.
//
// Classifications without a transition matrix (threshold method) yield a
// constant schedule holding the current regime.
func Schedule(classification *Classification, steps int, seed uint64) []domain.MarketRegime {
	if classification == nil || steps <= 0 {
		return nil
	}

	schedule := make([]domain.MarketRegime, steps)
	current := classification.Current.Label

	if len(classification.Transition) != numStates {
		for i := range schedule {
			schedule[i] = classification.Regimes[current]
		}
		return schedule
	}

	stateIndex := map[domain.RegimeLabel]int{}
	for i, label := range labelOrder {
		stateIndex[label] = i
	}

	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	state := stateIndex[current]
	for i := 0; i < steps; i++ {
		schedule[i] = classification.Regimes[labelOrder[state]]

		u := rng.Float64()
		cumulative := 0.0
		next := state
		for q := 0; q < numStates; q++ {
			cumulative += classification.Transition[state][q]
			if u <= cumulative {
				next = q
				break
			}
		}
		state = next
	}
	return schedule
}
