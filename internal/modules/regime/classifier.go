// Package regime classifies historical return series into bull, bear and
// neutral market regimes with per-regime return statistics.
//
// The primary classifier fits a 3-state Markov-switching autoregressive
// model via EM. A threshold classifier built on moving averages serves as
// the fallback when the fit cannot converge, so callers never hard-depend
// on the statistical fit succeeding.
package regime

import (
	"github.com/rs/zerolog"

	"github.com/aristath/horizon/internal/domain"
)

// Classification is the output of a regime fit: the regime in force at the
// end of the series, statistics for all three regimes, the smoothed state
// probabilities at the final observation, and the fitted transition matrix
// (rows ordered bull, neutral, bear).
type Classification struct {
	Current       domain.MarketRegime                        `json:"current"`
	Regimes       map[domain.RegimeLabel]domain.MarketRegime `json:"regimes"`
	Probabilities map[domain.RegimeLabel]float64             `json:"probabilities"`
	Transition    [][]float64                                `json:"transition,omitempty"`
	Method        string                                     `json:"method"` // "markov_switching" or "threshold"
}

// Classifier labels an ordered return series. Pure function of its input;
// implementations must not retain references to the slice.
type Classifier interface {
	Classify(returns []float64) (*Classification, error)
}

// Service wraps the Markov-switching classifier with the threshold fallback.
type Service struct {
	primary  Classifier
	fallback Classifier
	log      zerolog.Logger
}

// NewService creates a regime classification service with the given minimum
// history length.
func NewService(minObservations int, log zerolog.Logger) *Service {
	componentLog := log.With().Str("component", "regime_classifier").Logger()
	return &Service{
		primary:  NewMarkovSwitchingClassifier(minObservations, componentLog),
		fallback: NewThresholdClassifier(minObservations, componentLog),
		log:      componentLog,
	}
}

// Classify runs the Markov-switching fit and falls back to the threshold
// classifier when the fit fails for any reason other than too little data.
// InsufficientDataError always propagates: the caller must decide whether
// a flat, regime-agnostic simulation is acceptable.
func (s *Service) Classify(returns []float64) (*Classification, error) {
	classification, err := s.primary.Classify(returns)
	if err == nil {
		return classification, nil
	}
	if domain.IsInsufficientDataError(err) {
		return nil, err
	}

	s.log.Warn().Err(err).Msg("Markov-switching fit failed, using threshold classifier")
	return s.fallback.Classify(returns)
}

// ClassifyAsset pulls up to n historical returns for the asset class from
// the provider and classifies them.
func (s *Service) ClassifyAsset(history domain.ReturnHistoryProvider, assetClass string, n int) (*Classification, error) {
	returns, err := history.Returns(assetClass, n)
	if err != nil {
		return nil, err
	}
	return s.Classify(returns)
}

// labelOrder is the canonical state ordering used by the transition matrix.
var labelOrder = []domain.RegimeLabel{domain.RegimeBull, domain.RegimeNeutral, domain.RegimeBear}
