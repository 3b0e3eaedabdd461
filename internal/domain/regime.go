package domain

// RegimeLabel identifies a market regime.
type RegimeLabel string

const (
	RegimeBull    RegimeLabel = "bull"
	RegimeBear    RegimeLabel = "bear"
	RegimeNeutral RegimeLabel = "neutral"
)

// MarketRegime is a regime label with its per-period return mean and
// variance attached. Read-only input to the path simulator: when supplied,
// the regime's mean/variance override the simulator's drift/volatility for
// the steps it covers.
type MarketRegime struct {
	Label    RegimeLabel `json:"label"`
	Mean     float64     `json:"mean"`     // per-period return mean
	Variance float64     `json:"variance"` // per-period return variance
}
