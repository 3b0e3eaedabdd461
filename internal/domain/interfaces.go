package domain

// MarketAssumptionsProvider supplies per-asset-class market assumptions.
// Implementations are caller-supplied; the engine performs no network calls.
// Implementations must be safe for concurrent read access.
type MarketAssumptionsProvider interface {
	// Assumptions returns the asset parameters for the given asset class.
	// The second return value is false when the asset class is unknown.
	Assumptions(assetClass string) (AssetParams, bool)

	// AssetClasses returns every known asset class identifier.
	AssetClasses() []string
}

// ReturnHistoryProvider supplies ordered historical return series for
// regime classification and volatility fitting. Caller-supplied.
type ReturnHistoryProvider interface {
	// Returns yields the most recent n period returns in chronological order.
	// Fewer than n values may be returned when history is short.
	Returns(assetClass string, n int) ([]float64, error)
}

// StaticAssumptions is a map-backed MarketAssumptionsProvider, convenient
// for tests and for callers with fixed capital-market assumptions.
type StaticAssumptions map[string]AssetParams

// Assumptions implements MarketAssumptionsProvider.
func (s StaticAssumptions) Assumptions(assetClass string) (AssetParams, bool) {
	p, ok := s[assetClass]
	return p, ok
}

// AssetClasses implements MarketAssumptionsProvider.
func (s StaticAssumptions) AssetClasses() []string {
	classes := make([]string, 0, len(s))
	for class := range s {
		classes = append(classes, class)
	}
	return classes
}
