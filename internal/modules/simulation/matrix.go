package simulation

// PathMatrix holds P simulated paths of N+1 values each in one contiguous
// row-major block. Produced fresh by every simulator call and treated as
// immutable once returned; rows are written by exactly one worker during
// generation, so no synchronization is needed beyond the final join.
type PathMatrix struct {
	values  []float64
	paths   int
	periods int
}

// newPathMatrix allocates a matrix for the given dimensions.
func newPathMatrix(paths, periods int) *PathMatrix {
	return &PathMatrix{
		values:  make([]float64, paths*(periods+1)),
		paths:   paths,
		periods: periods,
	}
}

// NumPaths returns the number of rows P.
func (m *PathMatrix) NumPaths() int {
	return m.paths
}

// NumSteps returns the number of columns, N+1 (step 0 is the initial value).
func (m *PathMatrix) NumSteps() int {
	return m.periods + 1
}

// At returns the value of path i at step t.
func (m *PathMatrix) At(i, t int) float64 {
	return m.values[i*(m.periods+1)+t]
}

// Path returns row i as a slice view into the matrix. Callers must treat
// it as read-only.
func (m *PathMatrix) Path(i int) []float64 {
	start := i * (m.periods + 1)
	return m.values[start : start+m.periods+1]
}

// FinalValues returns a fresh slice holding the last value of every path.
func (m *PathMatrix) FinalValues() []float64 {
	finals := make([]float64, m.paths)
	for i := 0; i < m.paths; i++ {
		finals[i] = m.At(i, m.periods)
	}
	return finals
}
