package workers

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

var (
	coresOnce sync.Once
	coreCount int
)

// PhysicalCores returns the machine's physical core count, falling back to
// the logical CPU count when topology detection is unavailable. The value
// is probed once and cached for the process lifetime.
func PhysicalCores() int {
	coresOnce.Do(func() {
		count, err := cpu.Counts(false)
		if err != nil || count <= 0 {
			count = runtime.NumCPU()
		}
		coreCount = count
	})
	return coreCount
}

// SuggestedParallelism returns the default worker count for a single
// parallel region (simulation paths or estimator trials).
func SuggestedParallelism() int {
	return PhysicalCores()
}

// Limits caps nested parallelism: Outer workers each running Inner-wide
// parallel regions, with Outer*Inner never exceeding the core budget.
type Limits struct {
	Outer int
	Inner int
}

// NestedLimits splits the core budget between an outer candidate loop of
// the given width and the inner trial simulation each candidate runs.
// Outer gets priority since candidate evaluations dominate the optimizer's
// wall time; Inner is whatever budget remains, at least 1.
func NestedLimits(outerWidth int) Limits {
	cores := PhysicalCores()
	outer := outerWidth
	if outer > cores {
		outer = cores
	}
	if outer < 1 {
		outer = 1
	}
	inner := cores / outer
	if inner < 1 {
		inner = 1
	}
	return Limits{Outer: outer, Inner: inner}
}
