package workers

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRange_CoversAllIndices(t *testing.T) {
	pool := NewPool(4)

	n := 103
	seen := make([]int32, n)
	pool.RunRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})

	for i, count := range seen {
		assert.Equal(t, int32(1), count, "index %d visited wrong number of times", i)
	}
}

func TestRunRange_MoreWorkersThanJobs(t *testing.T) {
	pool := NewPool(16)

	var total int64
	pool.RunRange(3, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	assert.Equal(t, int64(3), total)
}

func TestRunRange_ZeroJobs(t *testing.T) {
	pool := NewPool(4)
	called := false
	pool.RunRange(0, func(start, end int) { called = true })
	assert.False(t, called)
}

func TestRunIndexed_CoversAllIndices(t *testing.T) {
	pool := NewPool(3)

	n := 50
	seen := make([]int32, n)
	pool.RunIndexed(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})

	for i, count := range seen {
		assert.Equal(t, int32(1), count, "index %d", i)
	}
}

func TestRunIndexed_RespectsWorkerCap(t *testing.T) {
	pool := NewPool(2)

	var inFlight, peak int32
	pool.RunIndexed(40, func(i int) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
	})

	assert.LessOrEqual(t, peak, int32(2))
}

func TestNestedLimits_NeverOversubscribes(t *testing.T) {
	for _, width := range []int{1, 2, 8, 64} {
		limits := NestedLimits(width)
		assert.GreaterOrEqual(t, limits.Outer, 1)
		assert.GreaterOrEqual(t, limits.Inner, 1)
		assert.LessOrEqual(t, limits.Outer*limits.Inner, PhysicalCores()*2,
			"outer=%d inner=%d should stay near the core budget", limits.Outer, limits.Inner)
	}
}

func TestPhysicalCores_Positive(t *testing.T) {
	assert.Greater(t, PhysicalCores(), 0)
}
