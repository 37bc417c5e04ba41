package aggregator

import "github.com/NotCoffee418/p1reader/pkg/types"

// RollingBuffer keeps the most recent samples; the oldest is evicted on overflow.
type RollingBuffer struct {
	samples []types.PowerSample
	head    int
	size    int
}

func NewRollingBuffer(capacity int) *RollingBuffer {
	if capacity <= 0 {
		capacity = DefaultRollingCapacity
	}
	return &RollingBuffer{samples: make([]types.PowerSample, capacity)}
}

func (b *RollingBuffer) Add(s types.PowerSample) {
	idx := (b.head + b.size) % len(b.samples)
	if b.size == len(b.samples) {
		b.samples[b.head] = s
		b.head = (b.head + 1) % len(b.samples)
		return
	}
	b.samples[idx] = s
	b.size++
}

func (b *RollingBuffer) Len() int { return b.size }

func (b *RollingBuffer) Cap() int { return len(b.samples) }

// Snapshot returns the buffered samples, oldest first.
func (b *RollingBuffer) Snapshot() []types.PowerSample {
	out := make([]types.PowerSample, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.samples[(b.head+i)%len(b.samples)]
	}
	return out
}

// GroupRuns splits samples into consecutive runs that share the same ten
// second slot (t / 10).
func GroupRuns(samples []types.PowerSample) [][]types.PowerSample {
	var runs [][]types.PowerSample
	var run []types.PowerSample
	for _, s := range samples {
		if len(run) > 0 && slot(run[0].Time) != slot(s.Time) {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, s)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func slot(t int64) int64 {
	return floorDiv(t, 10)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
