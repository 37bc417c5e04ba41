package aggregator

import "github.com/NotCoffee418/p1reader/pkg/types"

// WeeklyMeasurements samples telegrams whose second is a multiple of period.
type WeeklyMeasurements struct {
	period int64
	rows   []types.Measurement
}

func NewWeeklyMeasurements(period int64) *WeeklyMeasurements {
	if period <= 0 {
		period = DefaultMeasurementPeriod
	}
	return &WeeklyMeasurements{period: period}
}

// Add keeps m only when its time falls on the sampling period and reports whether it did.
func (w *WeeklyMeasurements) Add(m types.Measurement) bool {
	if m.Time%w.period != 0 {
		return false
	}
	w.rows = append(w.rows, m)
	return true
}

func (w *WeeklyMeasurements) Len() int { return len(w.rows) }

// Drain returns the collected rows and starts a new list.
func (w *WeeklyMeasurements) Drain() []types.Measurement {
	rows := w.rows
	w.rows = nil
	return rows
}
