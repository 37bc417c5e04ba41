package schedule

import "github.com/NotCoffee418/p1reader/pkg/esmutils"

// Policy decides when an exporter flushes. Times are epoch seconds.
// A flush is due inside the first Threshold seconds of every Period, once.
type Policy struct {
	Period    int64
	Threshold int64
	// Minimum seconds between two flushes. Suppresses a second flush when the
	// caller polls more than once inside the threshold.
	Grace int64

	last int64
}

// NewPolicy returns a policy with Grace set to a quarter of the period.
func NewPolicy(period, threshold int64) *Policy {
	return &Policy{Period: period, Threshold: threshold, Grace: period / 4}
}

func (p *Policy) Due(now int64) bool {
	if p == nil || p.Period <= 0 {
		return false
	}
	return esmutils.Mod(now, p.Period) < p.Threshold && now-p.last > p.Grace
}

// Mark records a flush at now.
func (p *Policy) Mark(now int64) {
	p.last = now
}

// Fire reports whether a flush is due and marks it when it is.
func (p *Policy) Fire(now int64) bool {
	if !p.Due(now) {
		return false
	}
	p.Mark(now)
	return true
}

func (p *Policy) Last() int64 { return p.last }

// Default flush periods and thresholds in seconds.
const (
	DetailPeriod      = 300
	DetailThreshold   = 5
	HtmlPeriod        = 30
	HtmlThreshold     = 2
	WeeklyPeriod      = 30
	WeeklyThreshold   = 5
	IntervalPeriod    = 1800
	IntervalThreshold = 5
	DayPeriod         = 7200
	DayThreshold      = 5
)
