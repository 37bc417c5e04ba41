package aggregator

import "github.com/NotCoffee418/p1reader/pkg/types"

// DetailLog keeps every telegram until the detail export collects them.
type DetailLog struct {
	records []types.DetailRecord
}

func (l *DetailLog) Add(r types.DetailRecord) {
	l.records = append(l.records, r)
}

func (l *DetailLog) Len() int { return len(l.records) }

func (l *DetailLog) Drain() []types.DetailRecord {
	records := l.records
	l.records = nil
	return records
}
