package aggregator

import (
	"github.com/NotCoffee418/p1reader/pkg/esmutils"
	"github.com/NotCoffee418/p1reader/pkg/types"
)

type powerAccumulator struct {
	stats types.PowerStats
}

func (a *powerAccumulator) add(v int64) {
	s := &a.stats
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Sum += v
	s.Count++
}

func (a *powerAccumulator) summary() types.PowerStats {
	s := a.stats
	if s.Count > 0 {
		s.Avg = float64(s.Sum) / float64(s.Count)
	}
	return s
}

// PeriodicBatch accumulates import and export power and closes a window on a
// clock aligned boundary, or when a whole window passed without one.
type PeriodicBatch struct {
	window     int64
	started    bool
	lastClose  int64
	start      int64
	imports    powerAccumulator
	exports    powerAccumulator
	lastImport int64
	lastExport int64
	closed     []types.BatchSummary
}

func NewPeriodicBatch(window int64) *PeriodicBatch {
	if window <= 0 {
		window = DefaultBatchWindow
	}
	return &PeriodicBatch{window: window}
}

// Add records one telegram. totalImport and totalExport are the cumulative
// meter readings. When the sample closes the window the summary is returned.
func (p *PeriodicBatch) Add(t, powerIn, powerOut, totalImport, totalExport int64) (types.BatchSummary, bool) {
	if !p.started {
		p.started = true
		p.lastClose = t
	}
	if p.imports.stats.Count == 0 {
		p.start = t
	}

	p.imports.add(powerIn)
	p.exports.add(powerOut)
	p.lastImport = totalImport
	p.lastExport = totalExport

	elapsed := t - p.lastClose
	aligned := esmutils.Mod(t, p.window) < DefaultBatchAlignSlack && elapsed > DefaultBatchMinSpacing
	if !aligned && elapsed <= p.window {
		return types.BatchSummary{}, false
	}
	return p.close(t), true
}

// CloseOpen closes the current window early, e.g. on shutdown.
func (p *PeriodicBatch) CloseOpen(t int64) (types.BatchSummary, bool) {
	if p.imports.stats.Count == 0 {
		return types.BatchSummary{}, false
	}
	return p.close(t), true
}

func (p *PeriodicBatch) close(t int64) types.BatchSummary {
	summary := types.BatchSummary{
		Start:       p.start,
		End:         t,
		TotalImport: p.lastImport,
		TotalExport: p.lastExport,
		Import:      p.imports.summary(),
		Export:      p.exports.summary(),
	}
	p.closed = append(p.closed, summary)
	p.lastClose = t
	p.imports = powerAccumulator{}
	p.exports = powerAccumulator{}
	return summary
}

// Pending is the number of samples in the open window.
func (p *PeriodicBatch) Pending() int { return p.imports.stats.Count }

// Closed is the number of closed windows not yet drained.
func (p *PeriodicBatch) Closed() int { return len(p.closed) }

func (p *PeriodicBatch) Drain() []types.BatchSummary {
	closed := p.closed
	p.closed = nil
	return closed
}
