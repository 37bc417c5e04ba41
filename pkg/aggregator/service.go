package aggregator

import (
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/types"
	"github.com/sirupsen/logrus"
)

// Engine feeds decoded telegrams into the rolling buffer, the weekly
// measurements, the periodic batch and the detail log.
// It is owned by a single goroutine.
type Engine struct {
	log      logrus.FieldLogger
	metrics  *metrics.Set
	now      func() time.Time
	sequence sequenceTracker
	rolling  *RollingBuffer
	weekly   *WeeklyMeasurements
	batch    *PeriodicBatch
	details  DetailLog
	latest   *telegram.Message
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		now:     cfg.Now,
		rolling: NewRollingBuffer(cfg.RollingCapacity),
		weekly:  NewWeeklyMeasurements(cfg.MeasurementPeriod),
		batch:   NewPeriodicBatch(cfg.BatchWindow),
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Ingest processes one telegram received from sender.
func (e *Engine) Ingest(sender string, msg *telegram.Message) SequenceEvent {
	event := e.sequence.observe(sender, msg.Meta.FrameNumber)
	switch event.Kind {
	case SequenceGap:
		e.log.Warnf("Frame sequence gap from %s: received %d, off by %d", sender, msg.Meta.FrameNumber, event.Delta)
		e.metrics.SequenceGap()
	case SenderChanged:
		e.log.Infof("Receiving telegrams from %s starting at frame %d", sender, msg.Meta.FrameNumber)
		e.metrics.SenderChanged()
	}

	if msg.Meta.FrameTimeDuration > SlowFrameMillis {
		e.log.Warnf("Frame %d took %d ms to read", msg.Meta.FrameNumber, msg.Meta.FrameTimeDuration)
	}

	t := msg.Meta.Time()
	tg := msg.Telegram
	powerIn := tg.IntOr(telegram.KeyPowerIn, 0)
	powerOut := tg.IntOr(telegram.KeyPowerOut, 0)
	inT1 := tg.IntOr(telegram.KeyEnergyInT1, 0)
	inT2 := tg.IntOr(telegram.KeyEnergyInT2, 0)
	outT1 := tg.IntOr(telegram.KeyEnergyOutT1, 0)
	outT2 := tg.IntOr(telegram.KeyEnergyOutT2, 0)

	e.rolling.Add(types.PowerSample{Time: t, PowerIn: powerIn, PowerOut: powerOut})

	e.weekly.Add(types.Measurement{
		Time:        t,
		EnergyInT1:  inT1,
		EnergyInT2:  inT2,
		PowerIn:     powerIn,
		EnergyOutT1: outT1,
		EnergyOutT2: outT2,
		PowerOut:    powerOut,
	})

	if summary, closed := e.batch.Add(t, powerIn, powerOut, inT1+inT2, outT1+outT2); closed {
		e.log.Debugf("Closed batch %d-%d with %d samples", summary.Start, summary.End, summary.Import.Count)
		e.metrics.BatchClosed()
	}

	e.details.Add(types.DetailRecord{Received: e.now(), Telegram: tg})
	e.latest = msg
	e.metrics.TelegramIngested()
	return event
}

// Latest returns the last ingested message, or nil.
func (e *Engine) Latest() *telegram.Message { return e.latest }

// Snapshot returns a copy of the rolling buffer, oldest first.
func (e *Engine) Snapshot() []types.PowerSample { return e.rolling.Snapshot() }

// Runs groups the rolling buffer into ten second runs.
func (e *Engine) Runs() [][]types.PowerSample { return GroupRuns(e.rolling.Snapshot()) }

func (e *Engine) DrainWeekly() []types.Measurement { return e.weekly.Drain() }

func (e *Engine) PendingWeekly() int { return e.weekly.Len() }

func (e *Engine) DrainBatches() []types.BatchSummary { return e.batch.Drain() }

// ClosedBatches is the number of closed windows waiting for export.
func (e *Engine) ClosedBatches() int { return e.batch.Closed() }

// CloseOpenBatch closes the partial window at now, used on shutdown.
func (e *Engine) CloseOpenBatch(now int64) bool {
	summary, ok := e.batch.CloseOpen(now)
	if ok {
		e.log.Debugf("Closed partial batch %d-%d with %d samples", summary.Start, summary.End, summary.Import.Count)
		e.metrics.BatchClosed()
	}
	return ok
}

func (e *Engine) DrainDetails() []types.DetailRecord { return e.details.Drain() }

func (e *Engine) PendingDetails() int { return e.details.Len() }
