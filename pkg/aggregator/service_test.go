package aggregator

import (
	"testing"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(t, frame, powerIn, powerOut int64) *telegram.Message {
	tg := telegram.NewTelegram()
	tg.Fields[telegram.KeyPowerIn] = telegram.IntValue(powerIn)
	tg.Fields[telegram.KeyPowerOut] = telegram.IntValue(powerOut)
	tg.Fields[telegram.KeyEnergyInT1] = telegram.IntValue(1000)
	tg.Fields[telegram.KeyEnergyInT2] = telegram.IntValue(2000)
	tg.Fields[telegram.KeyEnergyOutT1] = telegram.IntValue(300)
	tg.Fields[telegram.KeyEnergyOutT2] = telegram.IntValue(400)
	return &telegram.Message{
		Meta:     telegram.Meta{FrameStartTime: float64(t) + 0.25, FrameEndTime: float64(t) + 0.5, FrameNumber: frame},
		Telegram: tg,
	}
}

func TestRollingBufferEvictsOldest(t *testing.T) {
	b := NewRollingBuffer(120)
	for i := int64(1); i <= 121; i++ {
		b.Add(types.PowerSample{Time: i})
	}

	snap := b.Snapshot()
	require.Len(t, snap, 120)
	assert.Equal(t, int64(2), snap[0].Time)
	assert.Equal(t, int64(121), snap[119].Time)
}

func TestGroupRunsKeepsLastRun(t *testing.T) {
	samples := []types.PowerSample{{Time: 8}, {Time: 9}, {Time: 10}, {Time: 19}, {Time: 20}}
	runs := GroupRuns(samples)

	require.Len(t, runs, 3)
	assert.Len(t, runs[0], 2)
	assert.Len(t, runs[1], 2)
	assert.Equal(t, int64(20), runs[2][0].Time)
	assert.Empty(t, GroupRuns(nil))
}

func TestPeriodicBatchStats(t *testing.T) {
	b := NewPeriodicBatch(300)
	powers := []int64{10, 20, 10, 20, 10, 20}

	var summary types.BatchSummary
	var closed bool
	for i, p := range powers {
		summary, closed = b.Add(int64(i*60), p, 0, 5000, 700)
		if i < len(powers)-1 {
			require.False(t, closed, "closed early at sample %d", i)
		}
	}

	require.True(t, closed)
	assert.Equal(t, int64(0), summary.Start)
	assert.Equal(t, int64(300), summary.End)
	assert.Equal(t, 6, summary.Import.Count)
	assert.Equal(t, int64(10), summary.Import.Min)
	assert.Equal(t, int64(20), summary.Import.Max)
	assert.InDelta(t, 15.0, summary.Import.Avg, 1e-9)
	assert.Equal(t, int64(5000), summary.TotalImport)
	assert.Equal(t, int64(700), summary.TotalExport)

	_, closed = b.Add(301, 99, 0, 5000, 700)
	assert.False(t, closed)
	assert.Equal(t, 1, b.Pending())

	next, ok := b.CloseOpen(302)
	require.True(t, ok)
	assert.Equal(t, int64(301), next.Start)
	assert.Equal(t, int64(99), next.Import.Min)
	assert.Len(t, b.Drain(), 2)
	assert.Empty(t, b.Drain())
}

func TestPeriodicBatchAlignedCloseNeedsSpacing(t *testing.T) {
	b := NewPeriodicBatch(300)
	_, closed := b.Add(295, 1, 0, 0, 0)
	assert.False(t, closed)
	_, closed = b.Add(301, 1, 0, 0, 0)
	assert.False(t, closed, "aligned but only 6 seconds after the previous close")
	_, closed = b.Add(596, 1, 0, 0, 0)
	assert.True(t, closed, "more than a full window without close")
}

func TestEngineSequenceGap(t *testing.T) {
	e := NewEngine(Config{})

	assert.Equal(t, SenderChanged, e.Ingest("a", newMessage(100, 1, 0, 0)).Kind)
	assert.Equal(t, InSequence, e.Ingest("a", newMessage(101, 2, 0, 0)).Kind)
	ev := e.Ingest("a", newMessage(102, 4, 0, 0))
	assert.Equal(t, SequenceGap, ev.Kind)
	assert.Equal(t, int64(1), ev.Delta)
	assert.Equal(t, InSequence, e.Ingest("a", newMessage(103, 5, 0, 0)).Kind)
}

func TestEngineSenderChangeIsNotGap(t *testing.T) {
	e := NewEngine(Config{})
	e.Ingest("a", newMessage(100, 40, 0, 0))

	assert.Equal(t, SenderChanged, e.Ingest("b", newMessage(101, 1, 0, 0)).Kind)
	assert.Equal(t, InSequence, e.Ingest("b", newMessage(102, 2, 0, 0)).Kind)
}

func TestEngineWeeklyModulus(t *testing.T) {
	e := NewEngine(Config{})
	for i := int64(0); i < 90; i++ {
		e.Ingest("a", newMessage(1000+i, i+1, 0, 0))
	}

	rows := e.DrainWeekly()
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Zero(t, r.Time%30)
	}
	assert.Equal(t, int64(1000), rows[0].EnergyInT1)
	assert.Equal(t, 0, e.PendingWeekly())
}

func TestEngineMissingFieldsDefaultToZero(t *testing.T) {
	received := time.Date(2021, 6, 8, 13, 0, 0, 0, time.UTC)
	e := NewEngine(Config{Now: func() time.Time { return received }})

	msg := &telegram.Message{Meta: telegram.Meta{FrameStartTime: 60, FrameNumber: 1}, Telegram: telegram.NewTelegram()}
	e.Ingest("a", msg)

	snap := e.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, types.PowerSample{Time: 60}, snap[0])

	rows := e.DrainWeekly()
	require.Len(t, rows, 1)
	assert.Equal(t, types.Measurement{Time: 60}, rows[0])

	details := e.DrainDetails()
	require.Len(t, details, 1)
	assert.Equal(t, received, details[0].Received)
	assert.Same(t, msg, e.Latest())
}

func TestEngineCloseOpenBatch(t *testing.T) {
	e := NewEngine(Config{})
	assert.False(t, e.CloseOpenBatch(10))

	e.Ingest("a", newMessage(10, 1, 500, 0))
	e.Ingest("a", newMessage(11, 2, 700, 0))
	require.True(t, e.CloseOpenBatch(12))

	batches := e.DrainBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, int64(3000), batches[0].TotalImport)
	assert.Equal(t, int64(700), batches[0].TotalExport)
	assert.InDelta(t, 600.0, batches[0].Import.Avg, 1e-9)
}
