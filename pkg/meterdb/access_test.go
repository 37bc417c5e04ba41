package meterdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "p1-meter.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertBatchesRollsUpHour(t *testing.T) {
	store := openTestStore(t)
	hour := time.Date(2021, 6, 8, 13, 0, 0, 0, time.UTC).Unix()

	batches := []types.BatchSummary{
		{
			Start: hour, End: hour + 300,
			TotalImport: 1000, TotalExport: 500,
			Import: types.PowerStats{Count: 2, Min: 90, Avg: 100, Max: 110},
			Export: types.PowerStats{Count: 2, Min: 4, Avg: 4, Max: 4},
		},
		{
			Start: hour + 301, End: hour + 600,
			TotalImport: 1100, TotalExport: 510,
			Import: types.PowerStats{Count: 6, Min: 150, Avg: 200, Max: 250},
			Export: types.PowerStats{Count: 6, Min: 8, Avg: 8, Max: 8},
		},
		{
			Start: hour + 3600, End: hour + 3600 + 300,
			TotalImport: 1500, TotalExport: 600,
			Import: types.PowerStats{Count: 4, Min: 300, Avg: 300, Max: 300},
		},
	}
	require.NoError(t, store.InsertBatches(batches))

	h, err := store.GetHourly(hour)
	require.NoError(t, err)
	assert.Equal(t, hour, h.HourStart)
	assert.InDelta(t, 175.0, h.ImportAvgW, 1e-9, "weighted by sample count")
	assert.InDelta(t, 7.0, h.ExportAvgW, 1e-9)
	assert.Equal(t, int64(100), h.ImportWh)
	assert.Equal(t, int64(10), h.ExportWh)
	assert.Equal(t, int64(8), h.SampleCount)

	next, err := store.GetHourly(hour + 3600)
	require.NoError(t, err)
	assert.InDelta(t, 300.0, next.ImportAvgW, 1e-9)
	assert.Equal(t, int64(0), next.ImportWh, "a single window has no growth")
	assert.Equal(t, int64(4), next.SampleCount)

	_, err = store.GetHourly(hour - 3600)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestInsertBatchesRefreshesExistingHour(t *testing.T) {
	store := openTestStore(t)
	hour := time.Date(2021, 6, 8, 13, 0, 0, 0, time.UTC).Unix()

	require.NoError(t, store.InsertBatches([]types.BatchSummary{
		{End: hour + 300, TotalImport: 1000, Import: types.PowerStats{Count: 1, Avg: 100}},
	}))
	require.NoError(t, store.InsertBatches([]types.BatchSummary{
		{End: hour + 600, TotalImport: 1040, Import: types.PowerStats{Count: 3, Avg: 300}},
	}))

	h, err := store.GetHourly(hour)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, h.ImportAvgW, 1e-9)
	assert.Equal(t, int64(40), h.ImportWh)
	assert.Equal(t, int64(4), h.SampleCount)
}

func TestInsertMeasurements(t *testing.T) {
	store := openTestStore(t)
	rows := []types.Measurement{
		{Time: 1_623_157_230, EnergyInT1: 1651, EnergyInT2: 1134, PowerIn: 500},
		{Time: 1_623_157_260, EnergyInT1: 1652, EnergyInT2: 1134, PowerIn: 450},
	}
	require.NoError(t, store.InsertMeasurements(rows))
	// Replaying the same rows does not duplicate them.
	require.NoError(t, store.InsertMeasurements(rows[1:]))

	var count int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM weekly_measurements").Scan(&count))
	assert.Equal(t, 2, count)

	var powerIn int64
	require.NoError(t, store.DB().QueryRow(
		"SELECT power_in_w FROM weekly_measurements WHERE timestamp = ?", int64(1_623_157_260),
	).Scan(&powerIn))
	assert.Equal(t, int64(450), powerIn)
}
