package meterdb

import (
	"sort"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/types"
)

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// getHourEnd returns the Unix timestamp of the last second of the hour (next hour start - 1)
func getHourEnd(hourStart int64) int64 {
	return time.Unix(hourStart, 0).Add(time.Hour).Unix() - 1
}

// affectedHours lists the distinct hours the batches closed in, ascending.
func affectedHours(batches []types.BatchSummary) []int64 {
	seen := make(map[int64]bool)
	var hours []int64
	for _, b := range batches {
		hour := roundToHourStart(time.Unix(b.End, 0))
		if !seen[hour] {
			seen[hour] = true
			hours = append(hours, hour)
		}
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })
	return hours
}

// aggregatePowerHourly rolls up the batch windows closed in a specific hour.
// Averages are weighted by sample count, energy is the growth of the
// cumulative meter readings over the hour.
func (s *Store) aggregatePowerHourly(hourStart int64) error {
	hourEnd := getHourEnd(hourStart)

	query := `
		SELECT
			COALESCE(SUM(import_avg_w * import_count) / NULLIF(SUM(import_count), 0), 0) AS import_avg,
			COALESCE(SUM(export_avg_w * export_count) / NULLIF(SUM(export_count), 0), 0) AS export_avg,
			COALESCE(MAX(total_import_wh) - MIN(total_import_wh), 0) AS import_wh,
			COALESCE(MAX(total_export_wh) - MIN(total_export_wh), 0) AS export_wh,
			COALESCE(SUM(import_count), 0) AS sample_count
		FROM periodic_batches
		WHERE end_time >= ? AND end_time <= ?
	`

	var h AggregatePowerHourly
	err := s.db.QueryRow(query, hourStart, hourEnd).Scan(&h.ImportAvgW, &h.ExportAvgW, &h.ImportWh, &h.ExportWh, &h.SampleCount)
	if err != nil {
		return err
	}

	// Only insert if we have data
	if h.SampleCount == 0 {
		return nil
	}

	insertQuery := `
		INSERT OR REPLACE INTO aggregate_power_hourly
		(hour_start, import_avg_w, export_avg_w, import_wh, export_wh, sample_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(insertQuery, hourStart, h.ImportAvgW, h.ExportAvgW, h.ImportWh, h.ExportWh, h.SampleCount)
	return err
}
