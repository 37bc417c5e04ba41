package meterdb

import (
	"fmt"

	"github.com/NotCoffee418/p1reader/pkg/types"
)

// InsertBatches stores closed batch windows and refreshes the hourly
// aggregates they fall in.
func (s *Store) InsertBatches(batches []types.BatchSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range batches {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO periodic_batches "+
				"(end_time, start_time, total_import_wh, total_export_wh, "+
				"import_count, import_min_w, import_avg_w, import_max_w, "+
				"export_count, export_min_w, export_avg_w, export_max_w) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			b.End, b.Start, b.TotalImport, b.TotalExport,
			b.Import.Count, b.Import.Min, b.Import.Avg, b.Import.Max,
			b.Export.Count, b.Export.Min, b.Export.Avg, b.Export.Max,
		)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", b.End, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for _, hour := range affectedHours(batches) {
		if err := s.aggregatePowerHourly(hour); err != nil {
			return fmt.Errorf("failed to aggregate hour %d: %w", hour, err)
		}
	}
	return nil
}

func (s *Store) InsertMeasurements(rows []types.Measurement) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range rows {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO weekly_measurements "+
				"(timestamp, energy_in_t1_wh, energy_in_t2_wh, power_in_w, "+
				"energy_out_t1_wh, energy_out_t2_wh, power_out_w) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.Time, m.EnergyInT1, m.EnergyInT2, m.PowerIn,
			m.EnergyOutT1, m.EnergyOutT2, m.PowerOut,
		)
		if err != nil {
			return fmt.Errorf("failed to insert measurement %d: %w", m.Time, err)
		}
	}
	return tx.Commit()
}

// GetHourly returns the hourly aggregate starting at hourStart.
func (s *Store) GetHourly(hourStart int64) (*AggregatePowerHourly, error) {
	row := s.db.QueryRow(
		"SELECT hour_start, import_avg_w, export_avg_w, import_wh, export_wh, sample_count "+
			"FROM aggregate_power_hourly WHERE hour_start = ?",
		hourStart,
	)
	var h AggregatePowerHourly
	if err := row.Scan(&h.HourStart, &h.ImportAvgW, &h.ExportAvgW, &h.ImportWh, &h.ExportWh, &h.SampleCount); err != nil {
		return nil, err
	}
	return &h, nil
}
