package meterdb

// AggregatePowerHourly rolls the batch windows that closed in one hour up.
type AggregatePowerHourly struct {
	HourStart   int64   `db:"hour_start"`
	ImportAvgW  float64 `db:"import_avg_w"`
	ExportAvgW  float64 `db:"export_avg_w"`
	ImportWh    int64   `db:"import_wh"`
	ExportWh    int64   `db:"export_wh"`
	SampleCount int64   `db:"sample_count"`
}
