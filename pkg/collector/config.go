package collector

import (
	"github.com/NotCoffee418/p1reader/pkg/config"
	"github.com/NotCoffee418/p1reader/pkg/pathing"
	"github.com/NotCoffee418/p1reader/pkg/schedule"
)

const DefaultMinBatches = 3

// FilesFromConfig reads the export file name patterns.
func FilesFromConfig(cfg *config.Config) Files {
	return Files{
		Details:  config.Get(cfg, "p1_reader_details", "filename", pathing.DataFile("p1_reader_details-DAY.csv")),
		Html:     config.Get(cfg, "html_report", "filename", pathing.DataFile("p1-lastm.html")),
		Weekly:   config.Get(cfg, "weekly_log", "filename", pathing.DataFile("P1reader-YYYY-Www.log")),
		Interval: config.Get(cfg, "p1_reader_interval", "filename", pathing.DataFile("p1_reader_interval-PERIOD.csv")),
		Day:      config.Get(cfg, "p1_reader_day", "filename", pathing.DataFile("p1_reader_day-DAY.csv")),
	}
}

// PoliciesFromConfig builds the flush policies from the configured periods.
// Thresholds are fixed.
func PoliciesFromConfig(cfg *config.Config) Policies {
	return Policies{
		Details: schedule.NewPolicy(
			config.Get[int64](cfg, "p1_reader_details", "flush_period", schedule.DetailPeriod), schedule.DetailThreshold),
		Html: schedule.NewPolicy(
			config.Get[int64](cfg, "html_report", "flush_period", schedule.HtmlPeriod), schedule.HtmlThreshold),
		Weekly: schedule.NewPolicy(
			config.Get[int64](cfg, "weekly_log", "flush_period", schedule.WeeklyPeriod), schedule.WeeklyThreshold),
		Interval: schedule.NewPolicy(
			config.Get[int64](cfg, "p1_reader_interval", "flush_period", schedule.IntervalPeriod), schedule.IntervalThreshold),
		Day: schedule.NewPolicy(
			config.Get[int64](cfg, "p1_reader_day", "flush_period", schedule.DayPeriod), schedule.DayThreshold),
	}
}

func MinBatchesFromConfig(cfg *config.Config) int {
	return config.Get(cfg, "p1_reader_interval", "min_batches", DefaultMinBatches)
}
