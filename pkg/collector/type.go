package collector

import (
	"time"

	"github.com/NotCoffee418/p1reader/pkg/aggregator"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/schedule"
	"github.com/NotCoffee418/p1reader/pkg/transport"
	"github.com/NotCoffee418/p1reader/pkg/types"
	"github.com/sirupsen/logrus"
)

// Exporter names, used in logs and metrics.
const (
	ExporterDetails  = "details"
	ExporterHtml     = "html"
	ExporterWeekly   = "weekly"
	ExporterInterval = "interval"
	ExporterDay      = "day"
)

// Files holds the export file name patterns. Empty names disable an export.
type Files struct {
	Details  string
	Html     string
	Weekly   string
	Interval string
	Day      string
}

type Policies struct {
	Details  *schedule.Policy
	Html     *schedule.Policy
	Weekly   *schedule.Policy
	Interval *schedule.Policy
	Day      *schedule.Policy
}

// Archive persists closed batches and weekly measurements, see meterdb.Store.
type Archive interface {
	InsertBatches(batches []types.BatchSummary) error
	InsertMeasurements(rows []types.Measurement) error
}

type Options struct {
	Engine   *aggregator.Engine
	Source   transport.Source
	Files    Files
	Policies Policies
	// Closed windows needed before an interval file is written, ignored on shutdown.
	MinBatches int
	// Optional.
	Archive Archive
	// Stop after this many telegrams, 0 runs until cancelled.
	StopAfter int
	Logger    logrus.FieldLogger
	Metrics   *metrics.Set
	// Defaults to time.Now.
	Now func() time.Time
	// Defaults to one second.
	TickInterval time.Duration
}

// Collector owns the engine and drives every export from a single goroutine.
type Collector struct {
	opts     Options
	log      logrus.FieldLogger
	engine   *aggregator.Engine
	now      func() time.Time
	interval []types.BatchSummary
	day      []types.BatchSummary
	received int
}
