package collector

import (
	"context"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/aggregator"
	"github.com/NotCoffee418/p1reader/pkg/export"
	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/pathing"
	"github.com/NotCoffee418/p1reader/pkg/schedule"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/transport"
)

func New(opts Options) *Collector {
	c := &Collector{opts: opts, log: opts.Logger, engine: opts.Engine, now: opts.Now}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if c.engine == nil {
		c.engine = aggregator.NewEngine(aggregator.Config{Logger: c.log, Metrics: opts.Metrics})
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.opts.TickInterval <= 0 {
		c.opts.TickInterval = time.Second
	}
	if c.opts.MinBatches <= 0 {
		c.opts.MinBatches = DefaultMinBatches
	}
	return c
}

func (c *Collector) Engine() *aggregator.Engine { return c.engine }

// Run receives telegrams until ctx is cancelled, the source gives up or the
// StopAfter count is reached. Every accumulator is flushed before it returns.
func (c *Collector) Run(ctx context.Context) error {
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()

	messages := make(chan transport.Envelope, 16)
	sourceDone := make(chan error, 1)
	go func() {
		sourceDone <- c.opts.Source.Listen(listenCtx, messages)
	}()

	// Count startup as a flush so nothing fires within the first grace period.
	start := c.now().Unix()
	for _, p := range c.policies() {
		p.Mark(start)
	}

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("Flushing data before exiting")
			c.Shutdown()
			return nil

		case err := <-sourceDone:
			if err != nil {
				c.log.Errorf("Transport stopped: %v", err)
			}
			c.Shutdown()
			return err

		case env := <-messages:
			c.handle(env)
			c.flushDue()
			if c.opts.StopAfter > 0 && c.received >= c.opts.StopAfter {
				c.log.Info("End of test")
				stopListening()
				c.Shutdown()
				return nil
			}

		case <-ticker.C:
			c.flushDue()
		}
	}
}

func (c *Collector) handle(env transport.Envelope) {
	msg, err := telegram.MessageFromJsonBytes(env.Payload)
	if err != nil {
		c.log.Errorf("Dropping message from %s: %v", env.Sender, err)
		c.opts.Metrics.PayloadError()
		return
	}

	sender := msg.Meta.SenderID
	if sender == "" {
		sender = env.Sender
	}
	c.engine.Ingest(sender, msg)
	c.received++
	c.collectBatches()
}

func (c *Collector) policies() []*schedule.Policy {
	var out []*schedule.Policy
	for _, p := range []*schedule.Policy{
		c.opts.Policies.Details,
		c.opts.Policies.Html,
		c.opts.Policies.Weekly,
		c.opts.Policies.Interval,
		c.opts.Policies.Day,
	} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// collectBatches moves closed windows out of the engine into the interval and
// day queues, and into the archive.
func (c *Collector) collectBatches() {
	batches := c.engine.DrainBatches()
	if len(batches) == 0 {
		return
	}
	c.interval = append(c.interval, batches...)
	c.day = append(c.day, batches...)

	if c.opts.Archive != nil {
		if err := c.opts.Archive.InsertBatches(batches); err != nil {
			c.log.Errorf("Failed to archive batches: %v", err)
		}
	}
}

// flushDue runs every exporter whose policy is due.
func (c *Collector) flushDue() {
	now := c.now()
	sec := now.Unix()
	p := c.opts.Policies

	if p.Details.Fire(sec) {
		c.flushDetails(now)
	}
	if p.Html.Fire(sec) {
		c.flushHtml(now)
	}
	if p.Weekly.Fire(sec) {
		c.flushWeekly(now)
	}
	if p.Interval.Fire(sec) {
		c.flushInterval(now, false)
	}
	if p.Day.Fire(sec) {
		c.flushDay(now)
	}
}

// Shutdown closes the open batch window and flushes every accumulator.
func (c *Collector) Shutdown() {
	now := c.now()
	c.engine.CloseOpenBatch(now.Unix())
	c.collectBatches()

	c.flushDetails(now)
	c.flushWeekly(now)
	c.flushInterval(now, true)
	c.flushDay(now)
	c.flushHtml(now)
}

func (c *Collector) target(exporter, pattern string, now time.Time, placeholders ...pathing.Placeholder) (string, bool) {
	if pattern == "" {
		return "", false
	}
	path := pathing.ExpandFilename(pattern, now, placeholders...)
	if err := pathing.EnsureFileDirs(path); err != nil {
		c.log.Errorf("Cannot write %s export: %v", exporter, err)
		c.opts.Metrics.Flushed(exporter, err)
		return "", false
	}
	return path, true
}

func (c *Collector) flushDetails(now time.Time) {
	if c.engine.PendingDetails() == 0 {
		return
	}
	path, ok := c.target(ExporterDetails, c.opts.Files.Details, now, pathing.Day)
	if !ok && c.opts.Files.Details != "" {
		return // Keep the records until the directory can be created
	}
	records := c.engine.DrainDetails()
	if !ok {
		return
	}
	c.log.Infof("Writing %d telegrams to %s", len(records), path)
	err := export.WriteDetails(path, records)
	c.finish(ExporterDetails, err)
}

func (c *Collector) flushHtml(now time.Time) {
	runs := c.engine.Runs()
	if len(runs) == 0 {
		return
	}
	path, ok := c.target(ExporterHtml, c.opts.Files.Html, now)
	if !ok {
		return
	}
	c.finish(ExporterHtml, export.WriteHTML(path, runs, now))
}

func (c *Collector) flushWeekly(now time.Time) {
	if c.engine.PendingWeekly() == 0 {
		return
	}
	path, ok := c.target(ExporterWeekly, c.opts.Files.Weekly, now, pathing.Year, pathing.Week)
	if !ok && c.opts.Files.Weekly != "" {
		return
	}
	rows := c.engine.DrainWeekly()
	if c.opts.Archive != nil {
		if err := c.opts.Archive.InsertMeasurements(rows); err != nil {
			c.log.Errorf("Failed to archive measurements: %v", err)
		}
	}
	if !ok {
		return
	}
	c.log.Infof("Writing %d measurements to %s", len(rows), path)
	c.finish(ExporterWeekly, export.AppendWeekly(path, rows))
}

// flushInterval writes the queued windows once MinBatches are available.
// final writes whatever is queued.
func (c *Collector) flushInterval(now time.Time, final bool) {
	if len(c.interval) == 0 {
		return
	}
	if !final && len(c.interval) < c.opts.MinBatches {
		c.log.Warnf("Not enough data to write interval report (%d records)", len(c.interval))
		return
	}
	path, ok := c.target(ExporterInterval, c.opts.Files.Interval, now, pathing.Period)
	if !ok {
		return
	}
	c.log.Infof("Writing %d batches to %s", len(c.interval), path)
	err := export.WriteBatches(path, c.interval, false)
	c.finish(ExporterInterval, err)
	if err == nil {
		c.interval = nil
	}
}

func (c *Collector) flushDay(now time.Time) {
	if len(c.day) == 0 {
		return
	}
	path, ok := c.target(ExporterDay, c.opts.Files.Day, now, pathing.Day)
	if !ok {
		return
	}
	err := export.WriteBatches(path, c.day, true)
	c.finish(ExporterDay, err)
	if err == nil {
		c.day = nil
	}
}

func (c *Collector) finish(exporter string, err error) {
	if err != nil {
		c.log.Errorf("Failed to write %s export: %v", exporter, err)
	}
	c.opts.Metrics.Flushed(exporter, err)
}
