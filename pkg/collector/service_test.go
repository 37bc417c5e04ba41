package collector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/config"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/schedule"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/NotCoffee418/p1reader/pkg/transport"
	"github.com/NotCoffee418/p1reader/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource sends its payloads and then waits for cancellation.
type sliceSource struct {
	payloads [][]byte
}

func (s *sliceSource) Listen(ctx context.Context, out chan<- transport.Envelope) error {
	for _, p := range s.payloads {
		select {
		case out <- transport.Envelope{Sender: "test#1", Payload: p}:
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

type memoryArchive struct {
	batches      []types.BatchSummary
	measurements []types.Measurement
}

func (a *memoryArchive) InsertBatches(b []types.BatchSummary) error {
	a.batches = append(a.batches, b...)
	return nil
}

func (a *memoryArchive) InsertMeasurements(m []types.Measurement) error {
	a.measurements = append(a.measurements, m...)
	return nil
}

func payload(t, frame, powerIn int64) []byte {
	tg := telegram.NewTelegram()
	tg.Header = `/ISK5\2M550T-1013`
	tg.Checksum = "1234"
	tg.Fields[telegram.KeyPowerIn] = telegram.IntValue(powerIn)
	tg.Fields[telegram.KeyEnergyInT1] = telegram.IntValue(1651)
	tg.Fields[telegram.KeyEnergyInT2] = telegram.IntValue(1134)
	msg := &telegram.Message{
		Meta:     telegram.Meta{FrameStartTime: float64(t), FrameEndTime: float64(t) + 0.1, FrameNumber: frame},
		Telegram: tg,
	}
	data, _ := msg.ToJsonBytes()
	return data
}

func testFiles(dir string) Files {
	return Files{
		Details:  filepath.Join(dir, "details-DAY.csv"),
		Html:     filepath.Join(dir, "lastm.html"),
		Weekly:   filepath.Join(dir, "weekly-YYYY-Www.log"),
		Interval: filepath.Join(dir, "interval-PERIOD.csv"),
		Day:      filepath.Join(dir, "day-DAY.csv"),
	}
}

func countLines(t *testing.T, pattern string) int {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	require.NoError(t, err)
	require.Len(t, matches, 1, pattern)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestRunFlushesEverythingOnStop(t *testing.T) {
	dir := t.TempDir()
	base := int64(1_623_157_230) // multiple of 30
	source := &sliceSource{payloads: [][]byte{
		payload(base, 1, 100),
		payload(base+1, 2, 200),
		payload(base+2, 3, 300),
	}}
	archive := &memoryArchive{}

	c := New(Options{
		Source:    source,
		Files:     testFiles(dir),
		Archive:   archive,
		StopAfter: 3,
		Now:       func() time.Time { return time.Unix(base+2, 0) },
	})
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 2+3, countLines(t, filepath.Join(dir, "details-*.csv")))
	assert.Equal(t, 1, countLines(t, filepath.Join(dir, "weekly-*.log")))
	assert.Equal(t, 1, countLines(t, filepath.Join(dir, "interval-*.csv")), "open window is written on shutdown")
	assert.Equal(t, 1, countLines(t, filepath.Join(dir, "day-*.csv")))
	assert.FileExists(t, filepath.Join(dir, "lastm.html"))

	require.Len(t, archive.batches, 1)
	assert.InDelta(t, 200.0, archive.batches[0].Import.Avg, 1e-9)
	assert.Len(t, archive.measurements, 1)
}

func TestRunDropsBrokenPayloads(t *testing.T) {
	m := metrics.New()
	source := &sliceSource{payloads: [][]byte{
		[]byte("{not json"),
		payload(1_623_157_231, 1, 100),
	}}

	c := New(Options{Source: source, StopAfter: 1, Metrics: m})
	require.NoError(t, c.Run(context.Background()))

	expected := `
# HELP p1_payload_errors_total Transport messages dropped because they failed to parse.
# TYPE p1_payload_errors_total counter
p1_payload_errors_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "p1_payload_errors_total"))
	assert.NotNil(t, c.Engine().Latest())
}

func TestRunFlushesOnCancel(t *testing.T) {
	dir := t.TempDir()
	source := &sliceSource{payloads: [][]byte{payload(1_623_157_231, 1, 100)}}
	c := New(Options{Source: source, Files: testFiles(dir)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 3, countLines(t, filepath.Join(dir, "details-*.csv")))
}

func TestFlushIntervalWaitsForMinBatches(t *testing.T) {
	dir := t.TempDir()
	c := New(Options{Source: &sliceSource{}, Files: testFiles(dir), MinBatches: 3})
	now := time.Unix(1_623_157_500, 0)

	c.interval = []types.BatchSummary{{End: 1_623_157_200}, {End: 1_623_157_500}}
	c.flushInterval(now, false)
	assert.Len(t, c.interval, 2)
	matches, _ := filepath.Glob(filepath.Join(dir, "interval-*.csv"))
	assert.Empty(t, matches)

	c.interval = append(c.interval, types.BatchSummary{End: 1_623_157_800})
	c.flushInterval(now, false)
	assert.Empty(t, c.interval)
	assert.Equal(t, 3, countLines(t, filepath.Join(dir, "interval-*.csv")))
}

func TestFlushDueHonoursPolicies(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1_623_157_230, 0)
	c := New(Options{
		Source:   &sliceSource{},
		Files:    testFiles(dir),
		Policies: Policies{Weekly: schedule.NewPolicy(30, 5)},
		Now:      func() time.Time { return now },
	})

	c.handle(transport.Envelope{Sender: "test#1", Payload: payload(now.Unix(), 1, 100)})
	c.flushDue()
	assert.Equal(t, 1, countLines(t, filepath.Join(dir, "weekly-*.log")))

	// Still inside the grace period of the last flush, so nothing is written.
	c.handle(transport.Envelope{Sender: "test#1", Payload: payload(now.Unix()+30, 2, 100)})
	c.flushDue()
	assert.Equal(t, 1, c.engine.PendingWeekly())

	matches, _ := filepath.Glob(filepath.Join(dir, "details-*.csv"))
	assert.Empty(t, matches, "details has no policy")
}

func TestPoliciesFromConfig(t *testing.T) {
	cfg, err := config.Parse("[html_report]\nflush_period = 60\n")
	require.NoError(t, err)

	p := PoliciesFromConfig(cfg)
	assert.Equal(t, int64(60), p.Html.Period)
	assert.Equal(t, int64(15), p.Html.Grace)
	assert.Equal(t, int64(schedule.DetailPeriod), p.Details.Period)
	assert.Equal(t, DefaultMinBatches, MinBatchesFromConfig(cfg))
	assert.Equal(t, "p1-lastm.html", filepath.Base(FilesFromConfig(cfg).Html))
}

func TestFlushKeepsRecordsWhenDirectoryCannotBeCreated(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	files := testFiles(dir)
	files.Details = filepath.Join(blocker, "details-DAY.csv")
	files.Weekly = filepath.Join(blocker, "weekly-YYYY-Www.log")
	now := time.Unix(1_623_157_230, 0)
	c := New(Options{Source: &sliceSource{}, Files: files, Now: func() time.Time { return now }})

	c.handle(transport.Envelope{Sender: "test#1", Payload: payload(now.Unix(), 1, 100)})
	c.flushDetails(now)
	c.flushWeekly(now)
	assert.Equal(t, 1, c.engine.PendingDetails())
	assert.Equal(t, 1, c.engine.PendingWeekly())

	require.NoError(t, os.Remove(blocker))
	c.flushDetails(now)
	c.flushWeekly(now)
	assert.Equal(t, 0, c.engine.PendingDetails())
	assert.Equal(t, 0, c.engine.PendingWeekly())
	assert.Equal(t, 2+1, countLines(t, filepath.Join(blocker, "details-*.csv")))
	assert.Equal(t, 1, countLines(t, filepath.Join(blocker, "weekly-*.log")))
}

func TestExportDirectoriesAreNotExpanded(t *testing.T) {
	dir := t.TempDir()
	files := testFiles(dir)
	files.Html = filepath.Join(dir, "www", "html", "lastm.html")
	files.Details = filepath.Join(dir, "DAYTONA", "details-DAY.csv")
	now := time.Unix(1_623_157_230, 0)
	c := New(Options{Source: &sliceSource{}, Files: files, Now: func() time.Time { return now }})

	c.handle(transport.Envelope{Sender: "test#1", Payload: payload(now.Unix(), 1, 100)})
	c.flushHtml(now)
	c.flushDetails(now)

	assert.FileExists(t, files.Html)
	expected := filepath.Join(dir, "DAYTONA", "details-"+now.Format("20060102")+".csv")
	assert.FileExists(t, expected)
}
