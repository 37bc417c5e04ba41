package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set holds the counters shared by the producer and the collector. A nil *Set
// is valid and records nothing.
type Set struct {
	registry *prometheus.Registry

	framesDecoded    prometheus.Counter
	framesDiscarded  prometheus.Counter
	linesIgnored     *prometheus.CounterVec
	checksumMismatch prometheus.Counter
	readErrors       prometheus.Counter

	telegramsIngested prometheus.Counter
	sequenceGaps      prometheus.Counter
	senderChanges     prometheus.Counter
	payloadErrors     prometheus.Counter
	batchesClosed     prometheus.Counter
	flushes           *prometheus.CounterVec
	flushErrors       *prometheus.CounterVec
	published         *prometheus.CounterVec
}

func New() *Set {
	m := &Set{
		registry: prometheus.NewRegistry(),
		framesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_frames_decoded_total",
			Help: "Telegrams decoded from header to checksum line.",
		}),
		framesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_frames_discarded_total",
			Help: "Partial telegrams dropped because a new header arrived first.",
		}),
		linesIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p1_lines_ignored_total",
			Help: "Lines that matched no pattern, by decoder state.",
		}, []string{"state"}),
		checksumMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_checksum_mismatch_total",
			Help: "Telegrams whose CRC16 did not match the checksum line (report only).",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_read_errors_total",
			Help: "Failed reads from the P1 line source.",
		}),
		telegramsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_telegrams_ingested_total",
			Help: "Telegrams consumed by the aggregation engine.",
		}),
		sequenceGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_sequence_gaps_total",
			Help: "Frame number discontinuities seen by the collector.",
		}),
		senderChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_sender_changes_total",
			Help: "Times the collector started following a new producer.",
		}),
		payloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_payload_errors_total",
			Help: "Transport messages dropped because they failed to parse.",
		}),
		batchesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "p1_batches_closed_total",
			Help: "Periodic batch windows closed.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p1_flushes_total",
			Help: "Exporter flushes by exporter name.",
		}, []string{"exporter"}),
		flushErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p1_flush_errors_total",
			Help: "Exporter flushes that failed, by exporter name.",
		}, []string{"exporter"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "p1_messages_published_total",
			Help: "Messages handed to the transport, by transport kind.",
		}, []string{"transport"}),
	}

	m.registry.MustRegister(
		m.framesDecoded,
		m.framesDiscarded,
		m.linesIgnored,
		m.checksumMismatch,
		m.readErrors,
		m.telegramsIngested,
		m.sequenceGaps,
		m.senderChanges,
		m.payloadErrors,
		m.batchesClosed,
		m.flushes,
		m.flushErrors,
		m.published,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Set) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Set) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Set) FrameDecoded() {
	if m != nil {
		m.framesDecoded.Inc()
	}
}

func (m *Set) FrameDiscarded() {
	if m != nil {
		m.framesDiscarded.Inc()
	}
}

func (m *Set) LineIgnored(state string) {
	if m != nil {
		m.linesIgnored.WithLabelValues(state).Inc()
	}
}

func (m *Set) ChecksumMismatch() {
	if m != nil {
		m.checksumMismatch.Inc()
	}
}

func (m *Set) ReadError() {
	if m != nil {
		m.readErrors.Inc()
	}
}

func (m *Set) TelegramIngested() {
	if m != nil {
		m.telegramsIngested.Inc()
	}
}

func (m *Set) SequenceGap() {
	if m != nil {
		m.sequenceGaps.Inc()
	}
}

func (m *Set) SenderChanged() {
	if m != nil {
		m.senderChanges.Inc()
	}
}

func (m *Set) PayloadError() {
	if m != nil {
		m.payloadErrors.Inc()
	}
}

func (m *Set) BatchClosed() {
	if m != nil {
		m.batchesClosed.Inc()
	}
}

func (m *Set) Flushed(exporter string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.flushErrors.WithLabelValues(exporter).Inc()
		return
	}
	m.flushes.WithLabelValues(exporter).Inc()
}

func (m *Set) Published(transport string) {
	if m != nil {
		m.published.WithLabelValues(transport).Inc()
	}
}
