package aggregator

import (
	"time"

	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRollingCapacity   = 120
	DefaultMeasurementPeriod = 30
	DefaultBatchWindow       = 300
	// Seconds after a window boundary during which a telegram still closes the window.
	DefaultBatchAlignSlack = 3
	// Minimum seconds between two aligned closes.
	DefaultBatchMinSpacing = 10
	// Frames that took longer than this to arrive are reported.
	SlowFrameMillis = 500
)

type SequenceKind uint8

const (
	InSequence SequenceKind = iota
	SequenceGap
	SenderChanged
)

func (k SequenceKind) String() string {
	switch k {
	case SequenceGap:
		return "SequenceGap"
	case SenderChanged:
		return "SenderChanged"
	}
	return "InSequence"
}

// SequenceEvent reports how a telegram's frame number relates to the previous one.
type SequenceEvent struct {
	Kind SequenceKind
	// Received minus expected frame number, only set for SequenceGap.
	Delta int64
}

// Config configures an Engine. Zero values fall back to the defaults above.
type Config struct {
	RollingCapacity   int
	MeasurementPeriod int64
	BatchWindow       int64
	Logger            logrus.FieldLogger
	Metrics           *metrics.Set
	// Receive time stamped on detail records. Defaults to time.Now.
	Now func() time.Time
}
