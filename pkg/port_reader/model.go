package port_reader

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("p1 port not connected")

const DefaultRetryDelay = 10 * time.Second

// Options configures a P1Reader.
type Options struct {
	// Serial device, or a regular file holding captured telegrams to replay.
	Device     string
	Baudrate   uint
	RetryDelay time.Duration
	Decoder    *telegram.Decoder
	Logger     logrus.FieldLogger
	Metrics    *metrics.Set
	// Replaces the device open, used by tests.
	Open func() (io.ReadCloser, error)
}

type P1Reader struct {
	opts          Options
	log           logrus.FieldLogger
	decoder       *telegram.Decoder
	replay        bool
	port          io.ReadCloser
	latestMessage *telegram.Message
	messageMutex  sync.RWMutex
}
