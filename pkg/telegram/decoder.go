package telegram

import (
	"regexp"
	"strings"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/sirupsen/logrus"
)

var (
	oneValuePattern  = regexp.MustCompile(`(\d+-\d+:\d+\.\d+\.\d+)\(([^(]*?)\)$`)
	twoValuesPattern = regexp.MustCompile(`(\d+-\d+:\d+\.\d+\.\d+)\(([^(]*?)\)\(([^(]*?)\)$`)
)

// DecoderConfig configures a Decoder. Zero values are usable.
type DecoderConfig struct {
	Logger  logrus.FieldLogger
	Metrics *metrics.Set
	// Defaults to time.Now.
	Now func() time.Time
	// Compute the CRC16 of every frame and log a mismatch. Frames are never dropped.
	ReportChecksum bool
	// Stamped into every message so consumers can tell producers apart.
	SenderID string
}

// Decoder turns P1 lines into frame events. It is not safe for concurrent use.
type Decoder struct {
	cfg      DecoderConfig
	log      logrus.FieldLogger
	now      func() time.Time
	state    FrameState
	sequence int64
	start    time.Time
	current  *Message
	body     strings.Builder
}

func NewDecoder(cfg DecoderConfig) *Decoder {
	d := &Decoder{cfg: cfg, log: cfg.Logger, now: cfg.Now}
	if d.log == nil {
		d.log = logging.Discard()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Decoder) State() FrameState { return d.state }

// Sequence is the frame number handed to the most recent header.
func (d *Decoder) Sequence() int64 { return d.sequence }

// DecodeLine feeds one line (with or without its line terminator) to the
// state machine.
func (d *Decoder) DecodeLine(line string) Event {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "/") {
		return d.startFrame(line)
	}

	if d.state == Idle {
		if line != "" {
			d.log.WithField("line", line).Warn("Unexpected line outside of a telegram")
		}
		d.cfg.Metrics.LineIgnored(Idle.String())
		return Event{Kind: Ignored}
	}

	d.writeBody(line)

	if strings.HasPrefix(line, "!") && len(line) == 5 {
		return d.endFrame(line[1:])
	}

	if m := oneValuePattern.FindStringSubmatch(line); m != nil {
		value := d.decodeValue(m[1], m[2])
		d.current.Telegram.Fields[m[1]] = value
		return Event{Kind: FieldDecoded, Key: m[1], Value: value}
	}

	if m := twoValuesPattern.FindStringSubmatch(line); m != nil {
		v1 := d.decodeValue(m[1], m[2])
		v2 := d.decodeValue(m[1], m[3])
		d.current.Telegram.Fields[m[1]+".A"] = v1
		d.current.Telegram.Fields[m[1]+".B"] = v2
		return Event{Kind: FieldPairDecoded, Key: m[1], Value: v1, Value2: v2}
	}

	if line != "" {
		d.log.WithField("line", line).Debug("Line matches no OBIS pattern, ignored")
	}
	d.cfg.Metrics.LineIgnored(InFrame.String())
	return Event{Kind: Ignored}
}

func (d *Decoder) startFrame(header string) Event {
	discarded := d.state == InFrame
	if discarded {
		d.log.WithFields(logrus.Fields{
			"frame":  d.sequence,
			"fields": len(d.current.Telegram.Fields),
		}).Warn("Header received before checksum line, discarding partial telegram")
		d.cfg.Metrics.FrameDiscarded()
	}

	d.sequence++
	d.state = InFrame
	d.start = d.now()
	d.current = &Message{
		Meta: Meta{
			FrameStartTime: epochSeconds(d.start),
			FrameNumber:    d.sequence,
			SenderID:       d.cfg.SenderID,
		},
		Telegram: NewTelegram(),
	}
	d.current.Telegram.Header = header
	d.body.Reset()
	d.writeBody(header)

	return Event{Kind: FrameStart, Header: header, Discarded: discarded}
}

func (d *Decoder) endFrame(checksum string) Event {
	end := d.now()
	msg := d.current
	msg.Telegram.Checksum = checksum
	msg.Meta.FrameEndTime = epochSeconds(end)
	msg.Meta.FrameTimeDuration = end.Sub(d.start).Milliseconds()

	if d.cfg.ReportChecksum {
		// The CRC covers everything up to and including the '!'.
		body := strings.TrimSuffix(d.body.String(), checksum+"\r\n")
		if !VerifyChecksum(body, checksum) {
			d.log.WithFields(logrus.Fields{
				"frame":    msg.Meta.FrameNumber,
				"checksum": checksum,
				"computed": ComputeChecksum(body),
			}).Warn("Telegram checksum mismatch")
			d.cfg.Metrics.ChecksumMismatch()
		}
	}

	d.state = Idle
	d.current = nil
	d.body.Reset()
	d.cfg.Metrics.FrameDecoded()

	return Event{Kind: FrameEnd, Checksum: checksum, Message: msg}
}

func (d *Decoder) decodeValue(key, raw string) Value {
	value, err := DecodeValue(raw)
	if err != nil {
		d.log.WithField("key", key).WithError(err).Warn("Keeping raw value")
	}
	return value
}

func (d *Decoder) writeBody(line string) {
	if d.cfg.ReportChecksum {
		d.body.WriteString(line)
		d.body.WriteString("\r\n")
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
