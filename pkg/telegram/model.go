package telegram

import (
	"strconv"
	"strings"
)

type ValueKind uint8

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
)

// Value is one decoded field. Numbers and strings are kept apart so that a gas
// capture time like 210608130002S never turns into a number.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNumber() bool { return v.kind != KindString }

func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		return int64(v.f), true
	}
	return 0, false
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// String renders the value the way it appears in the exports.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	}
	return v.s
}

// formatFloat always keeps a decimal point so the value reads back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Telegram is one complete frame: header line through checksum line.
type Telegram struct {
	Header   string
	Checksum string
	Fields   map[string]Value
}

func NewTelegram() *Telegram {
	return &Telegram{Fields: make(map[string]Value)}
}

func (t *Telegram) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.Fields[key]
	return v, ok
}

// IntOr returns the integer value of key, or def when the key is absent or not numeric.
func (t *Telegram) IntOr(key string, def int64) int64 {
	v, ok := t.Get(key)
	if !ok {
		return def
	}
	if i, ok := v.Int(); ok {
		return i
	}
	return def
}

// Meta describes how and when the frame was read.
type Meta struct {
	FrameStartTime    float64 `json:"frame-start-time"`
	FrameEndTime      float64 `json:"frame-end-time"`
	FrameTimeDuration int64   `json:"frame-time-duration"`
	FrameNumber       int64   `json:"frame-number"`
	// Identifies the producing process; empty for producers that do not send it.
	SenderID string `json:"sender-id,omitempty"`
}

// Time returns the whole second the frame started in.
func (m Meta) Time() int64 {
	return int64(m.FrameStartTime)
}

// Message is the unit carried by the transport.
type Message struct {
	Meta     Meta      `json:"meta"`
	Telegram *Telegram `json:"telegram"`
}

type FrameState uint8

const (
	Idle FrameState = iota
	InFrame
)

func (s FrameState) String() string {
	if s == InFrame {
		return "in_frame"
	}
	return "idle"
}

type EventKind uint8

const (
	Ignored EventKind = iota
	FrameStart
	FieldDecoded
	FieldPairDecoded
	FrameEnd
)

func (k EventKind) String() string {
	switch k {
	case FrameStart:
		return "FrameStart"
	case FieldDecoded:
		return "FieldDecoded"
	case FieldPairDecoded:
		return "FieldPairDecoded"
	case FrameEnd:
		return "FrameEnd"
	}
	return "Ignored"
}

// Event is the result of decoding one line.
type Event struct {
	Kind EventKind
	// OBIS code of a decoded field; pairs are stored as Key.A and Key.B.
	Key    string
	Value  Value
	Value2 Value
	// Header line for FrameStart, checksum for FrameEnd.
	Header   string
	Checksum string
	// Set on FrameStart when a partial frame was thrown away.
	Discarded bool
	// Completed message on FrameEnd.
	Message *Message
}
