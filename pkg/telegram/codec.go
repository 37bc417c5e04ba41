package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrPayload marks a transport payload that could not be turned into a Message.
var ErrPayload = errors.New("invalid telegram payload")

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("%w: %v has no JSON form", ErrPayload, v.f)
		}
		return []byte(formatFloat(v.f)), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON keeps integers, floats and strings apart: a number with a
// fraction or exponent is a float, any other number an integer.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		return fmt.Errorf("%w: empty value", ErrPayload)
	case bytes.Equal(b, []byte("null")):
		*v = StringValue("")
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}

	text := string(b)
	if !bytes.ContainsAny(b, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			*v = IntValue(i)
			return nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("%w: value %s: %v", ErrPayload, text, err)
	}
	*v = FloatValue(f)
	return nil
}

// The wire form is a flat object: the OBIS fields plus "header" and "checksum".
func (t *Telegram) MarshalJSON() ([]byte, error) {
	flat := make(map[string]Value, len(t.Fields)+2)
	for k, v := range t.Fields {
		flat[k] = v
	}
	flat[KeyHeaderField] = StringValue(t.Header)
	flat[KeyChecksumField] = StringValue(t.Checksum)
	return json.Marshal(flat)
}

func (t *Telegram) UnmarshalJSON(b []byte) error {
	flat := map[string]Value{}
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	t.Header = flat[KeyHeaderField].String()
	t.Checksum = flat[KeyChecksumField].String()
	delete(flat, KeyHeaderField)
	delete(flat, KeyChecksumField)
	t.Fields = flat
	return nil
}

func (m *Message) ToJsonBytes() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJsonBytes parses a transport payload. Errors wrap ErrPayload.
func MessageFromJsonBytes(data []byte) (*Message, error) {
	msg := &Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if msg.Telegram == nil {
		return nil, fmt.Errorf("%w: missing telegram", ErrPayload)
	}
	return msg, nil
}
