package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NotCoffee418/p1reader/pkg/esmutils"
)

var ErrUnitValue = errors.New("unparseable unit value")

// Unit is the suffix a meter puts behind a numeric value.
type Unit string

const (
	UnitNone Unit = ""
	UnitKW   Unit = "kW"
	UnitKWh  Unit = "kWh"
	UnitM3   Unit = "m3"
	UnitV    Unit = "V"
	UnitA    Unit = "A"
)

// DecodeValue converts a captured value into its canonical unit:
// kW/kWh/m3 become integer milli-units, volts a float, amps an integer.
// Anything without a known unit stays a string. On a parse failure the raw
// string is returned together with an error wrapping ErrUnitValue.
func DecodeValue(raw string) (Value, error) {
	number, _, _ := strings.Cut(raw, "*")
	switch {
	case strings.Contains(raw, "*m3"), strings.Contains(raw, "*kW"):
		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return StringValue(raw), fmt.Errorf("%w: %q: %v", ErrUnitValue, raw, err)
		}
		return IntValue(esmutils.ToMilli(f)), nil
	case strings.Contains(raw, "*V"):
		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return StringValue(raw), fmt.Errorf("%w: %q: %v", ErrUnitValue, raw, err)
		}
		return FloatValue(f), nil
	case strings.Contains(raw, "*A"):
		i, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return StringValue(raw), fmt.Errorf("%w: %q: %v", ErrUnitValue, raw, err)
		}
		return IntValue(i), nil
	}
	return StringValue(raw), nil
}

// EncodeValue renders v in the meter's notation for unit, the inverse of DecodeValue.
func EncodeValue(v Value, unit Unit) string {
	switch unit {
	case UnitKW:
		return fmt.Sprintf("%06.3f*kW", milliToUnit(v))
	case UnitKWh:
		return fmt.Sprintf("%010.3f*kWh", milliToUnit(v))
	case UnitM3:
		return fmt.Sprintf("%09.3f*m3", milliToUnit(v))
	case UnitV:
		f, _ := v.Float()
		return fmt.Sprintf("%05.1f*V", f)
	case UnitA:
		i, _ := v.Int()
		return fmt.Sprintf("%03d*A", i)
	}
	return v.String()
}

func milliToUnit(v Value) float64 {
	i, _ := v.Int()
	return esmutils.FromMilli(i)
}

// FormatField renders a single value line, e.g. 1-0:1.7.0(00.500*kW).
func FormatField(key string, v Value, unit Unit) string {
	return key + "(" + EncodeValue(v, unit) + ")"
}

// FormatPair renders a two value line, e.g. 0-1:24.2.1(210608130002S)(00006.135*m3).
func FormatPair(key string, v1 Value, u1 Unit, v2 Value, u2 Unit) string {
	return key + "(" + EncodeValue(v1, u1) + ")(" + EncodeValue(v2, u2) + ")"
}
