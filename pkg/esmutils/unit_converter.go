package esmutils

// ToMilli converts kW, kWh or m3 into the integer milli-unit the meter resolves to.
// The fraction is truncated, not rounded, so 0.1699 kW stays 169 W.
func ToMilli(v float64) int64 {
	return int64(v * 1000)
}

func FromMilli(milli int64) float64 {
	return float64(milli) / 1000
}

// FloorTo returns t floored to a multiple of step seconds.
func FloorTo(t, step int64) int64 {
	if step <= 0 {
		return t
	}
	return t - mod(t, step)
}

// Mod is the non-negative remainder of t / step, matching clock arithmetic on epoch seconds.
func Mod(t, step int64) int64 {
	return mod(t, step)
}

func mod(t, step int64) int64 {
	r := t % step
	if r < 0 {
		r += step
	}
	return r
}
