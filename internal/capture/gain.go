package capture

import "math"

// Gain control mapping. The 0..100 control follows a square-law taper so
// the lower half of the travel is fine trim and the upper half the big
// boosts; control 50 lands on unity.
const (
	// GainControlMax is the top of the external control range.
	GainControlMax = 100.0

	// gainMin and gainMax bound the preamp multiplier. 4.0 is +12dB,
	// enough for a quiet source without swamping the limiter.
	gainMin = 0.0
	gainMax = 4.0

	// gainCurveExponent shapes control travel into multiplier.
	gainCurveExponent = 2.0

	// gainHighWaterMark is the recent-peak level above which the mapped
	// gain backs off.
	gainHighWaterMark = 0.9

	// gainBackoffFloor caps adaptive reduction at half the mapped gain.
	gainBackoffFloor = 0.5
)

// GainForControl maps a 0..100 control value to the preamp multiplier:
// monotone in control, never above gainMax, never negative. When the
// recent peak level rides above the high-water mark the mapped gain is
// pulled back linearly, down to gainBackoffFloor of itself at full
// scale, without moving the control value.
func GainForControl(control, recentPeak float64) float64 {
	v := clamp(control, 0, GainControlMax) / GainControlMax
	gain := gainMin + (gainMax-gainMin)*math.Pow(v, gainCurveExponent)

	if recentPeak > gainHighWaterMark {
		backoff := 1.0 - (recentPeak-gainHighWaterMark)/(1.0-gainHighWaterMark)*(1.0-gainBackoffFloor)
		gain *= clamp(backoff, gainBackoffFloor, 1.0)
	}
	return clamp(gain, gainMin, gainMax)
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
