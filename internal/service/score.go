package service

import "math"

// sensorFullScale is the potentiometer reading the sensor reports at the
// worst measurable posture. The encoding is inverted: higher raw values mean
// worse posture.
const sensorFullScale = 8190.0

// Score maps a raw sensor value to a bounded percentage. The result is
// always an integer in [0,100]: out-of-range inputs clamp, and a NaN raw
// value falls back to 0 (scoring 100, the defensive default for missing
// data).
func Score(rawValue float64) int {
	if math.IsNaN(rawValue) {
		rawValue = 0
	}
	normalized := ((sensorFullScale - rawValue) / sensorFullScale) * 100.0
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 100 {
		normalized = 100
	}
	return int(math.Round(normalized))
}
