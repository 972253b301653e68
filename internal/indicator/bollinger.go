package indicator

import "math"

// Bollinger returns the upper, middle and lower band over the trailing
// window: mean plus/minus k population standard deviations. With fewer than
// period points all three collapse onto the last value; a collapsed band
// sits exactly on the close, so callers must length-guard before comparing
// against a band edge.
func Bollinger(series []float64, period int, k float64) (upper, middle, lower float64) {
	if len(series) == 0 {
		return 0, 0, 0
	}
	if period <= 0 || len(series) < period {
		last := series[len(series)-1]
		return last, last, last
	}

	window := series[len(series)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	middle = sum / float64(period)

	var variance float64
	for _, v := range window {
		variance += (v - middle) * (v - middle)
	}
	sd := math.Sqrt(variance / float64(period))

	return middle + sd*k, middle, middle - sd*k
}
