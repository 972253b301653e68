// Package indicator holds the pure numeric functions the detectors are
// built from. Every function is deterministic over its inputs and returns a
// documented sentinel instead of failing when the series is too short:
// callers treat sentinels as "insufficient data, do not trigger".
package indicator

// EMA computes an exponential moving average seeded with the simple average
// of the first period elements, smoothing factor 2/(period+1). The caller
// supplies exactly the trailing window meant to affect the result. Returns 0
// on an empty series and the last value when the series is shorter than the
// period.
func EMA(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	if period <= 0 || len(series) < period {
		return series[len(series)-1]
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += series[i]
	}
	ema := sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(series); i++ {
		ema = (series[i]-ema)*k + ema
	}
	return ema
}
