package indicator

// SMA returns the arithmetic mean of the last n elements. There is no
// relaxed mode: with fewer than n elements it reports ok=false and callers
// must not trigger on the zero value.
func SMA(series []float64, n int) (float64, bool) {
	if n <= 0 || len(series) < n {
		return 0, false
	}
	var sum float64
	for _, v := range series[len(series)-n:] {
		sum += v
	}
	return sum / float64(n), true
}
