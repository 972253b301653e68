package indicator

// MACD returns the MACD line (fast EMA minus slow EMA), the signal line
// (EMA of the MACD line) and the histogram (line minus signal). With fewer
// than slow+signal points it returns all zeros, a no-op sentinel rather
// than a real zero-cross.
func MACD(series []float64, fast, slow, signal int) (line, sig, hist float64) {
	if len(series) < slow+signal {
		return 0, 0, 0
	}

	line = EMA(series, fast) - EMA(series, slow)

	// Signal line needs the MACD value at each bar, so rebuild the line
	// over expanding windows.
	history := make([]float64, 0, len(series)-slow+1)
	for i := slow - 1; i < len(series); i++ {
		window := series[:i+1]
		history = append(history, EMA(window, fast)-EMA(window, slow))
	}
	if len(history) >= signal {
		sig = EMA(history, signal)
	}

	return line, sig, line - sig
}
