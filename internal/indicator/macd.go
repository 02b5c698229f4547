package indicator

// MACD computes the MACD line (EMA fast minus EMA slow), its signal
// line (EMA of the MACD line) and the histogram (line minus signal).
// The line is defined from the slow warm-up on; the signal needs a
// further signalPeriod-1 defined line values.
func MACD(closes []float64, fast, slow, signalPeriod int) (line, signal, hist []float64) {
	n := len(closes)
	line = undefinedSeries(n)
	signal = undefinedSeries(n)
	hist = undefinedSeries(n)
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 || n < slow {
		return line, signal, hist
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := slow - 1; i < n; i++ {
		line[i] = emaFast[i] - emaSlow[i]
	}

	// Signal line is an EMA over the defined portion of the MACD line.
	defined := line[slow-1:]
	sig := EMA(defined, signalPeriod)
	for i, v := range sig {
		if Defined(v) {
			signal[slow-1+i] = v
			hist[slow-1+i] = defined[i] - v
		}
	}
	return line, signal, hist
}
