package indicator

// StochasticK computes %K = 100 * (close - lowest low) / (highest high
// - lowest low) over the trailing window. Daily close series stand in
// for high/low since the warehouse records one observation per day.
// A flat window (zero range) clamps to 50.
func StochasticK(closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	lows := RollingMin(closes, period)
	highs := RollingMax(closes, period)
	for i := period - 1; i < len(closes); i++ {
		spread := highs[i] - lows[i]
		if spread > 0 {
			out[i] = (closes[i] - lows[i]) / spread * 100
		} else {
			out[i] = 50.0
		}
	}
	return out
}

// StochasticD smooths %K with an SMA of smooth periods.
func StochasticD(k []float64, smooth int) []float64 {
	out := undefinedSeries(len(k))
	if smooth <= 0 {
		return out
	}
	// Smooth only the defined tail so warm-up NaNs do not poison the mean.
	start := len(k)
	for i, v := range k {
		if Defined(v) {
			start = i
			break
		}
	}
	if len(k)-start < smooth {
		return out
	}
	smoothed := SMA(k[start:], smooth)
	for i, v := range smoothed {
		out[start+i] = v
	}
	return out
}

// WilliamsR computes %R = -100 * (highest high - close) / (highest
// high - lowest low), clamping a zero-range window to -50.
func WilliamsR(closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	lows := RollingMin(closes, period)
	highs := RollingMax(closes, period)
	for i := period - 1; i < len(closes); i++ {
		spread := highs[i] - lows[i]
		if spread > 0 {
			out[i] = -100 * (highs[i] - closes[i]) / spread
		} else {
			out[i] = -50.0
		}
	}
	return out
}
