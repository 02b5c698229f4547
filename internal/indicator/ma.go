package indicator

// SMA computes the simple moving average. The first period-1 positions
// are undefined.
func SMA(closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average seeded with the SMA of
// the first period values.
func EMA(closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += closes[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / float64(period+1)
	prev := seed
	for i := period; i < len(closes); i++ {
		prev = closes[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

// RollingMean averages an arbitrary series (e.g. volume) over a
// trailing window. Unlike SMA the input may contain undefined values:
// a window touching one is undefined, later clean windows recover.
func RollingMean(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		var sum float64
		defined := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				defined = false
				break
			}
			sum += values[j]
		}
		if defined {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RollingMin returns the lowest value over a trailing window.
func RollingMin(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		low := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < low {
				low = values[j]
			}
		}
		out[i] = low
	}
	return out
}

// RollingMax returns the highest value over a trailing window.
func RollingMax(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		high := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > high {
				high = values[j]
			}
		}
		out[i] = high
	}
	return out
}
