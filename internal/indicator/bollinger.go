package indicator

import "math"

// BollingerBands computes the middle band (SMA) plus upper and lower
// bands at stdDev population standard deviations. A flat window
// collapses all three bands onto the mean.
func BollingerBands(closes []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	n := len(closes)
	upper = undefinedSeries(n)
	middle = undefinedSeries(n)
	lower = undefinedSeries(n)
	if period <= 0 || n < period {
		return upper, middle, lower
	}

	middle = SMA(closes, period)
	for i := period - 1; i < n; i++ {
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + sd*stdDev
		lower[i] = middle[i] - sd*stdDev
	}
	return upper, middle, lower
}

// RollingVolatility computes the standard deviation of daily returns
// over a trailing window, scaled by sqrt(annualizationDays). Pass
// annualizationDays = 1 for raw window volatility.
func RollingVolatility(closes []float64, window, annualizationDays int) []float64 {
	out := undefinedSeries(len(closes))
	if window <= 1 || len(closes) < window+1 {
		return out
	}

	rets := Returns(closes)
	factor := math.Sqrt(float64(annualizationDays))
	for i := window; i < len(closes); i++ {
		var sum float64
		count := 0
		for j := i - window + 1; j <= i; j++ {
			if !Defined(rets[j]) {
				count = -1
				break
			}
			sum += rets[j]
			count++
		}
		if count != window {
			continue
		}
		mean := sum / float64(window)
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := rets[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance/float64(window)) * factor
	}
	return out
}
