// Package indicator computes technical indicators over ordered daily
// price series. Every function returns a series of the same length as
// its input with warm-up positions set to NaN; a series shorter than an
// indicator's minimum window comes back all-NaN rather than erroring.
package indicator

import "math"

// Undefined marks positions without enough preceding history.
var Undefined = math.NaN()

// Defined reports whether a value carries an actual indicator reading.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// LastDefined returns the newest defined value in the series, or
// Undefined when no position is defined.
func LastDefined(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if Defined(series[i]) {
			return series[i]
		}
	}
	return Undefined
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Undefined
	}
	return out
}

// Returns computes simple day-over-day returns. Position 0 is undefined.
func Returns(closes []float64) []float64 {
	out := undefinedSeries(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return out
}

// Lag shifts the series forward by n positions. The first n entries are
// undefined.
func Lag(series []float64, n int) []float64 {
	out := undefinedSeries(len(series))
	for i := n; i < len(series); i++ {
		out[i] = series[i-n]
	}
	return out
}
