package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearSeries(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func flatSeries(n int, value float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func assertAllUndefined(t *testing.T, series []float64) {
	t.Helper()
	for i, v := range series {
		assert.False(t, Defined(v), "position %d should be undefined, got %v", i, v)
	}
}

func TestShortSeriesAllUndefined(t *testing.T) {
	closes := linearSeries(5, 100, 1)

	tests := []struct {
		name   string
		series []float64
	}{
		{"sma", SMA(closes, 7)},
		{"ema", EMA(closes, 7)},
		{"rsi", RSI(closes, 14)},
		{"williams_r", WilliamsR(closes, 14)},
		{"stochastic_k", StochasticK(closes, 14)},
		{"volatility", RollingVolatility(closes, 7, 365)},
		{"rolling_min", RollingMin(closes, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.series, len(closes))
			assertAllUndefined(t, tt.series)
		})
	}

	macd, signal, hist := MACD(closes, 12, 26, 9)
	assertAllUndefined(t, macd)
	assertAllUndefined(t, signal)
	assertAllUndefined(t, hist)
}

func TestSMAWarmupAndValues(t *testing.T) {
	// 40 daily closes 100..139.
	closes := linearSeries(40, 100, 1)
	sma := SMA(closes, 7)

	for i := 0; i < 6; i++ {
		assert.False(t, Defined(sma[i]), "warm-up position %d", i)
	}
	// Mean of the last 7 values 133..139.
	assert.InDelta(t, 136.0, sma[39], 1e-9)
	// Mean of the first 7 values 100..106.
	assert.InDelta(t, 103.0, sma[6], 1e-9)
}

func TestEMASeedMatchesSMA(t *testing.T) {
	closes := linearSeries(30, 50, 2)
	ema := EMA(closes, 10)
	sma := SMA(closes, 10)

	for i := 0; i < 9; i++ {
		assert.False(t, Defined(ema[i]))
	}
	assert.InDelta(t, sma[9], ema[9], 1e-9)
	assert.True(t, Defined(ema[29]))
}

func TestRSIBounds(t *testing.T) {
	// Oscillating series keeps both gains and losses in the window.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i%5) - float64(i%3)
	}
	rsi := RSI(closes, 14)
	for i := 14; i < len(rsi); i++ {
		require.True(t, Defined(rsi[i]), "position %d", i)
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestRSIStrongUptrend(t *testing.T) {
	// 40 observations of a linearly increasing price: no losses in the
	// window, RSI pins at 100 and definitely exceeds 70.
	closes := linearSeries(40, 100, 1)
	rsi := RSI(closes, 14)
	assert.True(t, Defined(rsi[39]))
	assert.Greater(t, rsi[39], 70.0)
	assert.InDelta(t, 100.0, rsi[39], 1e-9)
}

func TestFlatSeriesDegeneracies(t *testing.T) {
	closes := flatSeries(10, 100)

	// RSI: zero average loss means 100, not a division by zero.
	rsi := RSI(closes, 5)
	assert.InDelta(t, 100.0, rsi[9], 1e-9)

	// Bollinger bands collapse onto the mean.
	upper, middle, lower := BollingerBands(closes, 5, 2)
	assert.InDelta(t, 100.0, upper[9], 1e-9)
	assert.InDelta(t, 100.0, middle[9], 1e-9)
	assert.InDelta(t, 100.0, lower[9], 1e-9)

	// Zero-range windows clamp instead of dividing by zero.
	k := StochasticK(closes, 5)
	assert.InDelta(t, 50.0, k[9], 1e-9)
	wr := WilliamsR(closes, 5)
	assert.InDelta(t, -50.0, wr[9], 1e-9)
}

func TestBollingerBandOrdering(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 200 + float64((i*37)%23) - float64((i*13)%11)
	}
	upper, middle, lower := BollingerBands(closes, 20, 2)
	for i := 19; i < len(closes); i++ {
		require.True(t, Defined(middle[i]))
		assert.GreaterOrEqual(t, upper[i], middle[i], "position %d", i)
		assert.GreaterOrEqual(t, middle[i], lower[i], "position %d", i)
	}
}

func TestMACDHistogram(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5 + float64(i%7)
	}
	line, signal, hist := MACD(closes, 12, 26, 9)

	for i := 0; i < 25; i++ {
		assert.False(t, Defined(line[i]), "line warm-up %d", i)
	}
	assert.True(t, Defined(line[25]))
	// Signal needs 9 defined line values.
	assert.False(t, Defined(signal[32]))
	assert.True(t, Defined(signal[33]))
	for i := 33; i < len(closes); i++ {
		assert.InDelta(t, line[i]-signal[i], hist[i], 1e-9, "position %d", i)
	}
}

func TestStochasticDSmoothsK(t *testing.T) {
	closes := linearSeries(30, 100, 1)
	k := StochasticK(closes, 14)
	d := StochasticD(k, 3)

	assert.False(t, Defined(d[14]))
	assert.True(t, Defined(d[15]))
	// In a monotone ramp every %K is 100, so %D is too.
	assert.InDelta(t, 100.0, d[29], 1e-9)
}

func TestRollingVolatilityFlatIsZero(t *testing.T) {
	vol := RollingVolatility(flatSeries(20, 100), 7, 365)
	assert.True(t, Defined(vol[19]))
	assert.InDelta(t, 0.0, vol[19], 1e-12)
}

func TestRollingMeanRecoversAfterGap(t *testing.T) {
	// Volume series can carry gaps; a window touching one is
	// undefined but a later clean window must recover.
	values := flatSeries(10, 50)
	values[3] = Undefined

	mean := RollingMean(values, 3)
	assert.False(t, Defined(mean[1]))
	assert.InDelta(t, 50.0, mean[2], 1e-12)
	for i := 3; i <= 5; i++ {
		assert.False(t, Defined(mean[i]), "window %d touches the gap", i)
	}
	assert.InDelta(t, 50.0, mean[6], 1e-12)
	assert.InDelta(t, 50.0, mean[9], 1e-12)
}

func TestLagAndReturns(t *testing.T) {
	closes := []float64{100, 110, 121}
	lag := Lag(closes, 1)
	assert.False(t, Defined(lag[0]))
	assert.Equal(t, 100.0, lag[1])
	assert.Equal(t, 110.0, lag[2])

	rets := Returns(closes)
	assert.False(t, Defined(rets[0]))
	assert.InDelta(t, 0.10, rets[1], 1e-9)
	assert.InDelta(t, 0.10, rets[2], 1e-9)
}
