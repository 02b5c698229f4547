package indicator

import (
	"math"
	"sort"

	"github.com/Alias1177/CryptoForecaster/models"
)

var fibRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// FindLevels scans the trailing window of observations for local
// extrema (a point is an extremum when it is the max/min among
// neighbors positions on each side), clusters nearby extrema within
// tolerance (a fraction of price) and returns them as support and
// resistance levels relative to the last close. Strength counts the
// extrema absorbed into the cluster. Levels are recomputed on demand,
// never persisted.
func FindLevels(obs []models.PriceObservation, window, neighbors int, tolerance float64) []models.Level {
	if window > len(obs) {
		window = len(obs)
	}
	if window < 2*neighbors+1 || neighbors < 1 {
		return nil
	}
	tail := obs[len(obs)-window:]

	var supports, resistances []float64
	for i := neighbors; i < len(tail)-neighbors; i++ {
		isMin, isMax := true, true
		for j := i - neighbors; j <= i+neighbors; j++ {
			if j == i {
				continue
			}
			if tail[j].Close <= tail[i].Close {
				isMin = false
			}
			if tail[j].Close >= tail[i].Close {
				isMax = false
			}
		}
		if isMin {
			supports = append(supports, tail[i].Close)
		}
		if isMax {
			resistances = append(resistances, tail[i].Close)
		}
	}

	assetID := tail[len(tail)-1].AssetID
	currentPrice := tail[len(tail)-1].Close

	levels := clusterLevels(assetID, supports, models.LevelSupport, tolerance, window)
	levels = append(levels, clusterLevels(assetID, resistances, models.LevelResistance, tolerance, window)...)

	// Reclassify against the current price: a clustered minimum above the
	// last close acts as resistance, and vice versa.
	for i := range levels {
		if levels[i].Price < currentPrice {
			levels[i].Kind = models.LevelSupport
		} else {
			levels[i].Kind = models.LevelResistance
		}
	}

	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Strength != levels[j].Strength {
			return levels[i].Strength > levels[j].Strength
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}

// clusterLevels merges extrema lying within tolerance of each other
// into a single level priced at the cluster mean.
func clusterLevels(assetID string, prices []float64, kind models.LevelKind, tolerance float64, window int) []models.Level {
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)

	var out []models.Level
	start := 0
	for i := 1; i <= len(prices); i++ {
		if i < len(prices) && prices[i]-prices[start] <= prices[start]*tolerance {
			continue
		}
		cluster := prices[start:i]
		var sum float64
		for _, p := range cluster {
			sum += p
		}
		out = append(out, models.Level{
			AssetID:  assetID,
			Price:    sum / float64(len(cluster)),
			Kind:     kind,
			Strength: len(cluster),
			Window:   window,
		})
		start = i
	}
	return out
}

// Fibonacci computes retracement levels from the window's global
// high/low: price(ratio) = low + ratio*(high-low) for the standard
// ratio set.
func Fibonacci(obs []models.PriceObservation, window int) []models.FibonacciLevel {
	if len(obs) == 0 {
		return nil
	}
	if window > len(obs) {
		window = len(obs)
	}
	tail := obs[len(obs)-window:]

	low, high := math.Inf(1), math.Inf(-1)
	for _, o := range tail {
		if o.Close < low {
			low = o.Close
		}
		if o.Close > high {
			high = o.Close
		}
	}

	out := make([]models.FibonacciLevel, 0, len(fibRatios))
	for _, r := range fibRatios {
		out = append(out, models.FibonacciLevel{Ratio: r, Price: low + r*(high-low)})
	}
	return out
}
