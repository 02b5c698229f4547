// Package feature assembles per-timestamp feature vectors from raw
// price observations and indicator outputs. Every feature at timestamp
// t is computed from observations at or before t; labels are the
// realized close at t+horizon, matched by exact date so calendar gaps
// never mislabel a row.
package feature

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Alias1177/CryptoForecaster/internal/indicator"
	"github.com/Alias1177/CryptoForecaster/models"
)

// ErrInsufficientHistory means the series is too short for every
// configured indicator to produce a defined value at the requested
// position. Recoverable: wait for more observations.
var ErrInsufficientHistory = errors.New("insufficient history")

const trendThreshold = 0.05 // 7-day move that counts as a trend

// Builder computes feature vectors under one immutable indicator
// configuration.
type Builder struct {
	cfg models.IndicatorConfig
}

func NewBuilder(cfg models.IndicatorConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Config returns the indicator configuration the builder was created
// with.
func (b *Builder) Config() models.IndicatorConfig {
	return b.cfg
}

// Build produces one FeatureVector per observation in a single forward
// pass. Warm-up positions carry NaN feature values; callers filter with
// TrainingRows or LatestEligible. Targets are filled for every horizon
// whose future observation exists in the input.
func (b *Builder) Build(obs []models.PriceObservation, horizons []int) ([]models.FeatureVector, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("build features: %w", ErrInsufficientHistory)
	}
	if err := validateSeries(obs); err != nil {
		return nil, err
	}

	n := len(obs)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, o := range obs {
		closes[i] = o.Close
		volumes[i] = o.Volume
	}

	series := b.indicatorSeries(closes, volumes)

	// Index closes by day for exact-date label lookup.
	byDate := make(map[time.Time]float64, n)
	for _, o := range obs {
		byDate[day(o.Timestamp)] = o.Close
	}

	out := make([]models.FeatureVector, n)
	for i, o := range obs {
		features := make(map[string]float64, len(series))
		for name, s := range series {
			features[name] = s[i]
		}

		targets := make(map[int]float64, len(horizons))
		for _, h := range horizons {
			if future, ok := byDate[day(o.Timestamp).AddDate(0, 0, h)]; ok {
				targets[h] = future
			}
		}

		out[i] = models.FeatureVector{
			AssetID:   o.AssetID,
			Timestamp: o.Timestamp,
			Close:     o.Close,
			Features:  features,
			Targets:   targets,
		}
	}
	return out, nil
}

// indicatorSeries computes every configured indicator over the full
// series once.
func (b *Builder) indicatorSeries(closes, volumes []float64) map[string][]float64 {
	cfg := b.cfg
	series := make(map[string][]float64)

	series["price_1d_ago"] = indicator.Lag(closes, 1)
	series["price_7d_ago"] = indicator.Lag(closes, 7)
	series["price_30d_ago"] = indicator.Lag(closes, 30)

	for _, p := range cfg.SMAPeriods {
		series[fmt.Sprintf("sma_%d", p)] = indicator.SMA(closes, p)
	}
	series[fmt.Sprintf("rsi_%d", cfg.RSIPeriod)] = indicator.RSI(closes, cfg.RSIPeriod)

	macd, signal, hist := indicator.MACD(closes, cfg.EMAFastPeriod, cfg.EMASlowPeriod, cfg.MACDSignalPeriod)
	series["macd"] = macd
	series["macd_signal"] = signal
	series["macd_signal_strength"] = absSeries(hist)

	upper, _, lower := indicator.BollingerBands(closes, cfg.BBPeriod, cfg.BBStdDev)
	series["bb_upper"] = upper
	series["bb_lower"] = lower

	k := indicator.StochasticK(closes, cfg.StochPeriod)
	series["stoch_k"] = k
	series["stoch_d"] = indicator.StochasticD(k, cfg.StochSmooth)
	series["williams_r"] = indicator.WilliamsR(closes, cfg.WilliamsRPeriod)

	for _, w := range cfg.VolatilityWindows {
		series[fmt.Sprintf("volatility_%d", w)] = indicator.RollingVolatility(closes, w, cfg.AnnualizationDays)
	}

	series["volume_avg_7d"] = indicator.RollingMean(volumes, 7)
	series["volume_avg_30d"] = indicator.RollingMean(volumes, 30)

	series["support_level"] = indicator.RollingMin(closes, 30)
	series["resistance_level"] = indicator.RollingMax(closes, 30)
	series["trend_direction"] = trendDirection(closes, 7)

	return series
}

// FeatureNames returns the schema in a stable order so vectors always
// map onto the same matrix columns.
func (b *Builder) FeatureNames() []string {
	series := b.indicatorSeries(make([]float64, 1), make([]float64, 1))
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TrainingRows filters vectors down to supervised rows for one
// horizon: every feature defined and the label present. No imputation;
// warm-up rows are dropped entirely.
func TrainingRows(vectors []models.FeatureVector, horizon int) []models.FeatureVector {
	out := make([]models.FeatureVector, 0, len(vectors))
	for _, v := range vectors {
		if _, ok := v.Targets[horizon]; !ok {
			continue
		}
		if fullyDefined(v) {
			out = append(out, v)
		}
	}
	return out
}

// LatestEligible returns the newest vector when all of its features
// are defined, or ErrInsufficientHistory when the series has not
// warmed up yet.
func LatestEligible(vectors []models.FeatureVector) (models.FeatureVector, error) {
	if len(vectors) == 0 {
		return models.FeatureVector{}, fmt.Errorf("no feature rows: %w", ErrInsufficientHistory)
	}
	last := vectors[len(vectors)-1]
	if !fullyDefined(last) {
		return models.FeatureVector{}, fmt.Errorf("latest row has undefined features: %w", ErrInsufficientHistory)
	}
	return last, nil
}

// Vectorize maps a feature vector onto matrix columns in names order.
func Vectorize(v models.FeatureVector, names []string) []float64 {
	row := make([]float64, len(names))
	for i, name := range names {
		row[i] = v.Features[name]
	}
	return row
}

func fullyDefined(v models.FeatureVector) bool {
	for _, val := range v.Features {
		if !indicator.Defined(val) {
			return false
		}
	}
	return true
}

func validateSeries(obs []models.PriceObservation) error {
	for i := 1; i < len(obs); i++ {
		if !obs[i].Timestamp.After(obs[i-1].Timestamp) {
			return fmt.Errorf("observations out of order at %s", obs[i].Timestamp.Format("2006-01-02"))
		}
	}
	return nil
}

func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func absSeries(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if v < 0 {
			v = -v
		}
		out[i] = v
	}
	return out
}

// trendDirection labels each position +1/-1/0 by the percent move over
// the trailing lookback days.
func trendDirection(closes []float64, lookback int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if i < lookback || closes[i-lookback] == 0 {
			out[i] = indicator.Undefined
			continue
		}
		change := (closes[i] - closes[i-lookback]) / closes[i-lookback]
		switch {
		case change > trendThreshold:
			out[i] = 1
		case change < -trendThreshold:
			out[i] = -1
		default:
			out[i] = 0
		}
	}
	return out
}
