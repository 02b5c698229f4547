package models

import (
	"fmt"
	"strings"
)

// IndicatorConfig bundles every lookback period the indicator library
// and feature builder share. It is fixed at construction; changing any
// period changes the feature schema, which invalidates previously
// trained models.
type IndicatorConfig struct {
	SMAPeriods        []int   `json:"sma_periods"`
	EMAFastPeriod     int     `json:"ema_fast_period"`
	EMASlowPeriod     int     `json:"ema_slow_period"`
	MACDSignalPeriod  int     `json:"macd_signal_period"`
	RSIPeriod         int     `json:"rsi_period"`
	BBPeriod          int     `json:"bb_period"`
	BBStdDev          float64 `json:"bb_std_dev"`
	StochPeriod       int     `json:"stoch_period"`
	StochSmooth       int     `json:"stoch_smooth"`
	WilliamsRPeriod   int     `json:"williams_r_period"`
	VolatilityWindows []int   `json:"volatility_windows"`
	AnnualizationDays int     `json:"annualization_days"`
	LevelWindow       int     `json:"level_window"`    // observations scanned for levels
	LevelNeighbors    int     `json:"level_neighbors"` // extremum comparison span per side
	LevelTolerance    float64 `json:"level_tolerance"` // cluster tolerance, fraction of price
}

// DefaultIndicatorConfig mirrors the warehouse defaults: SMA 7/14/30,
// RSI 14, MACD 12/26/9, Bollinger 20/2, Stochastic 14/3, Williams 14,
// volatility over 7 and 30 days annualized on a 365-day year.
func DefaultIndicatorConfig() IndicatorConfig {
	return IndicatorConfig{
		SMAPeriods:        []int{7, 14, 30},
		EMAFastPeriod:     12,
		EMASlowPeriod:     26,
		MACDSignalPeriod:  9,
		RSIPeriod:         14,
		BBPeriod:          20,
		BBStdDev:          2.0,
		StochPeriod:       14,
		StochSmooth:       3,
		WilliamsRPeriod:   14,
		VolatilityWindows: []int{7, 30},
		AnnualizationDays: 365,
		LevelWindow:       120,
		LevelNeighbors:    2,
		LevelTolerance:    0.015,
	}
}

// Fingerprint returns a stable string identifying the feature schema
// this config produces. A stored model trained under a different
// fingerprint must not be fed vectors built under this one.
func (c IndicatorConfig) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sma=%v;ema=%d/%d;sig=%d;rsi=%d;bb=%d/%.2f;stoch=%d/%d;wr=%d;vol=%v;ann=%d",
		c.SMAPeriods, c.EMAFastPeriod, c.EMASlowPeriod, c.MACDSignalPeriod,
		c.RSIPeriod, c.BBPeriod, c.BBStdDev, c.StochPeriod, c.StochSmooth,
		c.WilliamsRPeriod, c.VolatilityWindows, c.AnnualizationDays)
	return b.String()
}

// MaxWarmup is the longest leading stretch any configured indicator
// needs before producing a defined value.
func (c IndicatorConfig) MaxWarmup() int {
	warmup := c.EMASlowPeriod + c.MACDSignalPeriod - 1 // MACD signal line
	candidates := []int{c.RSIPeriod + 1, c.BBPeriod, c.StochPeriod + c.StochSmooth - 1, c.WilliamsRPeriod}
	candidates = append(candidates, c.SMAPeriods...)
	for _, w := range c.VolatilityWindows {
		candidates = append(candidates, w+1)
	}
	for _, v := range candidates {
		if v > warmup {
			warmup = v
		}
	}
	return warmup
}
