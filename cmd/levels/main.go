// Command levels prints support/resistance and Fibonacci retracement
// levels for one coin as JSON, for the presentation layer to render.
// Levels are derived on demand from the price history; nothing is
// persisted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/CryptoForecaster/config"
	"github.com/Alias1177/CryptoForecaster/internal/api/coingecko"
	"github.com/Alias1177/CryptoForecaster/internal/indicator"
	"github.com/Alias1177/CryptoForecaster/models"
)

type output struct {
	AssetID    string                  `json:"asset_id"`
	AsOf       time.Time               `json:"as_of"`
	LastClose  float64                 `json:"last_close"`
	Levels     []models.Level          `json:"levels"`
	Fibonacci  []models.FibonacciLevel `json:"fibonacci"`
	WindowDays int                     `json:"window_days"`
}

func main() {
	coin := flag.String("coin", "bitcoin", "coin id to analyze")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := coingecko.NewClient(coingecko.ClientOptions{
		BaseURL:        cfg.CoinGeckoBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	obs, err := client.MarketChart(ctx, *coin, cfg.Indicators.LevelWindow)
	if err != nil {
		log.Fatal().Err(err).Str("coin", *coin).Msg("Failed to fetch market data")
	}

	ind := cfg.Indicators
	last := obs[len(obs)-1]
	out := output{
		AssetID:    *coin,
		AsOf:       last.Timestamp,
		LastClose:  last.Close,
		Levels:     indicator.FindLevels(obs, ind.LevelWindow, ind.LevelNeighbors, ind.LevelTolerance),
		Fibonacci:  indicator.Fibonacci(obs, ind.LevelWindow),
		WindowDays: ind.LevelWindow,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
