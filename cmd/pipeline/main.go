package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/CryptoForecaster/config"
	"github.com/Alias1177/CryptoForecaster/internal/api/coingecko"
	"github.com/Alias1177/CryptoForecaster/internal/feature"
	"github.com/Alias1177/CryptoForecaster/internal/forecast"
	"github.com/Alias1177/CryptoForecaster/internal/ml"
	"github.com/Alias1177/CryptoForecaster/internal/store"
	"github.com/Alias1177/CryptoForecaster/models"
)

// collectMeta pulls the persistable records out of a fitted ensemble.
func collectMeta(fitted []*ml.FittedModel) []models.TrainedModel {
	out := make([]models.TrainedModel, 0, len(fitted))
	for _, m := range fitted {
		out = append(out, m.Meta)
	}
	return out
}

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Strs("coins", cfg.Coins).Ints("horizons", cfg.Horizons).Msg("Starting forecast pipeline")

	// 3. Connect storage
	db, err := store.New(store.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// 4. Setup API client and engine components
	client := coingecko.NewClient(coingecko.ClientOptions{
		BaseURL:        cfg.CoinGeckoBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	builder := feature.NewBuilder(cfg.Indicators)
	trainer, err := ml.NewTrainer(ml.TrainerOptions{
		MinRows:      cfg.MinTrainRows,
		TrainFrac:    cfg.TrainFrac,
		FeatureNames: builder.FeatureNames(),
		Algorithms:   ml.DefaultAlgorithms(cfg.ForestTrees, cfg.BoostRounds, cfg.LearningRate, cfg.Seed),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build trainer")
	}
	registry := forecast.NewRegistry()
	forecaster := forecast.New(registry, builder)

	// 5. Run the batch for every coin
	for _, coin := range cfg.Coins {
		if ctx.Err() != nil {
			break
		}
		if err := runCoin(ctx, cfg, client, db, builder, trainer, registry, forecaster, coin); err != nil {
			log.Error().Err(err).Str("coin", coin).Msg("Pipeline failed for coin")
		}
	}

	log.Info().Msg("Pipeline finished")
}

func runCoin(
	ctx context.Context,
	cfg *config.Config,
	client *coingecko.Client,
	db *store.Store,
	builder *feature.Builder,
	trainer *ml.Trainer,
	registry *forecast.Registry,
	forecaster *forecast.Forecaster,
	coin string,
) error {
	// Fetch and append history; the store ignores days already recorded.
	obs, err := client.MarketChart(ctx, coin, cfg.HistoryDays)
	if err != nil {
		return err
	}
	if err := db.AppendPriceHistory(ctx, obs); err != nil {
		return err
	}
	history, err := db.PriceHistory(ctx, coin)
	if err != nil {
		return err
	}

	vectors, err := builder.Build(history, cfg.Horizons)
	if err != nil {
		return err
	}

	fingerprint := cfg.Indicators.Fingerprint()
	for _, horizon := range cfg.Horizons {
		rows := feature.TrainingRows(vectors, horizon)
		fitted, err := trainer.Train(coin, horizon, rows)
		if err != nil {
			if errors.Is(err, ml.ErrInsufficientData) {
				// Keep whatever model set was published before.
				log.Warn().Str("coin", coin).Int("horizon_days", horizon).
					Int("rows", len(rows)).Msg("Not enough rows to retrain")
				continue
			}
			return err
		}

		registry.Publish(&forecast.ModelSet{
			AssetID:     coin,
			HorizonDays: horizon,
			Fingerprint: fingerprint,
			Models:      fitted,
			PublishedAt: time.Now().UTC(),
		})

		if err := db.SaveTrainedModels(ctx, collectMeta(fitted)); err != nil {
			return err
		}

		prediction, err := forecaster.Forecast(coin, horizon, history)
		if err != nil {
			if errors.Is(err, forecast.ErrModelUnavailable) || errors.Is(err, feature.ErrInsufficientHistory) {
				log.Warn().Err(err).Str("coin", coin).Int("horizon_days", horizon).Msg("Forecast not available")
				continue
			}
			return err
		}
		if err := db.SavePredictions(ctx, []models.Prediction{prediction}); err != nil {
			return err
		}

		log.Info().
			Str("coin", coin).
			Int("horizon_days", horizon).
			Float64("current", prediction.CurrentPrice).
			Float64("predicted", prediction.PredictedPrice).
			Float64("change_pct", prediction.ChangePct).
			Float64("confidence", prediction.Confidence).
			Msg("Prediction saved")
	}
	return nil
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
