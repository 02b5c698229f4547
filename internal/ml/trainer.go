package ml

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/CryptoForecaster/internal/feature"
	"github.com/Alias1177/CryptoForecaster/models"
)

// FittedModel pairs an in-memory regressor with its immutable
// trained-model record.
type FittedModel struct {
	Regressor Regressor
	Meta      models.TrainedModel
}

// AlgorithmFactory builds a fresh, unfitted regressor for one training
// run. Factories are the capability surface: a trainer constructed with
// no factories cannot be built, and a registry that was never published
// to reports ModelUnavailable downstream.
type AlgorithmFactory func() Regressor

// TrainerOptions configures a Trainer. FeatureNames fixes the matrix
// column order and must come from the same feature.Builder that
// produces the rows.
type TrainerOptions struct {
	MinRows      int
	TrainFrac    float64
	FeatureNames []string
	Algorithms   []AlgorithmFactory
}

// DefaultAlgorithms is the standard three-member ensemble.
func DefaultAlgorithms(forestTrees, boostRounds int, learningRate float64, seed int64) []AlgorithmFactory {
	return []AlgorithmFactory{
		func() Regressor { return NewLinearRegression() },
		func() Regressor { return NewRandomForest(forestTrees, seed) },
		func() Regressor { return NewGradientBoosting(boostRounds, learningRate) },
	}
}

// Trainer fits every configured algorithm on one chronological split.
type Trainer struct {
	opts   TrainerOptions
	logger zerolog.Logger
}

func NewTrainer(opts TrainerOptions) (*Trainer, error) {
	if len(opts.Algorithms) == 0 {
		return nil, fmt.Errorf("trainer requires at least one algorithm")
	}
	if opts.TrainFrac <= 0 || opts.TrainFrac >= 1 {
		opts.TrainFrac = 0.8
	}
	return &Trainer{
		opts:   opts,
		logger: log.With().Str("component", "trainer").Logger(),
	}, nil
}

// Train fits one model per algorithm for (assetID, horizon) on rows
// that must already be fully defined and labeled (feature.TrainingRows
// output, chronological). The earliest TrainFrac of rows trains, the
// remainder is held out for MAE/RMSE/R². Never shuffles: rows are
// time-ordered and a random split would leak future information
// through autocorrelated features. Returns ErrInsufficientData below
// MinRows; never mutates earlier results.
func (t *Trainer) Train(assetID string, horizon int, rows []models.FeatureVector) ([]*FittedModel, error) {
	if len(rows) < t.opts.MinRows {
		return nil, fmt.Errorf("train %s/%dd: %d rows, need %d: %w",
			assetID, horizon, len(rows), t.opts.MinRows, ErrInsufficientData)
	}

	split := int(float64(len(rows)) * t.opts.TrainFrac)
	if split >= len(rows) {
		split = len(rows) - 1
	}
	if split < 1 {
		return nil, fmt.Errorf("train %s/%dd: split leaves no training rows: %w", assetID, horizon, ErrInsufficientData)
	}

	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		X[i] = feature.Vectorize(row, t.opts.FeatureNames)
		y[i] = row.Targets[horizon]
	}

	trainedAt := time.Now().UTC()
	out := make([]*FittedModel, 0, len(t.opts.Algorithms))
	for _, build := range t.opts.Algorithms {
		reg := build()
		if err := reg.Fit(X[:split], y[:split]); err != nil {
			return nil, fmt.Errorf("train %s/%dd: fitting %s: %w", assetID, horizon, reg.Name(), err)
		}

		predicted := make([]float64, len(rows)-split)
		for i := split; i < len(rows); i++ {
			p, err := reg.Predict(X[i])
			if err != nil {
				return nil, fmt.Errorf("train %s/%dd: evaluating %s: %w", assetID, horizon, reg.Name(), err)
			}
			predicted[i-split] = p
		}
		metrics := Evaluate(y[split:], predicted)

		t.logger.Info().
			Str("asset", assetID).
			Int("horizon_days", horizon).
			Str("algorithm", reg.Name()).
			Float64("mae", metrics.MAE).
			Float64("rmse", metrics.RMSE).
			Float64("r2", metrics.R2).
			Msg("model trained")

		out = append(out, &FittedModel{
			Regressor: reg,
			Meta: models.TrainedModel{
				ID:            uuid.NewString(),
				AssetID:       assetID,
				HorizonDays:   horizon,
				Algorithm:     reg.Name(),
				TrainedAt:     trainedAt,
				TrainingStart: rows[0].Timestamp,
				TrainingEnd:   rows[split-1].Timestamp,
				TrainRows:     split,
				TestRows:      len(rows) - split,
				Metrics:       metrics,
			},
		})
	}
	return out, nil
}
