package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/Alias1177/CryptoForecaster/internal/feature"
	"github.com/Alias1177/CryptoForecaster/models"
)

// ErrModelUnavailable means no trained model set exists for the
// requested (asset, horizon). The caller decides whether to train or
// report unavailability; the forecaster never invents a prediction.
var ErrModelUnavailable = errors.New("no trained model available")

// fallbackConfidence is reported when every ensemble member was
// excluded for non-positive hold-out R² and the forecaster fell back
// to an unweighted mean.
const fallbackConfidence = 0.1

// Forecaster applies the latest published model set to the newest
// eligible feature row.
type Forecaster struct {
	registry     *Registry
	builder      *feature.Builder
	featureNames []string
	fingerprint  string
	logger       zerolog.Logger
}

func New(registry *Registry, builder *feature.Builder) *Forecaster {
	return &Forecaster{
		registry:     registry,
		builder:      builder,
		featureNames: builder.FeatureNames(),
		fingerprint:  builder.Config().Fingerprint(),
		logger:       log.With().Str("component", "forecaster").Logger(),
	}
}

// Forecast predicts the close horizon days past the newest
// observation. Fails with ErrModelUnavailable when nothing is
// published for the pair or the published set carries a different
// feature-schema fingerprint, and with feature.ErrInsufficientHistory
// when the newest row still has warm-up gaps.
func (f *Forecaster) Forecast(assetID string, horizon int, obs []models.PriceObservation) (models.Prediction, error) {
	set, ok := f.registry.Lookup(assetID, horizon)
	if !ok || len(set.Models) == 0 {
		return models.Prediction{}, fmt.Errorf("forecast %s/%dd: %w", assetID, horizon, ErrModelUnavailable)
	}
	// A set trained under a different indicator configuration maps its
	// features onto the wrong columns; treat it as no model at all.
	if set.Fingerprint != f.fingerprint {
		f.logger.Warn().
			Str("asset", assetID).
			Int("horizon_days", horizon).
			Str("set_fingerprint", set.Fingerprint).
			Msg("published model set has stale feature schema")
		return models.Prediction{}, fmt.Errorf("forecast %s/%dd: stale feature schema: %w", assetID, horizon, ErrModelUnavailable)
	}

	vectors, err := f.builder.Build(obs, nil)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("forecast %s/%dd: %w", assetID, horizon, err)
	}
	row, err := feature.LatestEligible(vectors)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("forecast %s/%dd: %w", assetID, horizon, err)
	}

	x := feature.Vectorize(row, f.featureNames)
	outputs := make([]float64, 0, len(set.Models))
	scores := make([]float64, 0, len(set.Models))
	for _, m := range set.Models {
		p, err := m.Regressor.Predict(x)
		if err != nil {
			return models.Prediction{}, fmt.Errorf("forecast %s/%dd: %s: %w", assetID, horizon, m.Meta.Algorithm, err)
		}
		outputs = append(outputs, p)
		scores = append(scores, m.Meta.Metrics.R2)
	}

	predicted, confidence, contributing := aggregate(outputs, scores)
	algorithms := make([]string, 0, len(contributing))
	for _, i := range contributing {
		algorithms = append(algorithms, set.Models[i].Meta.Algorithm)
	}

	current := row.Close
	changePct := 0.0
	if current != 0 {
		changePct = (predicted - current) / current * 100
	}

	f.logger.Info().
		Str("asset", assetID).
		Int("horizon_days", horizon).
		Float64("predicted", predicted).
		Float64("confidence", confidence).
		Msg("forecast generated")

	return models.Prediction{
		ID:             uuid.NewString(),
		AssetID:        assetID,
		HorizonDays:    horizon,
		PredictedPrice: predicted,
		CurrentPrice:   current,
		ChangePct:      changePct,
		Confidence:     confidence,
		Algorithms:     algorithms,
		GeneratedAt:    time.Now().UTC(),
		TargetDate:     row.Timestamp.AddDate(0, 0, horizon),
	}, nil
}

// aggregate combines member outputs into one prediction, a confidence
// in [0,1] and the indices of the contributing members.
//
// Weights are hold-out R² floored at zero; members with non-positive
// or undefined R² are excluded. If every member is excluded the
// ensemble degrades to an unweighted mean of all members at
// fallbackConfidence. Otherwise confidence is the harmonic mean of
// agreement and quality, where agreement = 1/(1+spread), spread is the
// contributing members' standard deviation normalized by the ensemble
// mean, and quality is the average contributing R² clamped to [0,1].
// Holding quality fixed, more disagreement means strictly lower
// confidence.
func aggregate(outputs, r2 []float64) (float64, float64, []int) {
	weights := make([]float64, len(outputs))
	var contributing []int
	var qualitySum float64
	for i, score := range r2 {
		if math.IsNaN(score) || score <= 0 {
			continue
		}
		weights[i] = score
		qualitySum += math.Min(score, 1)
		contributing = append(contributing, i)
	}

	if len(contributing) == 0 {
		all := make([]int, len(outputs))
		for i := range all {
			all[i] = i
		}
		return stat.Mean(outputs, nil), fallbackConfidence, all
	}

	mean := stat.Mean(outputs, weights)
	quality := qualitySum / float64(len(contributing))

	members := make([]float64, len(contributing))
	for i, idx := range contributing {
		members[i] = outputs[idx]
	}
	spread := 0.0
	if len(members) > 1 {
		spread = stat.StdDev(members, nil) * math.Sqrt(float64(len(members)-1)/float64(len(members)))
	}
	if mean != 0 {
		spread = math.Abs(spread / mean)
	}
	agreement := 1 / (1 + spread)

	confidence := 0.0
	if agreement+quality > 0 {
		confidence = 2 * agreement * quality / (agreement + quality)
	}
	return mean, confidence, contributing
}
