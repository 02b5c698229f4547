package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/CryptoForecaster/internal/feature"
	"github.com/Alias1177/CryptoForecaster/internal/ml"
	"github.com/Alias1177/CryptoForecaster/models"
)

// stubRegressor always predicts a fixed value, simulating one ensemble
// member with a controlled output.
type stubRegressor struct {
	value float64
}

func (s stubRegressor) Fit([][]float64, []float64) error { return nil }

func (s stubRegressor) Predict([]float64) (float64, error) { return s.value, nil }

func (s stubRegressor) Name() string { return "stub" }

func stubModel(value, r2 float64) *ml.FittedModel {
	return &ml.FittedModel{
		Regressor: stubRegressor{value: value},
		Meta: models.TrainedModel{
			ID:        "stub",
			Algorithm: "stub",
			Metrics:   models.EvaluationMetrics{R2: r2},
		},
	}
}

func generateObservations(n int) []models.PriceObservation {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceObservation, n)
	for i := 0; i < n; i++ {
		out[i] = models.PriceObservation{
			AssetID:   "bitcoin",
			Timestamp: base.AddDate(0, 0, i),
			Close:     100 + float64(i)*0.5 + float64(i%4),
			Volume:    5000,
		}
	}
	return out
}

func newForecaster() (*Forecaster, *Registry) {
	registry := NewRegistry()
	builder := feature.NewBuilder(models.DefaultIndicatorConfig())
	return New(registry, builder), registry
}

func publishStubs(registry *Registry, values []float64, r2 []float64) {
	set := &ModelSet{
		AssetID:     "bitcoin",
		HorizonDays: 1,
		Fingerprint: models.DefaultIndicatorConfig().Fingerprint(),
		PublishedAt: time.Now().UTC(),
	}
	for i := range values {
		set.Models = append(set.Models, stubModel(values[i], r2[i]))
	}
	registry.Publish(set)
}

func TestForecastModelUnavailable(t *testing.T) {
	forecaster, _ := newForecaster()

	_, err := forecaster.Forecast("bitcoin", 1, generateObservations(120))
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestForecastRejectsStaleFingerprint(t *testing.T) {
	forecaster, registry := newForecaster()

	// The published set was trained under a different indicator
	// configuration; its feature columns no longer line up with the
	// live builder's schema.
	stale := models.DefaultIndicatorConfig()
	stale.RSIPeriod = 21
	registry.Publish(&ModelSet{
		AssetID:     "bitcoin",
		HorizonDays: 1,
		Fingerprint: stale.Fingerprint(),
		Models:      []*ml.FittedModel{stubModel(110, 0.9)},
		PublishedAt: time.Now().UTC(),
	})

	_, err := forecaster.Forecast("bitcoin", 1, generateObservations(120))
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestForecastInsufficientHistory(t *testing.T) {
	forecaster, registry := newForecaster()
	publishStubs(registry, []float64{110}, []float64{0.9})

	_, err := forecaster.Forecast("bitcoin", 1, generateObservations(20))
	assert.True(t, errors.Is(err, feature.ErrInsufficientHistory))
}

func TestForecastWeightedEnsemble(t *testing.T) {
	forecaster, registry := newForecaster()
	// Weights are the positive R² scores; the -1 member is excluded.
	publishStubs(registry, []float64{100, 110, 200}, []float64{0.6, 0.3, -1})

	obs := generateObservations(120)
	pred, err := forecaster.Forecast("bitcoin", 1, obs)
	require.NoError(t, err)

	want := (100*0.6 + 110*0.3 + 200*0) / 0.9
	assert.InDelta(t, want, pred.PredictedPrice, 1e-9)
	assert.Equal(t, "bitcoin", pred.AssetID)
	assert.Equal(t, 1, pred.HorizonDays)
	assert.Equal(t, obs[len(obs)-1].Close, pred.CurrentPrice)
	assert.Equal(t, obs[len(obs)-1].Timestamp.AddDate(0, 0, 1), pred.TargetDate)
	// Only the two positive-R² members contribute.
	assert.Len(t, pred.Algorithms, 2)
	assert.NotEmpty(t, pred.ID)
	assert.True(t, pred.Confidence > 0 && pred.Confidence <= 1)
}

func TestForecastFallbackWhenAllExcluded(t *testing.T) {
	forecaster, registry := newForecaster()
	publishStubs(registry, []float64{100, 120}, []float64{-0.5, math.NaN()})

	pred, err := forecaster.Forecast("bitcoin", 1, generateObservations(120))
	require.NoError(t, err)

	// Unweighted mean at the fixed degraded confidence, not a failure.
	assert.InDelta(t, 110, pred.PredictedPrice, 1e-9)
	assert.InDelta(t, fallbackConfidence, pred.Confidence, 1e-12)
}

func TestConfidenceDecreasesWithDisagreement(t *testing.T) {
	r2 := []float64{0.8, 0.8}
	prev := math.Inf(1)
	for _, spread := range []float64{0, 1, 5, 20, 60} {
		outputs := []float64{100 + spread, 100 - spread}
		mean, confidence, _ := aggregate(outputs, r2)
		assert.InDelta(t, 100, mean, 1e-9, "mean must stay constant")
		assert.Less(t, confidence, prev, "spread %v", spread)
		assert.True(t, confidence > 0 && confidence <= 1)
		prev = confidence
	}
}

func TestConfidenceRewardsQuality(t *testing.T) {
	outputs := []float64{100, 102}
	_, low, _ := aggregate(outputs, []float64{0.2, 0.2})
	_, high, _ := aggregate(outputs, []float64{0.9, 0.9})
	assert.Greater(t, high, low)
}

func TestRegistryPublishReplacesWholeSet(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Lookup("bitcoin", 1)
	assert.False(t, ok)

	first := &ModelSet{AssetID: "bitcoin", HorizonDays: 1, Models: []*ml.FittedModel{stubModel(1, 0.5)}}
	registry.Publish(first)
	got, ok := registry.Lookup("bitcoin", 1)
	require.True(t, ok)
	assert.Same(t, first, got)

	// A new run publishes a fresh set; the old value is superseded,
	// never mutated, and other pairs are untouched.
	other := &ModelSet{AssetID: "ethereum", HorizonDays: 7, Models: []*ml.FittedModel{stubModel(2, 0.4)}}
	registry.Publish(other)
	second := &ModelSet{AssetID: "bitcoin", HorizonDays: 1, Models: []*ml.FittedModel{stubModel(3, 0.6)}}
	registry.Publish(second)

	got, ok = registry.Lookup("bitcoin", 1)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, first.Models, 1)

	got, ok = registry.Lookup("ethereum", 7)
	require.True(t, ok)
	assert.Same(t, other, got)
}
