package ml

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/CryptoForecaster/models"
)

var testFeatureNames = []string{"f0", "f1", "f2"}

// generateRows builds labeled feature rows where the target is a noisy
// linear function of the features, in chronological order.
func generateRows(n, horizon int) []models.FeatureVector {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.FeatureVector, n)
	for i := 0; i < n; i++ {
		f0 := float64(i)
		f1 := float64((i * 31) % 17)
		f2 := float64((i * 13) % 7)
		out[i] = models.FeatureVector{
			AssetID:   "bitcoin",
			Timestamp: base.AddDate(0, 0, i),
			Close:     100 + f0,
			Features:  map[string]float64{"f0": f0, "f1": f1, "f2": f2},
			Targets:   map[int]float64{horizon: 100 + 2*f0 + 0.5*f1 - 0.3*f2},
		}
	}
	return out
}

func newTestTrainer(t *testing.T, minRows int) *Trainer {
	t.Helper()
	trainer, err := NewTrainer(TrainerOptions{
		MinRows:      minRows,
		TrainFrac:    0.8,
		FeatureNames: testFeatureNames,
		Algorithms:   DefaultAlgorithms(25, 30, 0.1, 42),
	})
	require.NoError(t, err)
	return trainer
}

func TestTrainInsufficientData(t *testing.T) {
	trainer := newTestTrainer(t, 60)

	fitted, err := trainer.Train("bitcoin", 1, generateRows(50, 1))
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Nil(t, fitted)
}

func TestTrainProducesOneModelPerAlgorithm(t *testing.T) {
	trainer := newTestTrainer(t, 60)
	rows := generateRows(100, 7)

	fitted, err := trainer.Train("bitcoin", 7, rows)
	require.NoError(t, err)
	require.Len(t, fitted, 3)

	seen := map[string]bool{}
	for _, m := range fitted {
		seen[m.Meta.Algorithm] = true
		assert.Equal(t, "bitcoin", m.Meta.AssetID)
		assert.Equal(t, 7, m.Meta.HorizonDays)
		assert.Equal(t, 80, m.Meta.TrainRows)
		assert.Equal(t, 20, m.Meta.TestRows)
		assert.Equal(t, rows[0].Timestamp, m.Meta.TrainingStart)
		assert.Equal(t, rows[79].Timestamp, m.Meta.TrainingEnd)
		assert.NotEmpty(t, m.Meta.ID)
	}
	assert.True(t, seen[AlgorithmLinear])
	assert.True(t, seen[AlgorithmForest])
	assert.True(t, seen[AlgorithmBoosting])
}

func TestTrainIdempotentMetrics(t *testing.T) {
	rows := generateRows(120, 1)

	first, err := newTestTrainer(t, 60).Train("bitcoin", 1, rows)
	require.NoError(t, err)
	second, err := newTestTrainer(t, 60).Train("bitcoin", 1, rows)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Meta.Algorithm, second[i].Meta.Algorithm)
		assert.InDelta(t, first[i].Meta.Metrics.MAE, second[i].Meta.Metrics.MAE, 1e-9)
		assert.InDelta(t, first[i].Meta.Metrics.RMSE, second[i].Meta.Metrics.RMSE, 1e-9)
		assert.InDelta(t, first[i].Meta.Metrics.R2, second[i].Meta.Metrics.R2, 1e-9)
		// New run, new record identity: supersedes, never mutates.
		assert.NotEqual(t, first[i].Meta.ID, second[i].Meta.ID)
	}
}

func TestTrainRequiresAlgorithms(t *testing.T) {
	_, err := NewTrainer(TrainerOptions{MinRows: 10, FeatureNames: testFeatureNames})
	assert.Error(t, err)
}

func TestLinearRegressionRecoversLine(t *testing.T) {
	// y = 3 + 2*x0 - x1 exactly.
	X := make([][]float64, 50)
	y := make([]float64, 50)
	for i := range X {
		x0 := float64(i)
		x1 := float64((i * 7) % 13)
		X[i] = []float64{x0, x1}
		y[i] = 3 + 2*x0 - x1
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict([]float64{60, 5})
	require.NoError(t, err)
	assert.InDelta(t, 3+2*60.0-5, pred, 1e-6)
}

func TestForestDeterministicWithSeed(t *testing.T) {
	rows := generateRows(90, 1)
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = []float64{r.Features["f0"], r.Features["f1"], r.Features["f2"]}
		y[i] = r.Targets[1]
	}

	a := NewRandomForest(20, 7)
	b := NewRandomForest(20, 7)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	probe := []float64{40, 3, 2}
	pa, err := a.Predict(probe)
	require.NoError(t, err)
	pb, err := b.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestBoostingReducesTrainingError(t *testing.T) {
	X := make([][]float64, 80)
	y := make([]float64, 80)
	var mean float64
	for i := range X {
		X[i] = []float64{float64(i), float64(i % 9)}
		y[i] = 50 + 3*float64(i) + 2*float64(i%9)
		mean += y[i]
	}
	mean /= float64(len(y))

	gb := NewGradientBoosting(50, 0.1)
	require.NoError(t, gb.Fit(X, y))

	var boostedSSE, baselineSSE float64
	for i := range X {
		p, err := gb.Predict(X[i])
		require.NoError(t, err)
		boostedSSE += (p - y[i]) * (p - y[i])
		baselineSSE += (mean - y[i]) * (mean - y[i])
	}
	assert.Less(t, boostedSSE, baselineSSE/10)
}

func TestPredictBeforeFit(t *testing.T) {
	_, err := NewLinearRegression().Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrNotFitted))
	_, err = NewRandomForest(5, 1).Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrNotFitted))
	_, err = NewGradientBoosting(5, 0.1).Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrNotFitted))
}

func TestEvaluatePerfectFit(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	m := Evaluate(actual, actual)
	assert.InDelta(t, 0, m.MAE, 1e-12)
	assert.InDelta(t, 0, m.RMSE, 1e-12)
	assert.InDelta(t, 1, m.R2, 1e-12)
}

func TestEvaluateConstantActuals(t *testing.T) {
	m := Evaluate([]float64{5, 5, 5}, []float64{5, 6, 4})
	assert.True(t, m.R2 != m.R2, "R2 must be undefined when actuals have no variance")
	assert.InDelta(t, 2.0/3.0, m.MAE, 1e-12)
}
