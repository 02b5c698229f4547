package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Alias1177/CryptoForecaster/models"
)

// Evaluate computes MAE, RMSE and R² of predictions against actuals.
// R² is NaN when actuals have zero variance (undefined, not 1).
func Evaluate(actual, predicted []float64) models.EvaluationMetrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return models.EvaluationMetrics{MAE: math.NaN(), RMSE: math.NaN(), R2: math.NaN()}
	}

	var absSum, ssRes float64
	for i := range actual {
		d := predicted[i] - actual[i]
		absSum += math.Abs(d)
		ssRes += d * d
	}

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, a := range actual {
		ssTot += (a - mean) * (a - mean)
	}

	r2 := math.NaN()
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	return models.EvaluationMetrics{
		MAE:  absSum / float64(n),
		RMSE: math.Sqrt(ssRes / float64(n)),
		R2:   r2,
	}
}
