// Package ml fits the regression ensemble used for price forecasting:
// a linear model, a bagged forest and a boosted-tree model, all trained
// on one chronological split so hold-out metrics compare fairly.
package ml

import "errors"

// ErrInsufficientData means the training set is below the configured
// minimum row count. The trainer produces nothing for that asset and
// horizon; callers keep any prior model set.
var ErrInsufficientData = errors.New("insufficient training data")

// ErrNotFitted is returned by Predict on a model that was never fitted.
var ErrNotFitted = errors.New("model not fitted")

// Algorithm identifiers, stored with trained-model records.
const (
	AlgorithmLinear   = "linear_regression"
	AlgorithmForest   = "random_forest"
	AlgorithmBoosting = "gradient_boosting"
)

// Regressor is a supervised model mapping a feature row to a price.
// Fit and Predict are pure compute; implementations hold no shared
// state and a fitted model is immutable.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
	Name() string
}
