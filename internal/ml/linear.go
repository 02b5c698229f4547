package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is ordinary least squares with an intercept over
// standardized features. Standardization parameters are learned on the
// training split only.
type LinearRegression struct {
	coef      []float64 // intercept first
	means     []float64
	stddevs   []float64
	nFeatures int
	fitted    bool
}

func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

func (l *LinearRegression) Name() string { return AlgorithmLinear }

func (l *LinearRegression) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("linear fit: %d rows vs %d labels", n, len(y))
	}
	p := len(X[0])

	l.nFeatures = p
	l.means = make([]float64, p)
	l.stddevs = make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1 // constant column carries no signal, leave it centered
		}
		l.means[j] = mean
		l.stddevs[j] = std
	}

	a := mat.NewDense(n, p+1, nil)
	for i := range X {
		a.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			a.Set(i, j+1, l.standardize(X[i][j], j))
		}
	}
	b := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(a)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, b); err != nil {
		return fmt.Errorf("linear fit: solving least squares: %w", err)
	}

	l.coef = make([]float64, p+1)
	for j := 0; j <= p; j++ {
		l.coef[j] = beta.AtVec(j)
	}
	l.fitted = true
	return nil
}

func (l *LinearRegression) Predict(x []float64) (float64, error) {
	if !l.fitted {
		return 0, ErrNotFitted
	}
	if len(x) != l.nFeatures {
		return 0, fmt.Errorf("linear predict: %d features, want %d", len(x), l.nFeatures)
	}
	pred := l.coef[0]
	for j, v := range x {
		pred += l.coef[j+1] * l.standardize(v, j)
	}
	return pred, nil
}

func (l *LinearRegression) standardize(v float64, j int) float64 {
	return (v - l.means[j]) / l.stddevs[j]
}
