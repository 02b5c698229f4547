package ml

import (
	"fmt"
	"math/rand"
)

// GradientBoosting fits shallow regression trees to the residuals of
// the running prediction, shrunk by the learning rate. Deterministic:
// every round sees all rows and all features.
type GradientBoosting struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int

	base      float64
	trees     []*treeNode
	nFeatures int
	fitted    bool
}

func NewGradientBoosting(rounds int, learningRate float64) *GradientBoosting {
	return &GradientBoosting{Rounds: rounds, LearningRate: learningRate, MaxDepth: 3, MinLeaf: 2}
}

func (g *GradientBoosting) Name() string { return AlgorithmBoosting }

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("boosting fit: %d rows vs %d labels", n, len(y))
	}
	g.nFeatures = len(X[0])

	var sum float64
	for _, v := range y {
		sum += v
	}
	g.base = sum / float64(n)

	idx := make([]int, n)
	current := make([]float64, n)
	residual := make([]float64, n)
	for i := range idx {
		idx[i] = i
		current[i] = g.base
	}

	params := treeParams{maxDepth: g.MaxDepth, minLeaf: g.MinLeaf}
	var rng *rand.Rand // all features per split, no randomness needed

	g.trees = make([]*treeNode, 0, g.Rounds)
	for round := 0; round < g.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}
		tree := buildTree(X, residual, idx, 0, params, rng)
		g.trees = append(g.trees, tree)
		for i := range current {
			current[i] += g.LearningRate * tree.predict(X[i])
		}
	}
	g.fitted = true
	return nil
}

func (g *GradientBoosting) Predict(x []float64) (float64, error) {
	if !g.fitted {
		return 0, ErrNotFitted
	}
	if len(x) != g.nFeatures {
		return 0, fmt.Errorf("boosting predict: %d features, want %d", len(x), g.nFeatures)
	}
	pred := g.base
	for _, tree := range g.trees {
		pred += g.LearningRate * tree.predict(x)
	}
	return pred, nil
}
