package ml

import (
	"fmt"
	"math/rand"
)

// RandomForest bags CART regression trees over bootstrap samples with
// a random feature subset per split. Seeded deterministically so two
// runs on identical data fit identical forests.
type RandomForest struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64

	trees     []*treeNode
	nFeatures int
}

func NewRandomForest(trees int, seed int64) *RandomForest {
	return &RandomForest{Trees: trees, MaxDepth: 10, MinLeaf: 2, Seed: seed}
}

func (f *RandomForest) Name() string { return AlgorithmForest }

func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return fmt.Errorf("forest fit: %d rows vs %d labels", n, len(y))
	}
	f.nFeatures = len(X[0])

	perNode := (f.nFeatures + 2) / 3
	if perNode < 1 {
		perNode = 1
	}
	params := treeParams{maxDepth: f.MaxDepth, minLeaf: f.MinLeaf, featuresPerNode: perNode}

	rng := rand.New(rand.NewSource(f.Seed))
	f.trees = make([]*treeNode, f.Trees)
	for t := 0; t < f.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.trees[t] = buildTree(X, y, idx, 0, params, rng)
	}
	return nil
}

func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("forest predict: %d features, want %d", len(x), f.nFeatures)
	}
	var sum float64
	for _, tree := range f.trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(f.trees)), nil
}
