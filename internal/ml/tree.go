package ml

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART regression tree. Leaves predict the
// mean label of their training rows.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

type treeParams struct {
	maxDepth        int
	minLeaf         int
	featuresPerNode int // 0 means consider all features
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// buildTree grows a tree on the rows selected by idx, choosing at each
// node the split with the best squared-error reduction over a (possibly
// random) feature subset.
func buildTree(X [][]float64, y []float64, idx []int, depth int, params treeParams, rng *rand.Rand) *treeNode {
	if depth >= params.maxDepth || len(idx) < 2*params.minLeaf {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(X, y, idx, params, rng)
	if !ok {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < params.minLeaf || len(rightIdx) < params.minLeaf {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(X, y, leftIdx, depth+1, params, rng),
		right:     buildTree(X, y, rightIdx, depth+1, params, rng),
	}
}

// bestSplit scans candidate features with a sorted prefix-sum sweep,
// O(k * n log n) per node.
func bestSplit(X [][]float64, y []float64, idx []int, params treeParams, rng *rand.Rand) (int, float64, bool) {
	p := len(X[idx[0]])
	candidates := featureCandidates(p, params.featuresPerNode, rng)

	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(idx))
	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var totalSum float64
		for _, i := range order {
			totalSum += y[i]
		}

		var leftSum float64
		n := float64(len(order))
		for pos := 0; pos < len(order)-1; pos++ {
			leftSum += y[order[pos]]
			if X[order[pos]][f] == X[order[pos+1]][f] {
				continue // cannot split between equal values
			}
			nl := float64(pos + 1)
			nr := n - nl
			if int(nl) < params.minLeaf || int(nr) < params.minLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			// Minimizing SSE is equivalent to maximizing the sum of
			// squared child means weighted by size.
			score := -(leftSum*leftSum/nl + rightSum*rightSum/nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (X[order[pos]][f] + X[order[pos+1]][f]) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func featureCandidates(p, perNode int, rng *rand.Rand) []int {
	all := make([]int, p)
	for i := range all {
		all[i] = i
	}
	if perNode <= 0 || perNode >= p || rng == nil {
		return all
	}
	rng.Shuffle(p, func(i, j int) { all[i], all[j] = all[j], all[i] })
	subset := all[:perNode]
	sort.Ints(subset)
	return subset
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
