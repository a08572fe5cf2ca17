package voice

// Random Forest Classifier
//
// An ensemble of depth-bounded decision trees fit with bootstrap bagging
// and per-node random feature subsampling. Class probabilities are the
// fraction of trees voting for each class, so confidence is always in
// [0, 1] and sums to 1 across classes.
//
// Training is deterministic for a fixed seed: tree t draws its bootstrap
// sample and split candidates from a generator seeded with seed+t, so the
// same labeled data always produces the identical forest.
//
// Class imbalance is offset with balanced sample weights
// (n / (numClasses * count[class])), applied to both the Gini criterion
// and leaf majorities.

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestConfig holds the ensemble hyperparameters.
type ForestConfig struct {
	NumTrees        int   `json:"numTrees"`
	MaxDepth        int   `json:"maxDepth"`
	MinSamplesSplit int   `json:"minSamplesSplit"`
	MinSamplesLeaf  int   `json:"minSamplesLeaf"`
	Seed            int64 `json:"seed"`
}

// DefaultForestConfig returns the standard hyperparameters.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        200,
		MaxDepth:        20,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

// treeNode is one node of a flattened decision tree. Leaves carry the
// predicted class; internal nodes route on features[Feature] <= Threshold.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Leaf      bool    `json:"leaf,omitempty"`
	Class     int     `json:"c"`
}

type decisionTree struct {
	Nodes []treeNode `json:"nodes"`
}

// Forest is a fitted ensemble. Immutable after training; safe to share
// across concurrent readers.
type Forest struct {
	Config      ForestConfig   `json:"config"`
	NumClasses  int            `json:"numClasses"`
	NumFeatures int            `json:"numFeatures"`
	Trees       []decisionTree `json:"trees"`
	// Importances holds the normalized mean impurity decrease per feature.
	Importances []float64 `json:"importances"`
}

// TrainForest fits an ensemble on the given samples. Labels must be in
// [0, numClasses).
func TrainForest(features [][]float64, labels []int, numClasses int, cfg ForestConfig) (*Forest, error) {
	if len(features) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(features) != len(labels) {
		return nil, fmt.Errorf("feature/label count mismatch: %d vs %d", len(features), len(labels))
	}
	if numClasses < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", numClasses)
	}
	numFeatures := len(features[0])
	for i, row := range features {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), numFeatures)
		}
	}
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("sample %d has out-of-range label %d", i, label)
		}
	}
	if cfg.NumTrees <= 0 || cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("invalid forest config: trees=%d depth=%d", cfg.NumTrees, cfg.MaxDepth)
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}

	// Balanced class weights.
	counts := make([]int, numClasses)
	for _, label := range labels {
		counts[label]++
	}
	classWeights := make([]float64, numClasses)
	for c := range classWeights {
		if counts[c] > 0 {
			classWeights[c] = float64(len(labels)) / (float64(numClasses) * float64(counts[c]))
		}
	}

	mtry := int(math.Ceil(math.Sqrt(float64(numFeatures))))
	if mtry < 1 {
		mtry = 1
	}

	forest := &Forest{
		Config:      cfg,
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Trees:       make([]decisionTree, cfg.NumTrees),
		Importances: make([]float64, numFeatures),
	}

	for t := 0; t < cfg.NumTrees; t++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))

		indices := make([]int, len(features))
		for i := range indices {
			indices[i] = rng.Intn(len(features))
		}

		builder := &treeBuilder{
			features:     features,
			labels:       labels,
			classWeights: classWeights,
			numClasses:   numClasses,
			mtry:         mtry,
			cfg:          cfg,
			rng:          rng,
			importances:  forest.Importances,
		}
		builder.grow(indices, 0)
		forest.Trees[t] = decisionTree{Nodes: builder.nodes}
	}

	normalizeImportances(forest.Importances)
	return forest, nil
}

// Probabilities returns the per-class probability for a feature vector as
// the fraction of trees voting for each class.
func (f *Forest) Probabilities(features []float64) ([]float64, error) {
	if len(features) != f.NumFeatures {
		return nil, fmt.Errorf("%w: vector has %d features, model expects %d",
			ErrSchemaMismatch, len(features), f.NumFeatures)
	}

	votes := make([]float64, f.NumClasses)
	for i := range f.Trees {
		votes[f.Trees[i].predict(features)]++
	}
	for c := range votes {
		votes[c] /= float64(len(f.Trees))
	}
	return votes, nil
}

func (t *decisionTree) predict(features []float64) int {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Leaf {
			return node.Class
		}
		if features[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

type treeBuilder struct {
	features     [][]float64
	labels       []int
	classWeights []float64
	numClasses   int
	mtry         int
	cfg          ForestConfig
	rng          *rand.Rand
	importances  []float64
	nodes        []treeNode
}

// grow appends the subtree for the given sample indices and returns its
// node index.
func (b *treeBuilder) grow(indices []int, depth int) int {
	weights := b.weightByClass(indices)
	totalWeight := sum(weights)
	gini := giniImpurity(weights, totalWeight)

	if depth >= b.cfg.MaxDepth || len(indices) < b.cfg.MinSamplesSplit || gini == 0 {
		return b.appendLeaf(weights)
	}

	feature, threshold, gain, leftIdx, rightIdx := b.bestSplit(indices, gini, totalWeight)
	if feature < 0 {
		return b.appendLeaf(weights)
	}

	b.importances[feature] += gain

	// Reserve the node slot before recursing so children land after it.
	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: feature, Threshold: threshold})
	left := b.grow(leftIdx, depth+1)
	right := b.grow(rightIdx, depth+1)
	b.nodes[nodeIdx].Left = left
	b.nodes[nodeIdx].Right = right
	return nodeIdx
}

func (b *treeBuilder) appendLeaf(weights []float64) int {
	best := 0
	for c := 1; c < len(weights); c++ {
		if weights[c] > weights[best] {
			best = c
		}
	}
	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Leaf: true, Class: best})
	return idx
}

func (b *treeBuilder) weightByClass(indices []int) []float64 {
	weights := make([]float64, b.numClasses)
	for _, i := range indices {
		weights[b.labels[i]] += b.classWeights[b.labels[i]]
	}
	return weights
}

// bestSplit scans a random subset of features for the weighted-Gini-optimal
// threshold. Returns feature -1 when no split satisfies the leaf minimum.
func (b *treeBuilder) bestSplit(indices []int, parentGini, parentWeight float64) (int, float64, float64, []int, []int) {
	candidates := b.rng.Perm(len(b.features[0]))[:b.mtry]
	// Permutation order is rng-dependent but the scan below must be
	// deterministic for a fixed rng, so keep candidate order stable.
	sort.Ints(candidates)

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	type valueLabel struct {
		value float64
		index int
	}
	pairs := make([]valueLabel, len(indices))

	for _, feature := range candidates {
		for i, idx := range indices {
			pairs[i] = valueLabel{value: b.features[idx][feature], index: idx}
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].value != pairs[j].value {
				return pairs[i].value < pairs[j].value
			}
			return pairs[i].index < pairs[j].index
		})

		leftWeights := make([]float64, b.numClasses)
		rightWeights := b.weightByClass(indices)
		leftCount := 0

		for i := 0; i < len(pairs)-1; i++ {
			label := b.labels[pairs[i].index]
			w := b.classWeights[label]
			leftWeights[label] += w
			rightWeights[label] -= w
			leftCount++

			if pairs[i].value == pairs[i+1].value {
				continue
			}
			if leftCount < b.cfg.MinSamplesLeaf || len(pairs)-leftCount < b.cfg.MinSamplesLeaf {
				continue
			}

			leftTotal := sum(leftWeights)
			rightTotal := sum(rightWeights)
			if leftTotal == 0 || rightTotal == 0 {
				continue
			}

			weighted := (leftTotal*giniImpurity(leftWeights, leftTotal) +
				rightTotal*giniImpurity(rightWeights, rightTotal)) / parentWeight
			gain := parentGini - weighted
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if bestFeature < 0 {
		return -1, 0, 0, nil, nil
	}

	var leftIdx, rightIdx []int
	for _, idx := range indices {
		if b.features[idx][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}
	// Gain is scaled by the node's share of the training weight so shallow
	// splits count more toward importance than deep ones.
	return bestFeature, bestThreshold, bestGain * parentWeight, leftIdx, rightIdx
}

func giniImpurity(weights []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, w := range weights {
		p := w / total
		impurity -= p * p
	}
	return impurity
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func normalizeImportances(importances []float64) {
	total := sum(importances)
	if total == 0 {
		return
	}
	for i := range importances {
		importances[i] /= total
	}
}
