package voice

// Model Training
//
// Consumes labeled feature vectors and produces a Model artifact:
//
//  1. Validate the collection (schema, finiteness, class coverage).
//  2. Stratified split into train/test partitions.
//  3. k-fold cross-validation on the training partition to estimate
//     generalization variance, independent of the held-out score.
//  4. Fit the scaler and forest on the full training partition.
//  5. Evaluate on the held-out partition.
//
// Training is idempotent: identical input data and seed reproduce identical
// metrics and an identical ensemble.

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// TrainerConfig controls partitioning and the underlying ensemble.
type TrainerConfig struct {
	TestFraction       float64
	CVFolds            int
	MinSamplesPerClass int
	Forest             ForestConfig
}

// DefaultTrainerConfig returns the standard training parameters.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		TestFraction:       0.2,
		CVFolds:            5,
		MinSamplesPerClass: 2,
		Forest:             DefaultForestConfig(),
	}
}

// Train fits a model on the labeled collection.
func Train(samples []LabeledSample, cfg TrainerConfig) (*Model, error) {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.MinSamplesPerClass < 2 {
		cfg.MinSamplesPerClass = 2
	}
	if cfg.Forest.NumTrees <= 0 {
		cfg.Forest = DefaultForestConfig()
	}

	classes := ClassNames()
	if err := validateTrainingSet(samples, len(classes), cfg.MinSamplesPerClass); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Forest.Seed))
	trainIdx, testIdx := stratifiedSplit(samples, len(classes), cfg.TestFraction, rng)

	trainFeatures := make([][]float64, len(trainIdx))
	trainLabels := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainFeatures[i] = samples[idx].Features
		trainLabels[i] = samples[idx].Label
	}

	scaler, err := NewFeatureScaler(trainFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to fit feature scaler: %w", err)
	}
	scaledTrain := make([][]float64, len(trainFeatures))
	for i, row := range trainFeatures {
		scaledTrain[i] = scaler.Transform(row)
	}

	metrics := ValidationMetrics{
		TrainSamples: len(trainIdx),
		TestSamples:  len(testIdx),
	}

	// Cross-validation before the final fit, on training data only.
	folds := cfg.CVFolds
	if folds > len(scaledTrain) {
		folds = len(scaledTrain)
	}
	if folds >= 2 {
		cvScores, err := crossValidate(scaledTrain, trainLabels, len(classes), folds, cfg.Forest)
		if err != nil {
			return nil, err
		}
		// Folds without both classes in their complement are skipped, so
		// report only the folds that actually produced a score.
		metrics.CVFolds = len(cvScores)
		metrics.CVMean, metrics.CVStd = meanStd(cvScores)
	}

	forest, err := TrainForest(scaledTrain, trainLabels, len(classes), cfg.Forest)
	if err != nil {
		return nil, fmt.Errorf("failed to fit ensemble: %w", err)
	}

	// Held-out evaluation.
	confusion := newConfusion(len(classes))
	for _, idx := range testIdx {
		scaled := scaler.Transform(samples[idx].Features)
		probs, err := forest.Probabilities(scaled)
		if err != nil {
			return nil, err
		}
		confusion[samples[idx].Label][argmax(probs)]++
	}
	fillMetricsFromConfusion(&metrics, confusion, classes)

	return &Model{
		SchemaVersion: SchemaVersion,
		FeatureCount:  FeatureDim,
		FeatureNames:  FeatureNames(),
		Classes:       classes,
		Scaler:        scaler,
		Forest:        forest,
		Metrics:       metrics,
		Seed:          cfg.Forest.Seed,
		TrainedAt:     time.Now().UTC(),
	}, nil
}

func validateTrainingSet(samples []LabeledSample, numClasses, minPerClass int) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no samples", ErrInsufficientData)
	}

	counts := make([]int, numClasses)
	for i, sample := range samples {
		if len(sample.Features) != FeatureDim {
			return fmt.Errorf("%w: sample %d has %d features, schema requires %d",
				ErrSchemaMismatch, i, len(sample.Features), FeatureDim)
		}
		for _, v := range sample.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: sample %d contains non-finite values", ErrFeatureExtraction, i)
			}
		}
		if sample.Label < 0 || sample.Label >= numClasses {
			return fmt.Errorf("%w: sample %d has unknown label %d", ErrInsufficientData, i, sample.Label)
		}
		counts[sample.Label]++
	}

	present := 0
	for c, count := range counts {
		if count == 0 {
			continue
		}
		present++
		if count < minPerClass {
			return fmt.Errorf("%w: class %s has %d samples, need at least %d",
				ErrInsufficientData, ClassNames()[c], count, minPerClass)
		}
	}
	if present < 2 {
		return fmt.Errorf("%w: need samples from at least 2 classes, got %d", ErrInsufficientData, present)
	}
	return nil
}

// stratifiedSplit shuffles each class independently and reserves the test
// fraction per class, so class balance survives the split.
func stratifiedSplit(samples []LabeledSample, numClasses int, testFraction float64, rng *rand.Rand) (train, test []int) {
	byClass := make([][]int, numClasses)
	for i, sample := range samples {
		byClass[sample.Label] = append(byClass[sample.Label], i)
	}

	for _, indices := range byClass {
		if len(indices) == 0 {
			continue
		}
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		testCount := int(math.Round(testFraction * float64(len(indices))))
		if testCount < 1 {
			testCount = 1
		}
		if testCount >= len(indices) {
			testCount = len(indices) - 1
		}
		test = append(test, indices[:testCount]...)
		train = append(train, indices[testCount:]...)
	}
	return train, test
}

// crossValidate runs k-fold validation, refitting the ensemble on each
// fold complement with the shared seed.
func crossValidate(features [][]float64, labels []int, numClasses, folds int, cfg ForestConfig) ([]float64, error) {
	order := make([]int, len(features))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	scores := make([]float64, 0, folds)
	for fold := 0; fold < folds; fold++ {
		var foldTrainX [][]float64
		var foldTrainY []int
		var foldTestX [][]float64
		var foldTestY []int
		for pos, idx := range order {
			if pos%folds == fold {
				foldTestX = append(foldTestX, features[idx])
				foldTestY = append(foldTestY, labels[idx])
			} else {
				foldTrainX = append(foldTrainX, features[idx])
				foldTrainY = append(foldTrainY, labels[idx])
			}
		}
		if len(foldTestX) == 0 || !hasTwoClasses(foldTrainY) {
			continue
		}

		forest, err := TrainForest(foldTrainX, foldTrainY, numClasses, cfg)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}

		correct := 0
		for i, row := range foldTestX {
			probs, err := forest.Probabilities(row)
			if err != nil {
				return nil, err
			}
			if argmax(probs) == foldTestY[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(foldTestX)))
	}
	return scores, nil
}

func hasTwoClasses(labels []int) bool {
	if len(labels) == 0 {
		return false
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return true
		}
	}
	return false
}

func newConfusion(numClasses int) [][]int {
	confusion := make([][]int, numClasses)
	for i := range confusion {
		confusion[i] = make([]int, numClasses)
	}
	return confusion
}

func fillMetricsFromConfusion(metrics *ValidationMetrics, confusion [][]int, classes []string) {
	metrics.Confusion = confusion
	metrics.PerClass = make([]ClassMetrics, len(classes))

	total := 0
	correct := 0
	macroF1 := 0.0
	for c := range classes {
		truePos := confusion[c][c]
		support := 0
		predicted := 0
		for other := range classes {
			support += confusion[c][other]
			predicted += confusion[other][c]
		}
		total += support
		correct += truePos

		precision := safeRatio(truePos, predicted)
		recall := safeRatio(truePos, support)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		macroF1 += f1

		metrics.PerClass[c] = ClassMetrics{
			Label:     classes[c],
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   support,
		}
	}

	if total > 0 {
		metrics.Accuracy = float64(correct) / float64(total)
	}
	metrics.MacroF1 = macroF1 / float64(len(classes))
}

func safeRatio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		diff := v - mean
		std += diff * diff
	}
	return mean, math.Sqrt(std / float64(len(values)))
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
