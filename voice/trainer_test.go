package voice

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

// syntheticDataset builds schema-sized vectors with a class-dependent shift
// on the leading features and deterministic jitter elsewhere.
func syntheticDataset(perClass int) []LabeledSample {
	samples := make([]LabeledSample, 0, perClass*2)
	for c := 0; c < 2; c++ {
		for i := 0; i < perClass; i++ {
			row := make(FeatureVector, FeatureDim)
			for d := 0; d < FeatureDim; d++ {
				row[d] = math.Sin(float64(i*7+d*3+c)) * 0.3
			}
			row[0] += float64(c) * 5
			row[1] += float64(c) * 3
			row[2] -= float64(c) * 4
			samples = append(samples, LabeledSample{Features: row, Label: c})
		}
	}
	return samples
}

func smallTrainerConfig() TrainerConfig {
	cfg := DefaultTrainerConfig()
	cfg.Forest = smallForestConfig()
	cfg.CVFolds = 3
	return cfg
}

func TestTrainProducesValidModel(t *testing.T) {
	t.Parallel()

	model, err := Train(syntheticDataset(25), smallTrainerConfig())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}
	if err := model.Validate(); err != nil {
		t.Fatalf("trained model failed validation: %v", err)
	}

	m := model.Metrics
	if m.TrainSamples+m.TestSamples != 50 {
		t.Fatalf("split accounts for %d samples, expected 50", m.TrainSamples+m.TestSamples)
	}
	if m.TestSamples < 2 {
		t.Fatalf("expected a non-trivial held-out partition, got %d", m.TestSamples)
	}
	if m.Accuracy < 0.9 {
		t.Fatalf("expected high held-out accuracy on separable data, got %.3f", m.Accuracy)
	}
	if m.CVFolds != 3 {
		t.Fatalf("expected 3 CV folds, got %d", m.CVFolds)
	}
	if m.CVMean < 0 || m.CVMean > 1 {
		t.Fatalf("CV mean %g outside [0, 1]", m.CVMean)
	}
	if len(m.PerClass) != 2 || len(m.Confusion) != 2 {
		t.Fatalf("expected per-class metrics and confusion for 2 classes")
	}
}

func TestTrainReproducibleForFixedSeed(t *testing.T) {
	t.Parallel()

	samples := syntheticDataset(20)
	cfg := smallTrainerConfig()

	first, err := Train(samples, cfg)
	if err != nil {
		t.Fatalf("first training failed: %v", err)
	}
	second, err := Train(samples, cfg)
	if err != nil {
		t.Fatalf("second training failed: %v", err)
	}

	firstForest, _ := json.Marshal(first.Forest)
	secondForest, _ := json.Marshal(second.Forest)
	if string(firstForest) != string(secondForest) {
		t.Fatal("identical data and seed produced different ensembles")
	}
	if first.Metrics.Accuracy != second.Metrics.Accuracy {
		t.Fatalf("accuracy differs between identical runs: %g vs %g",
			first.Metrics.Accuracy, second.Metrics.Accuracy)
	}
}

// A two-sample training partition folds into single-class complements, so
// every fold is skipped and no cross-validation score exists.
func TestTrainReportsZeroFoldsWhenAllFoldsSkipped(t *testing.T) {
	t.Parallel()

	model, err := Train(syntheticDataset(2), smallTrainerConfig())
	if err != nil {
		t.Fatalf("Train returned error: %v", err)
	}

	m := model.Metrics
	if m.CVFolds != 0 {
		t.Fatalf("expected 0 scored CV folds, got %d", m.CVFolds)
	}
	if m.CVMean != 0 || m.CVStd != 0 {
		t.Fatalf("unscored CV must not report a mean, got %g +/- %g", m.CVMean, m.CVStd)
	}
}

func TestCrossValidateSkipsSingleClassComplements(t *testing.T) {
	t.Parallel()

	features := [][]float64{
		make([]float64, FeatureDim),
		make([]float64, FeatureDim),
	}
	features[1][0] = 1

	scores, err := crossValidate(features, []int{ClassHuman, ClassAIGenerated}, 2, 2, smallForestConfig())
	if err != nil {
		t.Fatalf("crossValidate returned error: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected no scored folds, got %d", len(scores))
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	t.Parallel()

	var samples []LabeledSample
	for _, s := range syntheticDataset(10) {
		if s.Label == ClassHuman {
			samples = append(samples, s)
		}
	}

	if _, err := Train(samples, smallTrainerConfig()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for single-class data, got %v", err)
	}
}

func TestTrainRejectsTooFewSamples(t *testing.T) {
	t.Parallel()

	samples := syntheticDataset(5)[:6] // 5 HUMAN, 1 AI_GENERATED
	if _, err := Train(samples, smallTrainerConfig()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestTrainRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	samples := syntheticDataset(5)
	samples[3].Features = samples[3].Features[:FeatureDim-10]

	if _, err := Train(samples, smallTrainerConfig()); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTrainRejectsNonFiniteFeatures(t *testing.T) {
	t.Parallel()

	samples := syntheticDataset(5)
	samples[2].Features[40] = math.NaN()

	if _, err := Train(samples, smallTrainerConfig()); !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("expected ErrFeatureExtraction, got %v", err)
	}
}

func TestFeatureScalerTransform(t *testing.T) {
	t.Parallel()

	rows := [][]float64{
		{1, 100},
		{3, 100},
		{5, 100},
	}
	scaler, err := NewFeatureScaler(rows)
	if err != nil {
		t.Fatalf("NewFeatureScaler returned error: %v", err)
	}

	scaled := scaler.Transform([]float64{3, 100})
	if math.Abs(scaled[0]) > 1e-9 {
		t.Fatalf("mean value should scale to 0, got %g", scaled[0])
	}
	// Constant feature keeps its centered value instead of dividing by zero.
	if math.Abs(scaled[1]) > 1e-9 {
		t.Fatalf("constant feature should scale to 0, got %g", scaled[1])
	}
}
