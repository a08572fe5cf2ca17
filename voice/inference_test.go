package voice

import (
	"errors"
	"strings"
	"testing"
)

func trainedTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := Train(syntheticDataset(25), smallTrainerConfig())
	if err != nil {
		t.Fatalf("failed to train test model: %v", err)
	}
	return model
}

func TestPredictWithoutModel(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	vector := make(FeatureVector, FeatureDim)
	if _, err := engine.Predict(vector); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestEngineLoadRejectsIncompatibleModel(t *testing.T) {
	t.Parallel()

	model := trainedTestModel(t)
	model.FeatureCount = 100

	engine := NewEngine()
	if err := engine.Load(model); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if engine.Loaded() {
		t.Fatal("rejected model must not be published")
	}
}

// An artifact whose tree list was lost (truncated or hand-edited JSON) must
// be refused outright; an empty ensemble cannot vote.
func TestEngineLoadRejectsEmptyEnsemble(t *testing.T) {
	t.Parallel()

	model := trainedTestModel(t)
	model.Forest.Trees = nil

	if err := model.Validate(); err == nil {
		t.Fatal("expected validation failure for a model with no trees")
	}

	engine := NewEngine()
	if err := engine.Load(model); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if engine.Loaded() {
		t.Fatal("rejected model must not be published")
	}
}

func TestPredictRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	if err := engine.Load(trainedTestModel(t)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if _, err := engine.Predict(make(FeatureVector, FeatureDim-1)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestPredictReturnsValidVerdict(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	if err := engine.Load(trainedTestModel(t)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	samples := syntheticDataset(25)
	for _, sample := range []LabeledSample{samples[0], samples[len(samples)-1]} {
		result, err := engine.Predict(sample.Features)
		if err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
		if result.Label != LabelHuman && result.Label != LabelAIGenerated {
			t.Fatalf("unexpected label %q", result.Label)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("confidence %g outside [0, 1]", result.Confidence)
		}
		if result.Explanation == "" {
			t.Fatal("expected a non-empty explanation")
		}

		expected := ClassNames()[sample.Label]
		if result.Label != expected {
			t.Fatalf("expected %s for a training-distribution sample, got %s (confidence %.3f)",
				expected, result.Label, result.Confidence)
		}
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	if err := engine.Load(trainedTestModel(t)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	vector := syntheticDataset(25)[3].Features
	first, err := engine.Predict(vector)
	if err != nil {
		t.Fatalf("first predict failed: %v", err)
	}
	second, err := engine.Predict(vector)
	if err != nil {
		t.Fatalf("second predict failed: %v", err)
	}

	if first.Label != second.Label || first.Confidence != second.Confidence {
		t.Fatalf("identical input produced different verdicts: %+v vs %+v", first, second)
	}
}

func TestEngineLoadSwapsModel(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	first := trainedTestModel(t)
	if err := engine.Load(first); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	cfg := smallTrainerConfig()
	cfg.Forest.Seed = 7
	second, err := Train(syntheticDataset(25), cfg)
	if err != nil {
		t.Fatalf("second training failed: %v", err)
	}
	if err := engine.Load(second); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	if engine.Model() != second {
		t.Fatal("engine did not publish the replacement model")
	}
}

func TestDominantFeatureGroup(t *testing.T) {
	t.Parallel()

	model := trainedTestModel(t)
	group := model.DominantFeatureGroup()
	switch group {
	case GroupCepstral, GroupSpectral, GroupPitchClass:
	default:
		t.Fatalf("unexpected dominant group %q", group)
	}

	// The synthetic shift lives on mfcc slots, so cepstral should win.
	if group != GroupCepstral {
		t.Fatalf("expected cepstral dominance, got %s", group)
	}

	result := Explanation(LabelHuman, 0.9, group)
	if !strings.Contains(result, "cepstral") {
		t.Fatalf("explanation missing dominant group suffix: %q", result)
	}
}
