package modelstore

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"voice-detection/voice"
)

func trainedModel(t *testing.T) *voice.Model {
	t.Helper()

	samples := make([]voice.LabeledSample, 0, 40)
	for c := 0; c < 2; c++ {
		for i := 0; i < 20; i++ {
			row := make(voice.FeatureVector, voice.FeatureDim)
			for d := range row {
				row[d] = math.Sin(float64(i*5+d+c)) * 0.3
			}
			row[0] += float64(c) * 5
			samples = append(samples, voice.LabeledSample{Features: row, Label: c})
		}
	}

	cfg := voice.DefaultTrainerConfig()
	cfg.Forest.NumTrees = 10
	cfg.Forest.MaxDepth = 5
	model, err := voice.Train(samples, cfg)
	if err != nil {
		t.Fatalf("failed to train model: %v", err)
	}
	return model
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	model := trainedModel(t)
	path := filepath.Join(t.TempDir(), "nested", "model.json")

	if err := Save(model, path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.FeatureCount != model.FeatureCount {
		t.Fatalf("feature count changed: %d vs %d", loaded.FeatureCount, model.FeatureCount)
	}
	if loaded.SchemaVersion != model.SchemaVersion {
		t.Fatalf("schema version changed: %d vs %d", loaded.SchemaVersion, model.SchemaVersion)
	}
	if !loaded.TrainedAt.Equal(model.TrainedAt) {
		t.Fatalf("trained timestamp changed: %v vs %v", loaded.TrainedAt, model.TrainedAt)
	}
	if len(loaded.FeatureNames) != voice.FeatureDim {
		t.Fatalf("expected %d feature names, got %d", voice.FeatureDim, len(loaded.FeatureNames))
	}

	// The reloaded ensemble must behave identically.
	probe := make([]float64, voice.FeatureDim)
	probe[0] = 5
	scaledOrig := model.Scaler.Transform(probe)
	scaledLoaded := loaded.Scaler.Transform(probe)
	origProbs, err := model.Forest.Probabilities(scaledOrig)
	if err != nil {
		t.Fatalf("original probabilities failed: %v", err)
	}
	loadedProbs, err := loaded.Forest.Probabilities(scaledLoaded)
	if err != nil {
		t.Fatalf("loaded probabilities failed: %v", err)
	}
	for c := range origProbs {
		if origProbs[c] != loadedProbs[c] {
			t.Fatalf("class %d probability changed after round trip: %g vs %g",
				c, origProbs[c], loadedProbs[c])
		}
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	if err := Save(trainedModel(t), path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind after save")
	}
}

func TestLoadRejectsIncompatibleArtifact(t *testing.T) {
	t.Parallel()

	model := trainedModel(t)
	model.FeatureCount = 100

	data, err := json.Marshal(model)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "stale.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, voice.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
