package voice

import (
	"errors"
	"testing"
)

func testSignal(freq, duration float64) *AudioSignal {
	return &AudioSignal{
		Samples:    sineWave(freq, duration, 16000, 1.0),
		SampleRate: 16000,
	}
}

func TestExtractVectorMatchesSchema(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(DefaultExtractorConfig())
	vector, err := extractor.Extract(testSignal(440, 1.0))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(vector) != FeatureDim {
		t.Fatalf("expected %d features, got %d", FeatureDim, len(vector))
	}

	names := FeatureNames()
	if len(names) != FeatureDim {
		t.Fatalf("FeatureNames returned %d names, schema has %d slots", len(names), FeatureDim)
	}
	if names[0] != "mfcc_0_mean" {
		t.Fatalf("unexpected first feature name: %s", names[0])
	}
	if names[len(names)-1] != "chroma_11_max" {
		t.Fatalf("unexpected last feature name: %s", names[len(names)-1])
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(DefaultExtractorConfig())
	signal := testSignal(523.25, 2.0)

	first, err := extractor.Extract(signal)
	if err != nil {
		t.Fatalf("first extraction failed: %v", err)
	}
	second, err := extractor.Extract(signal)
	if err != nil {
		t.Fatalf("second extraction failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("feature %s differs between runs: %g vs %g",
				FeatureNames()[i], first[i], second[i])
		}
	}
}

func TestExtractRejectsShortSignal(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(DefaultExtractorConfig())
	_, err := extractor.Extract(testSignal(440, 0.3))
	if !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("expected ErrFeatureExtraction for 0.3s signal, got %v", err)
	}
}

func TestExtractRejectsNilSignal(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(DefaultExtractorConfig())
	if _, err := extractor.Extract(nil); !errors.Is(err, ErrFeatureExtraction) {
		t.Fatalf("expected ErrFeatureExtraction for nil signal, got %v", err)
	}
}

func TestExtractPureToneStatistics(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(DefaultExtractorConfig())
	vector, err := extractor.Extract(testSignal(440, 2.0))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	names := FeatureNames()
	byName := make(map[string]float64, len(names))
	for i, name := range names {
		byName[name] = vector[i]
	}

	// A pure 440 Hz tone crosses zero about 2*f/sr of the time.
	zcrMean := byName["zero_crossing_rate_mean"]
	expected := 2.0 * 440.0 / 16000.0
	if zcrMean < expected*0.7 || zcrMean > expected*1.3 {
		t.Fatalf("zero crossing rate %g outside expected range around %g", zcrMean, expected)
	}

	// A stationary tone has a nearly constant per-frame centroid.
	if byName["spectral_centroid_std"] > byName["spectral_centroid_mean"] {
		t.Fatalf("centroid std %g exceeds mean %g for a stationary tone",
			byName["spectral_centroid_std"], byName["spectral_centroid_mean"])
	}

	for i, v := range vector {
		if v != v {
			t.Fatalf("feature %s is NaN", names[i])
		}
	}
}

func TestFeatureGroupBoundaries(t *testing.T) {
	t.Parallel()

	if got := FeatureGroup(0); got != GroupCepstral {
		t.Fatalf("index 0 should be cepstral, got %s", got)
	}
	if got := FeatureGroup(NumMFCC*4 - 1); got != GroupCepstral {
		t.Fatalf("last mfcc slot should be cepstral, got %s", got)
	}
	if got := FeatureGroup(NumMFCC * 4); got != GroupSpectral {
		t.Fatalf("first spectral slot misgrouped as %s", got)
	}
	if got := FeatureGroup(FeatureDim - 1); got != GroupPitchClass {
		t.Fatalf("last slot should be pitch-class, got %s", got)
	}
}
