package voice

import "errors"

// Failure kinds surfaced by the pipeline. Callers branch on these with
// errors.Is; an analysis failure is always a rejection, never a
// low-confidence prediction.
var (
	// ErrDecode marks corrupt or unsupported audio input.
	ErrDecode = errors.New("audio decode failed")

	// ErrEmptySignal marks zero-length or silent audio.
	ErrEmptySignal = errors.New("audio signal is empty or silent")

	// ErrFeatureExtraction marks audio that cannot produce a valid feature
	// vector (too short, or statistics degenerated to NaN).
	ErrFeatureExtraction = errors.New("feature extraction failed")

	// ErrInsufficientData marks a training set without enough labeled
	// samples or classes to fit a model.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrSchemaMismatch marks a feature vector or model artifact whose
	// recorded schema does not match the current extractor. This indicates
	// a deployment inconsistency, not a bad input.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrModelNotLoaded marks an inference call before any model was
	// published to the engine.
	ErrModelNotLoaded = errors.New("no trained model loaded")
)
