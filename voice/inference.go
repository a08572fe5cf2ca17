package voice

// Inference Engine
//
// Applies a trained model to a single feature vector. The model handle is a
// process-wide atomic pointer: Load publishes a fully constructed artifact
// with a single swap, so concurrent Predict calls either see the old model
// or the new one, never a partial state, and read without locking.

import (
	"fmt"
	"math"
	"sync/atomic"
)

// PredictionResult is the verdict for one inference call. Created fresh per
// call and never mutated.
type PredictionResult struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"fraud_risk_explanation"`
}

// Engine runs classification against the currently published model.
type Engine struct {
	model atomic.Pointer[Model]
}

// NewEngine returns an engine with no model loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// Load validates a model against the current extractor schema and publishes
// it atomically, replacing any previous model.
func (e *Engine) Load(m *Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	e.model.Store(m)
	return nil
}

// Model returns the currently published model, or nil.
func (e *Engine) Model() *Model {
	return e.model.Load()
}

// Loaded reports whether a model has been published.
func (e *Engine) Loaded() bool {
	return e.model.Load() != nil
}

// Predict classifies a single feature vector. A malformed vector or missing
// model is a caller error; nothing here retries.
func (e *Engine) Predict(features FeatureVector) (*PredictionResult, error) {
	m := e.model.Load()
	if m == nil {
		return nil, ErrModelNotLoaded
	}

	if len(features) != m.FeatureCount {
		return nil, fmt.Errorf("%w: vector has %d features, model expects %d",
			ErrSchemaMismatch, len(features), m.FeatureCount)
	}
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrFeatureExtraction, i)
		}
	}

	scaled := []float64(features)
	if m.Scaler != nil {
		scaled = m.Scaler.Transform(features)
	}

	probs, err := m.Forest.Probabilities(scaled)
	if err != nil {
		return nil, err
	}

	// Strict argmax; an exact tie resolves to the lowest class index, which
	// is HUMAN by construction.
	winner := argmax(probs)

	return &PredictionResult{
		Label:       m.Classes[winner],
		Confidence:  probs[winner],
		Explanation: Explanation(m.Classes[winner], probs[winner], m.DominantFeatureGroup()),
	}, nil
}
