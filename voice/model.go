package voice

import (
	"errors"
	"math"
	"time"
)

// Class indices and labels. Index order is part of the model artifact;
// HUMAN deliberately sits at index 0 so an exact probability tie never
// resolves to an AI-fraud accusation.
const (
	ClassHuman       = 0
	ClassAIGenerated = 1

	LabelHuman       = "HUMAN"
	LabelAIGenerated = "AI_GENERATED"
)

// ClassNames returns the canonical label order.
func ClassNames() []string {
	return []string{LabelHuman, LabelAIGenerated}
}

// LabeledSample pairs a feature vector with its ground-truth class. Created
// during dataset ingestion, consumed by Train, not retained afterwards.
type LabeledSample struct {
	Features FeatureVector
	Label    int
}

// ClassMetrics holds held-out evaluation results for one class.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ValidationMetrics summarizes a training run.
type ValidationMetrics struct {
	TrainSamples int            `json:"trainSamples"`
	TestSamples  int            `json:"testSamples"`
	Accuracy     float64        `json:"accuracy"`
	MacroF1      float64        `json:"macroF1"`
	PerClass     []ClassMetrics `json:"perClass"`
	// Confusion[actual][predicted] over the held-out partition.
	Confusion [][]int `json:"confusion"`
	// Cross-validation accuracy over the training partition, independent
	// of the held-out score. CVFolds is 0 when the partition was too small
	// to fold.
	CVFolds int     `json:"cvFolds"`
	CVMean  float64 `json:"cvMean"`
	CVStd   float64 `json:"cvStd"`
}

// Model is the immutable trained artifact: the fitted ensemble bound to the
// exact feature schema it was trained against. Shared read-only across
// concurrent inference calls; replaced only by a full retrain.
type Model struct {
	SchemaVersion int               `json:"schemaVersion"`
	FeatureCount  int               `json:"featureCount"`
	FeatureNames  []string          `json:"featureNames"`
	Classes       []string          `json:"classes"`
	Scaler        *FeatureScaler    `json:"scaler"`
	Forest        *Forest           `json:"forest"`
	Metrics       ValidationMetrics `json:"metrics"`
	Seed          int64             `json:"seed"`
	TrainedAt     time.Time         `json:"trainedAt"`
}

// Validate checks the artifact against the current extractor schema.
// A mismatch means the model was trained by an incompatible extractor and
// must be refused, never reconciled.
func (m *Model) Validate() error {
	if m == nil || m.Forest == nil || len(m.Forest.Trees) == 0 {
		return errors.New("model has no fitted ensemble")
	}
	if m.SchemaVersion != SchemaVersion {
		return errors.New("model schema version differs from extractor")
	}
	if m.FeatureCount != FeatureDim || m.Forest.NumFeatures != FeatureDim {
		return errors.New("model feature count differs from extractor")
	}
	if len(m.Classes) != m.Forest.NumClasses {
		return errors.New("model class list does not match ensemble")
	}
	if m.Scaler != nil && len(m.Scaler.Mean) != m.FeatureCount {
		return errors.New("model scaler does not match feature count")
	}
	return nil
}

// DominantFeatureGroup reports which feature group carries the most
// ensemble importance, for explanation text.
func (m *Model) DominantFeatureGroup() string {
	if m.Forest == nil || len(m.Forest.Importances) == 0 {
		return ""
	}
	groupTotals := map[string]float64{}
	for i, imp := range m.Forest.Importances {
		groupTotals[FeatureGroup(i)] += imp
	}

	best := ""
	bestTotal := 0.0
	for _, group := range []string{GroupCepstral, GroupSpectral, GroupPitchClass} {
		if groupTotals[group] > bestTotal {
			best = group
			bestTotal = groupTotals[group]
		}
	}
	return best
}

// FeatureScaler standardizes each feature dimension to mean 0 and std 1,
// fitted on the training partition and stored in the model so inference
// applies the identical transform.
type FeatureScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// NewFeatureScaler computes scaling parameters from a feature matrix.
func NewFeatureScaler(features [][]float64) (*FeatureScaler, error) {
	if len(features) == 0 {
		return nil, errors.New("no samples provided")
	}
	featureCount := len(features[0])
	if featureCount == 0 {
		return nil, errors.New("samples have no features")
	}

	mean := make([]float64, featureCount)
	for _, row := range features {
		if len(row) != featureCount {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, val := range row {
			mean[i] += val
		}
	}
	for i := range mean {
		mean[i] /= float64(len(features))
	}

	stddev := make([]float64, featureCount)
	for _, row := range features {
		for i, val := range row {
			diff := val - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(features)))
		// Constant features would otherwise divide by zero.
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	return &FeatureScaler{Mean: mean, Stddev: stddev}, nil
}

// Transform applies z-score standardization to a feature vector.
func (fs *FeatureScaler) Transform(features []float64) []float64 {
	if len(features) != len(fs.Mean) {
		return features
	}
	scaled := make([]float64, len(features))
	for i, val := range features {
		scaled[i] = (val - fs.Mean[i]) / fs.Stddev[i]
	}
	return scaled
}
