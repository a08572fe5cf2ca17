package voice

// Feature Schema
//
// The feature vector layout is the wire contract between the extractor and
// every trained model: dimensionality and field order must never change
// silently. Any change to the block composition or statistic set below must
// bump SchemaVersion, which invalidates previously persisted models.
//
// Layout (116 values):
//
//	mfcc_0..mfcc_12          x (mean, std, min, max)   52
//	spectral_centroid        x (mean, std, min, max)    4
//	spectral_rolloff         x (mean, std, min, max)    4
//	zero_crossing_rate       x (mean, std, min, max)    4
//	spectral_bandwidth       x (mean, std, min, max)    4
//	chroma_0..chroma_11      x (mean, std, min, max)   48

import "fmt"

// SchemaVersion identifies the current feature vector layout.
const SchemaVersion = 1

const (
	// NumMFCC is the number of cepstral coefficients per frame.
	NumMFCC = 13
	// NumChroma is the number of pitch-class bins.
	NumChroma = 12

	numStats              = 4 // mean, std, min, max
	spectralSeriesCount   = 4 // centroid, rolloff, zcr, bandwidth
	cepstralBlockLength   = NumMFCC * numStats
	spectralBlockLength   = spectralSeriesCount * numStats
	pitchClassBlockLength = NumChroma * numStats
)

// FeatureDim is the fixed length of every feature vector.
const FeatureDim = cepstralBlockLength + spectralBlockLength + pitchClassBlockLength

// Feature groups used for explainability.
const (
	GroupCepstral   = "cepstral"
	GroupSpectral   = "spectral"
	GroupPitchClass = "pitch-class"
)

var statNames = [numStats]string{"mean", "std", "min", "max"}

var spectralSeriesNames = [spectralSeriesCount]string{
	"spectral_centroid",
	"spectral_rolloff",
	"zero_crossing_rate",
	"spectral_bandwidth",
}

// FeatureNames returns the ordered, human-readable name of every vector
// slot. The order is the schema.
func FeatureNames() []string {
	names := make([]string, 0, FeatureDim)
	for i := 0; i < NumMFCC; i++ {
		for _, stat := range statNames {
			names = append(names, fmt.Sprintf("mfcc_%d_%s", i, stat))
		}
	}
	for _, series := range spectralSeriesNames {
		for _, stat := range statNames {
			names = append(names, fmt.Sprintf("%s_%s", series, stat))
		}
	}
	for i := 0; i < NumChroma; i++ {
		for _, stat := range statNames {
			names = append(names, fmt.Sprintf("chroma_%d_%s", i, stat))
		}
	}
	return names
}

// FeatureGroup maps a vector index to its feature group.
func FeatureGroup(index int) string {
	switch {
	case index < cepstralBlockLength:
		return GroupCepstral
	case index < cepstralBlockLength+spectralBlockLength:
		return GroupSpectral
	default:
		return GroupPitchClass
	}
}
