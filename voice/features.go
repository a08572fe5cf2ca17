package voice

// Feature Extraction Pipeline
//
// Derives the fixed 116-dimensional fingerprint (see schema.go) from a
// normalized signal using framed short-time analysis:
//
// Cepstral block:
//   - 13 MFCCs per frame: Hann window -> FFT -> power spectrum -> 128-band
//     mel filterbank -> log -> DCT-II. Captures the short-term spectral
//     envelope; synthetic speech tends to show narrower variance here than
//     natural speech.
//
// Spectral-shape block (per frame):
//   - Spectral Centroid: "brightness", weighted average frequency
//   - Spectral Rolloff: frequency below which 85% of energy is contained
//   - Zero Crossing Rate: rate of sign changes, indicates noisiness
//   - Spectral Bandwidth: spread of frequencies around the centroid
//
// Pitch-class block:
//   - 12 chroma bins per frame, octave-folded energy per pitch class.
//     Flags unnaturally regular pitch contours.
//
// Each per-frame series is reduced to mean/std/min/max and the blocks are
// concatenated in the fixed schema order. Extraction is fully deterministic:
// the same signal always yields the identical vector.

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FeatureVector is an ordered, fixed-length acoustic fingerprint.
type FeatureVector []float64

// ExtractorConfig holds the short-time analysis parameters. These are part
// of the schema contract: changing them invalidates trained models.
type ExtractorConfig struct {
	FrameSize       int     // FFT window size in samples, power of two
	HopSize         int     // samples between successive frames
	NumMels         int     // mel bands feeding the cepstral block
	RolloffFraction float64 // energy fraction for the rolloff frequency
	MinDuration     float64 // seconds; shorter signals fail extraction
}

// DefaultExtractorConfig returns the standard analysis parameters.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		FrameSize:       2048,
		HopSize:         512,
		NumMels:         128,
		RolloffFraction: 0.85,
		MinDuration:     0.5,
	}
}

// Extractor computes feature vectors. Safe for concurrent use: it holds
// only immutable configuration.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor builds an extractor, falling back to defaults for missing
// or invalid parameters.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	def := DefaultExtractorConfig()
	if cfg.FrameSize <= 0 || cfg.FrameSize&(cfg.FrameSize-1) != 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.HopSize <= 0 {
		cfg.HopSize = def.HopSize
	}
	if cfg.NumMels <= 0 {
		cfg.NumMels = def.NumMels
	}
	if cfg.RolloffFraction <= 0 || cfg.RolloffFraction >= 1 {
		cfg.RolloffFraction = def.RolloffFraction
	}
	if cfg.MinDuration < 0 {
		cfg.MinDuration = def.MinDuration
	}
	return &Extractor{cfg: cfg}
}

// Config returns the analysis parameters in use.
func (e *Extractor) Config() ExtractorConfig {
	return e.cfg
}

// Extract derives the feature vector for a normalized signal.
func (e *Extractor) Extract(sig *AudioSignal) (FeatureVector, error) {
	if sig == nil || len(sig.Samples) == 0 {
		return nil, fmt.Errorf("%w: no signal", ErrFeatureExtraction)
	}
	if sig.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrFeatureExtraction, sig.SampleRate)
	}
	if sig.Duration() < e.cfg.MinDuration {
		return nil, fmt.Errorf("%w: signal is %.3fs, minimum is %.3fs",
			ErrFeatureExtraction, sig.Duration(), e.cfg.MinDuration)
	}
	if len(sig.Samples) < e.cfg.FrameSize {
		// Padding would bias every variance-based statistic, so refuse.
		return nil, fmt.Errorf("%w: signal has %d samples, one analysis frame needs %d",
			ErrFeatureExtraction, len(sig.Samples), e.cfg.FrameSize)
	}

	frameCount := 1 + (len(sig.Samples)-e.cfg.FrameSize)/e.cfg.HopSize
	binCount := e.cfg.FrameSize / 2

	window := hannWindow(e.cfg.FrameSize)
	freqs := make([]float64, binCount)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sig.SampleRate) / float64(e.cfg.FrameSize)
	}
	melBank := buildMelFilterbank(e.cfg.NumMels, binCount, sig.SampleRate, e.cfg.FrameSize)
	dct := buildDCTMatrix(NumMFCC, e.cfg.NumMels)
	chromaBins := buildChromaMap(freqs)

	mfccSeries := make([][]float64, NumMFCC)
	for i := range mfccSeries {
		mfccSeries[i] = make([]float64, frameCount)
	}
	centroidSeries := make([]float64, frameCount)
	rolloffSeries := make([]float64, frameCount)
	zcrSeries := make([]float64, frameCount)
	bandwidthSeries := make([]float64, frameCount)
	chromaSeries := make([][]float64, NumChroma)
	for i := range chromaSeries {
		chromaSeries[i] = make([]float64, frameCount)
	}

	windowed := make([]float64, e.cfg.FrameSize)
	magnitude := make([]float64, binCount)
	power := make([]float64, binCount)
	melEnergy := make([]float64, e.cfg.NumMels)
	frameChroma := make([]float64, NumChroma)

	for f := 0; f < frameCount; f++ {
		start := f * e.cfg.HopSize
		frame := sig.Samples[start : start+e.cfg.FrameSize]

		zcrSeries[f] = zeroCrossingRate(frame)

		for i, s := range frame {
			windowed[i] = s * window[i]
		}
		spectrum := FFT(windowed)
		for i := 0; i < binCount; i++ {
			mag := cmplx.Abs(spectrum[i])
			magnitude[i] = mag
			power[i] = mag * mag
		}

		// Cepstral coefficients.
		for m := 0; m < e.cfg.NumMels; m++ {
			var energy float64
			for _, tap := range melBank[m] {
				energy += power[tap.bin] * tap.weight
			}
			melEnergy[m] = math.Log(energy + 1e-10)
		}
		for k := 0; k < NumMFCC; k++ {
			var sum float64
			for n := 0; n < e.cfg.NumMels; n++ {
				sum += melEnergy[n] * dct[k][n]
			}
			mfccSeries[k][f] = sum
		}

		// Spectral shape.
		centroid := spectralCentroid(magnitude, freqs)
		centroidSeries[f] = centroid
		rolloffSeries[f] = spectralRolloff(magnitude, freqs, e.cfg.RolloffFraction)
		bandwidthSeries[f] = spectralBandwidth(magnitude, freqs, centroid)

		// Pitch classes: octave-folded energy, normalized per frame so the
		// statistics describe the distribution shape, not overall loudness.
		for i := range frameChroma {
			frameChroma[i] = 0
		}
		for i, pc := range chromaBins {
			if pc >= 0 {
				frameChroma[pc] += power[i]
			}
		}
		peak := 0.0
		for _, v := range frameChroma {
			if v > peak {
				peak = v
			}
		}
		for i, v := range frameChroma {
			if peak > 0 {
				chromaSeries[i][f] = v / peak
			} else {
				chromaSeries[i][f] = 0
			}
		}
	}

	vector := make(FeatureVector, 0, FeatureDim)
	for k := 0; k < NumMFCC; k++ {
		vector = appendStatistics(vector, mfccSeries[k])
	}
	vector = appendStatistics(vector, centroidSeries)
	vector = appendStatistics(vector, rolloffSeries)
	vector = appendStatistics(vector, zcrSeries)
	vector = appendStatistics(vector, bandwidthSeries)
	for i := 0; i < NumChroma; i++ {
		vector = appendStatistics(vector, chromaSeries[i])
	}

	if len(vector) != FeatureDim {
		return nil, fmt.Errorf("%w: produced %d values, schema requires %d",
			ErrSchemaMismatch, len(vector), FeatureDim)
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite value at %s",
				ErrFeatureExtraction, FeatureNames()[i])
		}
	}

	return vector, nil
}

// appendStatistics reduces a per-frame series to mean, std, min and max.
func appendStatistics(dst FeatureVector, series []float64) FeatureVector {
	mean := 0.0
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series {
		mean += v
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	mean /= float64(len(series))

	variance := 0.0
	for _, v := range series {
		diff := v - mean
		variance += diff * diff
	}
	std := math.Sqrt(variance / float64(len(series)))

	return append(dst, mean, std, minVal, maxVal)
}

func hannWindow(length int) []float64 {
	window := make([]float64, length)
	if length <= 1 {
		for i := range window {
			window[i] = 1
		}
		return window
	}
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos((2*math.Pi*float64(i))/float64(length-1)))
	}
	return window
}

func zeroCrossingRate(samples []float64) float64 {
	if len(samples) <= 1 {
		return 0
	}
	var count float64
	for i := 1; i < len(samples); i++ {
		if samples[i-1] == 0 || samples[i] == 0 {
			continue
		}
		if (samples[i-1] > 0) != (samples[i] > 0) {
			count++
		}
	}
	return count / float64(len(samples)-1)
}

func spectralCentroid(magnitude, freqs []float64) float64 {
	var weightedSum float64
	var total float64
	for i := range magnitude {
		weightedSum += magnitude[i] * freqs[i]
		total += magnitude[i]
	}
	if total == 0 {
		return 0
	}
	return weightedSum / total
}

func spectralBandwidth(magnitude, freqs []float64, centroid float64) float64 {
	var variance float64
	var total float64
	for i := range magnitude {
		deviation := freqs[i] - centroid
		variance += magnitude[i] * deviation * deviation
		total += magnitude[i]
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(variance / total)
}

func spectralRolloff(magnitude, freqs []float64, threshold float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}

	var total float64
	for _, mag := range magnitude {
		total += mag
	}
	if total == 0 {
		return 0
	}

	target := threshold * total
	var cumulative float64
	for i, mag := range magnitude {
		cumulative += mag
		if cumulative >= target {
			return freqs[i]
		}
	}
	return freqs[len(freqs)-1]
}

// melFilterTap is one weighted spectrum bin inside a triangular mel filter.
type melFilterTap struct {
	bin    int
	weight float64
}

// buildMelFilterbank constructs triangular filters evenly spaced on the mel
// scale between 0 Hz and the Nyquist frequency.
func buildMelFilterbank(numMels, binCount, sampleRate, fftSize int) [][]melFilterTap {
	melLow := hzToMel(0)
	melHigh := hzToMel(float64(sampleRate) / 2)

	// numMels+2 edge points: each filter spans [edge[m], edge[m+2]] with its
	// peak at edge[m+1].
	edges := make([]float64, numMels+2)
	for i := range edges {
		mel := melLow + (melHigh-melLow)*float64(i)/float64(numMels+1)
		edges[i] = melToHz(mel)
	}

	bank := make([][]melFilterTap, numMels)
	binWidth := float64(sampleRate) / float64(fftSize)
	for m := 0; m < numMels; m++ {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		var taps []melFilterTap
		for i := 0; i < binCount; i++ {
			freq := float64(i) * binWidth
			var weight float64
			switch {
			case freq <= lower || freq >= upper:
				continue
			case freq <= center:
				weight = (freq - lower) / (center - lower)
			default:
				weight = (upper - freq) / (upper - center)
			}
			if weight > 0 {
				taps = append(taps, melFilterTap{bin: i, weight: weight})
			}
		}
		bank[m] = taps
	}
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// buildDCTMatrix returns an orthonormal DCT-II matrix of numCoeffs rows.
func buildDCTMatrix(numCoeffs, length int) [][]float64 {
	matrix := make([][]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		row := make([]float64, length)
		scale := math.Sqrt(2.0 / float64(length))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(length))
		}
		for n := 0; n < length; n++ {
			row[n] = scale * math.Cos(math.Pi*(float64(n)+0.5)*float64(k)/float64(length))
		}
		matrix[k] = row
	}
	return matrix
}

// buildChromaMap assigns each spectrum bin to a pitch class (0 = C), or -1
// for bins outside the usable pitch range.
func buildChromaMap(freqs []float64) []int {
	const lowestPitchHz = 32.0 // below C1 the bin resolution is useless
	mapping := make([]int, len(freqs))
	for i, freq := range freqs {
		if freq < lowestPitchHz {
			mapping[i] = -1
			continue
		}
		// Semitones above A4, folded to a C-based octave.
		semitone := int(math.Round(12 * math.Log2(freq/440.0)))
		mapping[i] = ((semitone+9)%12 + 12) % 12
	}
	return mapping
}
