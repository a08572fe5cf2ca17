package voice

// Signal Normalization
//
// Converts decoded PCM audio into the canonical form consumed by the
// feature extractor: 16 kHz, single channel, peak amplitude 1.0. Resampling
// goes through a quality-preserving polyphase resampler rather than naive
// decimation, so aliasing does not leak into the spectral statistics.

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"

	"voice-detection/wav"
)

// silenceFloor is the peak amplitude below which a signal is treated as
// silent rather than normalized (dividing by it would just amplify noise).
const silenceFloor = 1e-6

// AudioSignal is a normalized, single-channel waveform. It is produced by
// the normalizer, consumed once by the feature extractor, and not retained.
type AudioSignal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s *AudioSignal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// NormalizerConfig controls the canonical signal format.
type NormalizerConfig struct {
	TargetSampleRate int
}

// DefaultNormalizerConfig returns the standard 16 kHz speech configuration.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{TargetSampleRate: 16000}
}

// NormalizeWavBytes decodes a WAV container and normalizes it.
func NormalizeWavBytes(data []byte, cfg NormalizerConfig) (*AudioSignal, error) {
	info, err := wav.DecodeWavBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	samples, err := wav.WavBytesToSamples(info.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return NormalizeSignal(samples, info.Channels, info.SampleRate, cfg)
}

// NormalizeSignal converts interleaved PCM samples into an AudioSignal:
// downmix to mono, resample to the target rate, normalize peak amplitude.
func NormalizeSignal(samples []float64, channels, sampleRate int, cfg NormalizerConfig) (*AudioSignal, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrEmptySignal)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid format (channels=%d rate=%d)", ErrDecode, channels, sampleRate)
	}
	if cfg.TargetSampleRate <= 0 {
		cfg = DefaultNormalizerConfig()
	}

	mono := downmix(samples, channels)

	if sampleRate != cfg.TargetSampleRate {
		resampled, err := resample(mono, sampleRate, cfg.TargetSampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: resample: %v", ErrDecode, err)
		}
		mono = resampled
	}

	if len(mono) == 0 {
		return nil, fmt.Errorf("%w: no samples after resampling", ErrEmptySignal)
	}

	if err := PeakNormalize(mono); err != nil {
		return nil, err
	}

	return &AudioSignal{Samples: mono, SampleRate: cfg.TargetSampleRate}, nil
}

// PeakNormalize rescales samples in place so the peak absolute amplitude is
// 1.0. Silent input fails with ErrEmptySignal instead of dividing by zero.
// Re-normalizing an already normalized signal is a no-op.
func PeakNormalize(samples []float64) error {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < silenceFloor {
		return fmt.Errorf("%w: peak amplitude %g below silence floor", ErrEmptySignal, peak)
	}

	factor := 1.0 / peak
	for i := range samples {
		samples[i] *= factor
	}
	return nil
}

// downmix averages interleaved channels into a single channel.
func downmix(samples []float64, channels int) []float64 {
	if channels == 1 {
		mono := make([]float64, len(samples))
		copy(mono, samples)
		return mono
	}

	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

func resample(samples []float64, fromRate, toRate int) ([]float64, error) {
	config := &resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	resampler, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	output, err := resampler.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return output, nil
}
