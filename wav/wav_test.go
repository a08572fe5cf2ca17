package wav

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 1600)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}

	pcm := SamplesToWavBytes(samples)
	container, err := EncodeWavBytes(pcm, 16000, 1, 16)
	if err != nil {
		t.Fatalf("EncodeWavBytes returned error: %v", err)
	}

	info, err := DecodeWavBytes(container)
	if err != nil {
		t.Fatalf("DecodeWavBytes returned error: %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Fatalf("unexpected format: %+v", info)
	}
	if math.Abs(info.Duration-0.1) > 0.001 {
		t.Fatalf("expected 0.1s duration, got %.4f", info.Duration)
	}

	decoded, err := WavBytesToSamples(info.Data)
	if err != nil {
		t.Fatalf("WavBytesToSamples returned error: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("sample count changed: %d vs %d", len(decoded), len(samples))
	}
	for i := range samples {
		// 16-bit quantization error bound.
		if math.Abs(decoded[i]-samples[i]) > 1.0/32768.0+1e-9 {
			t.Fatalf("sample %d drifted beyond quantization error: %g vs %g",
				i, decoded[i], samples[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeWavBytes([]byte("not a riff container at all")); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
	if _, err := DecodeWavBytes([]byte("RIFF")); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestDecodeRejectsNonPCM(t *testing.T) {
	t.Parallel()

	pcm := SamplesToWavBytes(make([]float64, 100))
	container, err := EncodeWavBytes(pcm, 8000, 1, 16)
	if err != nil {
		t.Fatalf("EncodeWavBytes returned error: %v", err)
	}
	// Overwrite the audio format field with IEEE float (3).
	container[20] = 3

	if _, err := DecodeWavBytes(container); err == nil {
		t.Fatal("expected error for non-PCM format")
	}
}

func TestWavBytesToSamplesRejectsOddLength(t *testing.T) {
	t.Parallel()

	if _, err := WavBytesToSamples([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for unaligned PCM data")
	}
	if _, err := WavBytesToSamples(nil); err == nil {
		t.Fatal("expected error for empty PCM data")
	}
}

func TestWriteAndReadWavFile(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 800)
	for i := range samples {
		samples[i] = 0.25 * math.Sin(2*math.Pi*220*float64(i)/8000)
	}
	pcm := SamplesToWavBytes(samples)

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteWavFile(path, pcm, 8000, 1, 16); err != nil {
		t.Fatalf("WriteWavFile returned error: %v", err)
	}

	info, err := ReadWavInfo(path)
	if err != nil {
		t.Fatalf("ReadWavInfo returned error: %v", err)
	}
	if info.SampleRate != 8000 {
		t.Fatalf("expected 8000 Hz, got %d", info.SampleRate)
	}
	if len(info.Data) != len(pcm) {
		t.Fatalf("PCM payload changed: %d vs %d bytes", len(info.Data), len(pcm))
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
}
