package wav

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CheckFFmpegAvailable reports whether the ffmpeg binary can be found.
// Native WAV input never needs it; every other container does.
func CheckFFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// ConvertToWAV converts an arbitrary audio file into a 16-bit PCM WAV with
// the requested channel count, returning the path of the converted file.
// WAV input is passed through untouched.
func ConvertToWAV(inputPath string, channels int) (string, error) {
	if channels <= 0 {
		channels = 1
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext == ".wav" {
		return inputPath, nil
	}

	outputPath := strings.TrimSuffix(inputPath, ext) + ".wav"
	cmd := exec.Command(
		"ffmpeg", "-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to convert %s to wav: %w (%s)", inputPath, err, string(output))
	}

	return outputPath, nil
}

// ReformatWAV rewrites a WAV file as 16-bit PCM with the requested channel
// count, returning the path of the reformatted copy.
func ReformatWAV(inputPath string, channels int) (string, error) {
	if channels <= 0 {
		channels = 1
	}

	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + "_rfm.wav"
	cmd := exec.Command(
		"ffmpeg", "-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to reformat %s: %w (%s)", inputPath, err, string(output))
	}

	return outputPath, nil
}
