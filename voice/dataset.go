package voice

// Dataset ingestion for training: walks the two class directories, converts
// anything non-WAV through ffmpeg, and runs each file through the
// normalize/extract pipeline. Files that fail to decode or extract are
// skipped with a log line so one corrupt upload never aborts a training run.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voice-detection/utils"
	"voice-detection/wav"
)

// Directory names under the dataset root, one per class.
const (
	HumanDirName = "human"
	AIDirName    = "ai_generated"
)

// audioExtensions lists formats accepted for ingestion. Non-WAV entries are
// converted with ffmpeg before decoding.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
}

// DatasetStats summarizes an ingestion pass.
type DatasetStats struct {
	HumanSamples int
	AISamples    int
	Skipped      int
}

// LoadDirectory ingests a dataset root laid out as root/human and
// root/ai_generated, returning labeled feature vectors ready for Train.
func LoadDirectory(root string, normCfg NormalizerConfig, extractor *Extractor) ([]LabeledSample, DatasetStats, error) {
	logger := utils.GetLogger()
	stats := DatasetStats{}

	classDirs := []struct {
		name  string
		label int
	}{
		{HumanDirName, ClassHuman},
		{AIDirName, ClassAIGenerated},
	}

	var samples []LabeledSample
	for _, class := range classDirs {
		dir := filepath.Join(root, class.name)
		files, err := collectAudioFiles(dir)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to list %s: %w", dir, err)
		}

		for _, path := range files {
			sample, err := SampleFromFile(path, class.label, normCfg, extractor)
			if err != nil {
				logger.Info(fmt.Sprintf("skipping %s: %v", path, err))
				stats.Skipped++
				continue
			}
			samples = append(samples, *sample)
			if class.label == ClassHuman {
				stats.HumanSamples++
			} else {
				stats.AISamples++
			}
		}
	}

	if len(samples) == 0 {
		return nil, stats, fmt.Errorf("%w: no usable audio under %s", ErrInsufficientData, root)
	}
	return samples, stats, nil
}

// SampleFromFile runs one audio file through conversion, normalization and
// extraction.
func SampleFromFile(path string, label int, normCfg NormalizerConfig, extractor *Extractor) (*LabeledSample, error) {
	wavPath, err := wav.ConvertToWAV(path, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: convert: %v", ErrDecode, err)
	}
	if wavPath != path {
		defer os.Remove(wavPath)
	}

	info, err := wav.ReadWavInfo(wavPath)
	if err != nil {
		// WAV containers that are not 16-bit PCM (float32 exports are
		// common) go through ffmpeg once before giving up.
		rfmPath, rfmErr := wav.ReformatWAV(wavPath, 1)
		if rfmErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		defer os.Remove(rfmPath)
		info, err = wav.ReadWavInfo(rfmPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	}
	samples, err := wav.WavBytesToSamples(info.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	signal, err := NormalizeSignal(samples, info.Channels, info.SampleRate, normCfg)
	if err != nil {
		return nil, err
	}

	features, err := extractor.Extract(signal)
	if err != nil {
		return nil, err
	}

	return &LabeledSample{Features: features, Label: label}, nil
}

// collectAudioFiles lists supported audio files in a directory, sorted so
// ingestion order is stable across runs.
func collectAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
