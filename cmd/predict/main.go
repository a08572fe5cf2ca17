package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"voice-detection/modelstore"
	"voice-detection/utils"
	"voice-detection/voice"
	"voice-detection/wav"
)

func main() {
	defaultModel := utils.GetEnv("MODEL_PATH", filepath.Join("storage", "model.json"))

	modelFlag := flag.String("model", defaultModel, "Path to the trained model artifact")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: predict [-model path] <audio file> [audio file...]")
		os.Exit(1)
	}

	model, err := modelstore.Load(*modelFlag)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	engine := voice.NewEngine()
	if err := engine.Load(model); err != nil {
		log.Fatalf("failed to load model into engine: %v", err)
	}

	normCfg := voice.DefaultNormalizerConfig()
	extractor := voice.NewExtractor(voice.DefaultExtractorConfig())

	for _, path := range flag.Args() {
		if err := predictFile(engine, path, normCfg, extractor); err != nil {
			log.Printf("ERROR processing %s: %v\n", path, err)
		}
	}
}

func predictFile(engine *voice.Engine, path string, normCfg voice.NormalizerConfig, extractor *voice.Extractor) error {
	fmt.Printf("=== %s ===\n", filepath.Base(path))
	start := time.Now()

	wavPath, err := wav.ConvertToWAV(path, 1)
	if err != nil {
		return fmt.Errorf("convert to wav: %w", err)
	}
	if wavPath != path {
		defer os.Remove(wavPath)
	}

	info, err := wav.ReadWavInfo(wavPath)
	if err != nil {
		return fmt.Errorf("read wav info: %w", err)
	}
	samples, err := wav.WavBytesToSamples(info.Data)
	if err != nil {
		return fmt.Errorf("decode samples: %w", err)
	}

	signal, err := voice.NormalizeSignal(samples, info.Channels, info.SampleRate, normCfg)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	snrDb := voice.EstimateSNR(signal.Samples)

	features, err := extractor.Extract(signal)
	if err != nil {
		return fmt.Errorf("extract features: %w", err)
	}

	result, err := engine.Predict(features)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	fmt.Printf("Duration: %.2fs, SNR: %.1fdB\n", signal.Duration(), snrDb)
	fmt.Printf("Label: %s (%.1f%%)\n", result.Label, result.Confidence*100)
	fmt.Printf("%s\n", result.Explanation)
	fmt.Printf("Elapsed: %.2fms\n\n", time.Since(start).Seconds()*1000)
	return nil
}
