package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"voice-detection/modelstore"
	"voice-detection/utils"
	"voice-detection/voice"
)

func main() {
	defaultModel := utils.GetEnv("MODEL_PATH", filepath.Join("storage", "model.json"))

	dirFlag := flag.String("dir", "data", "Dataset root with human/ and ai_generated/ subdirectories")
	modelFlag := flag.String("model", defaultModel, "Path to the trained model artifact")
	flag.Parse()

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

	samples, stats, err := voice.LoadDirectory(*dirFlag, normCfg, extractor)
	if err != nil {
		log.Fatalf("failed to load dataset from %s: %v", *dirFlag, err)
	}

	fmt.Printf("Evaluating %d samples from %s using model %s\n",
		len(samples), *dirFlag, *modelFlag)
	if stats.Skipped > 0 {
		fmt.Printf("(%d files skipped during ingestion)\n", stats.Skipped)
	}
	fmt.Println()

	classes := voice.ClassNames()
	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	start := time.Now()
	correct := 0
	for _, sample := range samples {
		result, err := engine.Predict(sample.Features)
		if err != nil {
			log.Printf("ERROR predicting sample: %v\n", err)
			continue
		}

		predicted := voice.ClassHuman
		if result.Label == voice.LabelAIGenerated {
			predicted = voice.ClassAIGenerated
		}
		confusion[sample.Label][predicted]++
		if predicted == sample.Label {
			correct++
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("Accuracy: %.4f (%d/%d)\n\n", float64(correct)/float64(len(samples)), correct, len(samples))
	fmt.Println("Confusion matrix (rows = actual, cols = predicted):")
	fmt.Printf("%-15s", "")
	for _, c := range classes {
		fmt.Printf("%15s", c)
	}
	fmt.Println()
	for i, row := range confusion {
		fmt.Printf("%-15s", classes[i])
		for _, count := range row {
			fmt.Printf("%15d", count)
		}
		fmt.Println()
	}

	fmt.Printf("\nElapsed: %.2fs (%.2fms per sample)\n",
		elapsed.Seconds(), elapsed.Seconds()*1000/float64(len(samples)))
}
