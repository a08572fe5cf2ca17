package main

import (
	"flag"
	"log"
	"os"
	"time"

	"voice-detection/modelstore"
	"voice-detection/voice"
)

// Config holds training configuration
type Config struct {
	DataDir    string
	OutputPath string
	NumTrees   int
	MaxDepth   int
	Seed       int64
}

func main() {
	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("=== Voice Detection Training Pipeline ===\n")
	log.Printf("Training data: %s\n", config.DataDir)
	log.Printf("Output model: %s\n", config.OutputPath)
	log.Println()

	startTime := time.Now()

	// Step 1: Ingest the dataset
	log.Println("Step 1: Loading audio dataset...")
	normCfg := voice.DefaultNormalizerConfig()
	extractor := voice.NewExtractor(voice.DefaultExtractorConfig())

	samples, stats, err := voice.LoadDirectory(config.DataDir, normCfg, extractor)
	if err != nil {
		log.Fatalf("ERROR: Failed to load dataset: %v", err)
	}
	log.Printf("  %-15s: %d samples\n", voice.LabelHuman, stats.HumanSamples)
	log.Printf("  %-15s: %d samples\n", voice.LabelAIGenerated, stats.AISamples)
	if stats.Skipped > 0 {
		log.Printf("  WARNING: %d files skipped\n", stats.Skipped)
	}
	log.Println()

	// Step 2: Train
	log.Println("Step 2: Training classifier...")
	trainerCfg := voice.DefaultTrainerConfig()
	if config.NumTrees > 0 {
		trainerCfg.Forest.NumTrees = config.NumTrees
	}
	if config.MaxDepth > 0 {
		trainerCfg.Forest.MaxDepth = config.MaxDepth
	}
	trainerCfg.Forest.Seed = config.Seed

	model, err := voice.Train(samples, trainerCfg)
	if err != nil {
		log.Fatalf("ERROR: Training failed: %v", err)
	}
	log.Println()

	// Step 3: Persist the artifact
	log.Println("Step 3: Saving model to disk...")
	if err := modelstore.Save(model, config.OutputPath); err != nil {
		log.Fatalf("ERROR: Failed to save model: %v", err)
	}
	log.Printf("Model saved to: %s\n", config.OutputPath)
	log.Println()

	printTrainingSummary(model, startTime)
}

func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.DataDir, "data-dir", "data",
		"Dataset root containing human/ and ai_generated/ subdirectories")
	flag.StringVar(&config.OutputPath, "output", "storage/model.json",
		"Output path for the trained model artifact")
	flag.IntVar(&config.NumTrees, "trees", 0,
		"Number of trees in the ensemble (0 = default)")
	flag.IntVar(&config.MaxDepth, "depth", 0,
		"Maximum tree depth (0 = default)")
	flag.Int64Var(&config.Seed, "seed", 42,
		"Random seed for reproducible training")

	flag.Parse()

	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		log.Fatalf("ERROR: Dataset directory does not exist: %s", config.DataDir)
	}

	return config
}

func printTrainingSummary(model *voice.Model, startTime time.Time) {
	elapsed := time.Since(startTime)
	m := model.Metrics

	log.Println("=== Training Summary ===")
	log.Println()
	log.Printf("Training samples: %d\n", m.TrainSamples)
	log.Printf("Held-out samples: %d\n", m.TestSamples)
	log.Printf("Held-out accuracy: %.4f\n", m.Accuracy)
	log.Printf("Macro F1: %.4f\n", m.MacroF1)
	if m.CVFolds > 0 {
		log.Printf("Cross-validation: %.4f +/- %.4f (%d folds)\n", m.CVMean, m.CVStd, m.CVFolds)
	}
	log.Println()

	log.Println("Per-class metrics:")
	for _, pc := range m.PerClass {
		log.Printf("  %-15s precision=%.4f recall=%.4f f1=%.4f support=%d\n",
			pc.Label, pc.Precision, pc.Recall, pc.F1, pc.Support)
	}
	log.Println()

	log.Println("Confusion matrix (rows = actual, cols = predicted):")
	for i, row := range m.Confusion {
		log.Printf("  %-15s %v\n", model.Classes[i], row)
	}
	log.Println()

	log.Printf("Total training time: %.2f seconds\n", elapsed.Seconds())
	log.Println()
	log.Println("✓ Training complete!")
}
