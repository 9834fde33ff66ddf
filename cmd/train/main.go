// dnn-train: trains a network on MNIST and tests it.
//
// Usage:
//
//	dnn-train --data=data --epochs=2 --lr=0.001 --arch="input:28x28 fc:500:sigmoid fc:150:sigmoid output:10:sigmoid"
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"dnn/mnist"
	"dnn/nn"
	"dnn/nn/layers"
	"dnn/utils"
)

var (
	arch         = flag.String("arch", utils.DefaultArchitecture, "Layer specs, input first and output last")
	dataRoot     = flag.String("data", "data", "Directory holding the MNIST IDX files")
	epochs       = flag.Int("epochs", 2, "Training passes over the training set")
	learningRate = flag.Float64("lr", nn.DefaultLearningRate, "Learning rate")
	seed         = flag.Uint64("seed", 0, "Weight initialisation seed (0 = clock)")
	trainLimit   = flag.Int("train-limit", 0, "Use at most this many training images (0 = all)")
	testLimit    = flag.Int("test-limit", 0, "Use at most this many test images (0 = all)")
	parallelism  = flag.Int("parallel", 1, "Goroutines per layer in the forward pass")
	progress     = flag.Int("progress", 100, "Print progress every N images")
	verbose      = flag.Bool("verbose", true, "Verbose output")
	outputFile   = flag.String("output", "", "Output weights file (.json for JSON, anything else for binary)")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	raw, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing architecture: %v\n", err)
		os.Exit(1)
	}
	cfg := &utils.Config{
		Architecture: raw,
		DataRoot:     *dataRoot,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		Seed:         *seed,
		TrainLimit:   *trainLimit,
		TestLimit:    *testLimit,
		Parallelism:  *parallelism,
		Snapshot:     *outputFile,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *utils.Config) error {
	stats := &utils.TimingStats{}
	totalStart := time.Now()

	utils.Logf("Configuration:")
	utils.Logf("  Architecture:  %s", utils.FormatArchitecture(cfg.Architecture))
	utils.Logf("  Epochs:        %d", cfg.Epochs)
	utils.Logf("  Learning Rate: %.4f", cfg.LearningRate)
	utils.Logf("  Data:          %s", cfg.DataRoot)
	utils.Logf("")

	t := time.Now()
	train, err := mnist.OpenTraining(cfg.DataRoot)
	if err != nil {
		return err
	}
	train.Limit(cfg.TrainLimit)
	test, err := mnist.OpenTesting(cfg.DataRoot)
	if err != nil {
		return err
	}
	test.Limit(cfg.TestLimit)
	t = stats.Track(&stats.DataLoadingTime, t)

	defs, err := layers.Define(cfg.Architecture...)
	if err != nil {
		return err
	}
	n, err := nn.New(defs, nn.WithLearningRate(cfg.LearningRate), nn.WithParallelism(cfg.Parallelism))
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	n.InitWeights(cfg.Seed)
	stats.Track(&stats.ModelInitTime, t)

	utils.PrintNetworkSummary(n)
	utils.Logf("")

	steps := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		epochStart := time.Now()
		tally, err := utils.TrainEpoch(n, train, stats, *progress)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch+1, err)
		}
		steps += tally.Seen
		utils.Logf("Epoch %d/%d | Accuracy: %.2f%% | Time: %.2fs",
			epoch+1, cfg.Epochs, tally.Accuracy()*100, time.Since(epochStart).Seconds())
	}

	tally, err := utils.Evaluate(n, test, stats, *progress)
	if err != nil {
		return fmt.Errorf("testing: %w", err)
	}
	utils.PrintClassAccuracy(tally)
	if last, err := test.At(test.Len() - 1); err == nil {
		if err := n.FeedInput(last.Input()); err == nil {
			n.RunForward()
			utils.PrintImage(last, n.Classify())
		}
	}

	if cfg.Snapshot != "" {
		utils.Logf("Saving weights to %s...", cfg.Snapshot)
		if err := utils.SaveWeights(cfg.Snapshot, utils.CaptureWeights(n, cfg.Epochs)); err != nil {
			return fmt.Errorf("saving weights: %w", err)
		}
	}

	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(stats, steps)
	utils.Logf("\n DONE! Total execution time: %.1f sec", stats.TotalTime.Seconds())
	return nil
}
