// dnn-infer: classifies MNIST test images with a saved network.
//
// Usage:
//
//	dnn-infer --weights=model.bin --data=data
//	dnn-infer --weights=model.json --data=data --image=42 --topk=3
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"dnn/mnist"
	"dnn/nn"
	"dnn/utils"

	"gonum.org/v1/gonum/floats"
)

var (
	weightsFile = flag.String("weights", "", "Weights file written by dnn-train")
	dataRoot    = flag.String("data", "data", "Directory holding the MNIST IDX files")
	csvFile     = flag.String("csv", "", "Read test images from a CSV file instead (label, then pixels)")
	image       = flag.Int("image", -1, "Classify only this test image and display it")
	limit       = flag.Int("limit", 0, "Use at most this many test images (0 = all)")
	topK        = flag.Int("topk", 3, "Number of top classes to show for a single image")
	parallelism = flag.Int("parallel", 1, "Goroutines per layer in the forward pass")
	verbose     = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *weightsFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --weights is required")
		os.Exit(1)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	weights, err := utils.LoadWeights(*weightsFile)
	if err != nil {
		return err
	}
	n, err := utils.BuildNetwork(weights, nn.WithParallelism(*parallelism))
	if err != nil {
		return err
	}
	utils.Logf("Loaded run %s: %s (%d epochs)", weights.RunID, weights.Architecture, weights.Epochs)
	utils.PrintNetworkSummary(n)

	in := n.Layer(0).Def.NodeMap
	var test *mnist.Set
	if *csvFile != "" {
		test, err = mnist.OpenCSV(*csvFile, in.Width, in.Height)
	} else {
		test, err = mnist.OpenTesting(*dataRoot)
	}
	if err != nil {
		return err
	}
	if test.Width != in.Width || test.Height != in.Height {
		return fmt.Errorf("images are %dx%d, network input is %dx%d", test.Width, test.Height, in.Width, in.Height)
	}
	test.Limit(*limit)

	if *image >= 0 {
		return classifyOne(n, test, *image)
	}

	stats := &utils.TimingStats{}
	start := time.Now()
	tally, err := utils.Evaluate(n, test, stats, 100)
	if err != nil {
		return err
	}
	stats.TotalTime = time.Since(start)
	utils.PrintClassAccuracy(tally)
	fmt.Printf("\nAccuracy: %.2f%% (%d/%d) in %.2fs\n", tally.Accuracy()*100, tally.Correct(), tally.Seen, stats.TotalTime.Seconds())
	return nil
}

func classifyOne(n *nn.Network, test *mnist.Set, i int) error {
	s, err := test.At(i)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := n.FeedInput(s.Input()); err != nil {
		return err
	}
	n.RunForward()
	cls := n.Classify()
	fmt.Printf("Inference time: %.1fµs\n", utils.DurationUS(time.Since(start)))

	utils.PrintImage(s, cls)
	showResults(n.Outputs(), *topK)
	return nil
}

func showResults(outputs []float64, k int) {
	shares := softmax(outputs)
	sorted := append([]float64(nil), outputs...)
	indices := make([]int, len(outputs))
	floats.Argsort(sorted, indices)
	if k > len(indices) {
		k = len(indices)
	}

	fmt.Printf("\nTop %d predictions:\n", k)
	for i := 0; i < k; i++ {
		idx := indices[len(indices)-1-i]
		fmt.Printf("  %d. Class %d: output %.4f, share %.4f\n", i+1, idx, outputs[idx], shares[idx])
	}
}

func softmax(v []float64) []float64 {
	out := append([]float64(nil), v...)
	floats.AddConst(-floats.Max(out), out)
	for i, x := range out {
		out[i] = math.Exp(x)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
