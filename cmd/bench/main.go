package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	benchpkg "dnn/nn/bench"
	"dnn/utils"
)

// parseCSVInts parses a comma-separated list of integers
func parseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	var modelsCSV string
	var parallelCSV string
	var outPath string
	var iters int
	var warmup int
	var seed int64

	flag.StringVar(&modelsCSV, "models", "mnistfc,mnistconv", "Comma-separated list of models to run ("+strings.Join(benchpkg.Models(), ",")+")")
	flag.StringVar(&parallelCSV, "parallel", "1,2,4", "Comma-separated list of forward parallelism values")
	flag.StringVar(&outPath, "out", "bench_results.csv", "Output CSV path")
	flag.IntVar(&iters, "iters", 100, "Timed training steps per case")
	flag.IntVar(&warmup, "warmup", 5, "Untimed training steps per case")
	flag.Int64Var(&seed, "seed", 1, "Seed for weights, inputs and labels")
	flag.Parse()

	models := []string{}
	for _, m := range strings.Split(modelsCSV, ",") {
		ms := strings.TrimSpace(m)
		if ms != "" {
			models = append(models, ms)
		}
	}
	parallel, err := parseCSVInts(parallelCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid parallel: %v\n", err)
		os.Exit(2)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"model", "parallel", "forward_us", "backward_us"})
	for _, model := range models {
		for _, p := range parallel {
			net, err := benchpkg.Build(model, p, uint64(seed))
			if err != nil {
				fmt.Fprintf(os.Stderr, "skip model %s: %v\n", model, err)
				break
			}
			pt, err := benchpkg.RunPoint(net, iters, warmup, seed)
			if err != nil {
				fmt.Fprintf(os.Stderr, "model %s parallel %d: %v\n", model, p, err)
				continue
			}
			fwd, bwd := utils.DurationUS(pt.Fwd), utils.DurationUS(pt.Bwd)
			w.Write([]string{pt.Net, strconv.Itoa(pt.Parallel), fmt.Sprintf("%.1f", fwd), fmt.Sprintf("%.1f", bwd)})
			utils.Logf("%-10s parallel=%-3d forward=%10.1fµs backward=%10.1fµs", pt.Net, pt.Parallel, fwd, bwd)
		}
	}
}
