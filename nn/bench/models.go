// Package bench times whole-network training steps for a set of named
// architectures.
package bench

import (
	"fmt"
	"sort"
	"strings"

	"dnn/nn"
	"dnn/nn/layers"
)

// BuiltNet is a named, initialised network ready for timing.
type BuiltNet struct {
	Name string
	Net  *nn.Network
}

var models = map[string][]layers.Definition{
	// 784-500-150-10, all sigmoid
	"mnistfc": {
		{Kind: layers.Input, NodeMap: layers.Volume{Width: 28, Height: 28}},
		{Kind: layers.FullyConnected, Activation: layers.Sigmoid, NodeMap: layers.Volume{Width: 500}},
		{Kind: layers.FullyConnected, Activation: layers.Sigmoid, NodeMap: layers.Volume{Width: 150}},
		{Kind: layers.Output, Activation: layers.Sigmoid, NodeMap: layers.Volume{Width: 10}},
	},
	// two shared-weight convolutions then a dense output
	"mnistconv": {
		{Kind: layers.Input, NodeMap: layers.Volume{Width: 28, Height: 28}},
		{Kind: layers.Convolutional, Activation: layers.ReLU, NodeMap: layers.Volume{Width: 13, Height: 13, Depth: 5}, Filter: 5},
		{Kind: layers.Convolutional, Activation: layers.ReLU, NodeMap: layers.Volume{Width: 6, Height: 6, Depth: 5}, Filter: 3},
		{Kind: layers.Output, Activation: layers.ReLU, NodeMap: layers.Volume{Width: 10}},
	},
	// small dense net for quick runs
	"tiny": {
		{Kind: layers.Input, NodeMap: layers.Volume{Width: 8, Height: 8}},
		{Kind: layers.FullyConnected, Activation: layers.Tanh, NodeMap: layers.Volume{Width: 16}},
		{Kind: layers.Output, Activation: layers.Sigmoid, NodeMap: layers.Volume{Width: 10}},
	},
}

// Models lists the known model names in sorted order.
func Models() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs model name with the given forward parallelism and
// deterministic weights.
func Build(name string, parallelism int, seed uint64) (BuiltNet, error) {
	raw, ok := models[strings.ToLower(name)]
	if !ok {
		return BuiltNet{}, fmt.Errorf("unknown model %q", name)
	}
	defs, err := layers.Define(raw...)
	if err != nil {
		return BuiltNet{}, err
	}
	n, err := nn.New(defs, nn.WithParallelism(parallelism))
	if err != nil {
		return BuiltNet{}, err
	}
	n.InitWeights(seed)
	return BuiltNet{Name: strings.ToLower(name), Net: n}, nil
}
