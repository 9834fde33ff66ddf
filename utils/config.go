package utils

import (
	"fmt"
	"strconv"
	"strings"

	"dnn/nn/layers"
)

// DefaultArchitecture is the dense MNIST network the drivers build when no
// architecture is given.
const DefaultArchitecture = "input:28x28 fc:500:sigmoid fc:150:sigmoid output:10:sigmoid"

// Config holds training configuration
type Config struct {
	Architecture []layers.Definition
	DataRoot     string
	Epochs       int
	LearningRate float64
	Seed         uint64
	TrainLimit   int
	TestLimit    int
	Parallelism  int
	Snapshot     string
}

// ParseArchitecture parses a whitespace separated list of layer specs:
//
//	input:WxH
//	conv:WxHxD:FILTER:ACT
//	fc:W[xH]:ACT
//	output:W:ACT
//
// The result is raw; pass it through layers.Define before building.
func ParseArchitecture(archStr string) ([]layers.Definition, error) {
	parts := strings.Fields(archStr)
	defs := make([]layers.Definition, len(parts))
	for i, s := range parts {
		d, err := parseLayer(s)
		if err != nil {
			return nil, fmt.Errorf("layer %d %q: %w", i, s, err)
		}
		defs[i] = d
	}
	return defs, nil
}

func parseLayer(s string) (layers.Definition, error) {
	fields := strings.Split(s, ":")
	kind, err := layers.ParseKind(fields[0])
	if err != nil {
		return layers.Definition{}, err
	}
	d := layers.Definition{Kind: kind}

	want := 3
	switch kind {
	case layers.Input:
		want = 2
	case layers.Convolutional:
		want = 4
	}
	if len(fields) != want {
		return d, fmt.Errorf("%s layer takes %d fields, got %d", kind, want, len(fields))
	}

	if d.NodeMap, err = parseVolume(fields[1]); err != nil {
		return d, err
	}
	if kind == layers.Convolutional {
		if d.Filter, err = strconv.Atoi(fields[2]); err != nil {
			return d, fmt.Errorf("filter: %w", err)
		}
	}
	if kind != layers.Input {
		if d.Activation, err = layers.ParseActivation(fields[len(fields)-1]); err != nil {
			return d, err
		}
	}
	return d, nil
}

func parseVolume(s string) (layers.Volume, error) {
	var v layers.Volume
	dims := strings.Split(s, "x")
	if len(dims) > 3 {
		return v, fmt.Errorf("node map %q has more than 3 dimensions", s)
	}
	targets := []*int{&v.Width, &v.Height, &v.Depth}
	for i, d := range dims {
		n, err := strconv.Atoi(d)
		if err != nil {
			return v, fmt.Errorf("node map %q: %w", s, err)
		}
		*targets[i] = n
	}
	return v, nil
}

// FormatArchitecture is the inverse of ParseArchitecture.
func FormatArchitecture(defs []layers.Definition) string {
	parts := make([]string, len(defs))
	for i, d := range defs {
		m := d.NodeMap
		switch d.Kind {
		case layers.Input:
			parts[i] = fmt.Sprintf("input:%dx%d", m.Width, max(m.Height, 1))
		case layers.Convolutional:
			parts[i] = fmt.Sprintf("conv:%dx%dx%d:%d:%s", m.Width, m.Height, m.Depth, d.Filter, d.Activation)
		default:
			if m.Height > 1 {
				parts[i] = fmt.Sprintf("%s:%dx%d:%s", d.Kind, m.Width, m.Height, d.Activation)
			} else {
				parts[i] = fmt.Sprintf("%s:%d:%s", d.Kind, m.Width, d.Activation)
			}
		}
	}
	return strings.Join(parts, " ")
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}
	if err := layers.Validate(config.Architecture); err != nil {
		return fmt.Errorf("architecture: %w", err)
	}
	if config.Epochs < 0 {
		return fmt.Errorf("epochs must not be negative")
	}
	if config.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}
	if config.TrainLimit < 0 || config.TestLimit < 0 {
		return fmt.Errorf("sample limits must not be negative")
	}
	if config.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative")
	}
	if config.DataRoot == "" {
		return fmt.Errorf("data root must be set")
	}
	return nil
}
