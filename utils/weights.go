package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dnn/nn"
	"dnn/nn/layers"

	"github.com/google/uuid"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = "1.0"

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Layer  int         `json:"layer"`
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// ModelWeights is a trained network: its architecture, hyper-parameters and
// the weights and biases of every layer after the input.
type ModelWeights struct {
	Version      string        `json:"version"`
	RunID        string        `json:"run_id"`
	Architecture string        `json:"architecture"`
	LearningRate float64       `json:"learning_rate"`
	Epochs       int           `json:"epochs"`
	Layers       []LayerWeight `json:"layers"`
}

func weightShape(defs []layers.Definition, id int) []int {
	d, prev := defs[id], defs[id-1]
	if d.Kind == layers.Convolutional {
		return []int{d.NodeMap.Depth, prev.NodeMap.Depth, d.Filter, d.Filter}
	}
	prevNodes := prev.NodeMap.Width * prev.NodeMap.Height * prev.NodeMap.Depth
	return []int{d.NodeMap.Width * d.NodeMap.Height * d.NodeMap.Depth, prevNodes}
}

// CaptureWeights copies the weights and biases of n into a new snapshot
// stamped with a fresh run id.
func CaptureWeights(n *nn.Network, epochs int) *ModelWeights {
	defs := n.Definitions()
	mw := &ModelWeights{
		Version:      SnapshotVersion,
		RunID:        uuid.NewString(),
		Architecture: FormatArchitecture(defs),
		LearningRate: n.LearningRate,
		Epochs:       epochs,
	}
	for id := 1; id < n.LayerCount(); id++ {
		biases := n.LayerBiases(id)
		mw.Layers = append(mw.Layers, LayerWeight{
			Layer:  id,
			Weight: &WeightData{Name: fmt.Sprintf("layer%d_weight", id), Shape: weightShape(defs, id), Data: n.LayerWeights(id)},
			Bias:   &WeightData{Name: fmt.Sprintf("layer%d_bias", id), Shape: []int{len(biases)}, Data: biases},
		})
	}
	return mw
}

// RestoreWeights writes the snapshot into n, which must have the same
// architecture as the network the snapshot was taken from.
func RestoreWeights(n *nn.Network, mw *ModelWeights) error {
	if got := FormatArchitecture(n.Definitions()); got != mw.Architecture {
		return fmt.Errorf("snapshot architecture %q does not match network %q", mw.Architecture, got)
	}
	if len(mw.Layers) != n.LayerCount()-1 {
		return fmt.Errorf("snapshot holds %d layers, network has %d with weights", len(mw.Layers), n.LayerCount()-1)
	}
	for _, lw := range mw.Layers {
		if lw.Layer < 1 || lw.Layer >= n.LayerCount() {
			return fmt.Errorf("snapshot layer %d out of range", lw.Layer)
		}
		if lw.Weight != nil {
			if err := n.SetLayerWeights(lw.Layer, lw.Weight.Data); err != nil {
				return fmt.Errorf("restoring %s: %w", lw.Weight.Name, err)
			}
		}
		if lw.Bias != nil {
			if err := n.SetLayerBiases(lw.Layer, lw.Bias.Data); err != nil {
				return fmt.Errorf("restoring %s: %w", lw.Bias.Name, err)
			}
		}
	}
	n.LearningRate = mw.LearningRate
	return nil
}

// BuildNetwork rebuilds the network a snapshot was taken from.
func BuildNetwork(mw *ModelWeights, opts ...nn.Option) (*nn.Network, error) {
	raw, err := ParseArchitecture(mw.Architecture)
	if err != nil {
		return nil, fmt.Errorf("snapshot architecture: %w", err)
	}
	defs, err := layers.Define(raw...)
	if err != nil {
		return nil, fmt.Errorf("snapshot architecture: %w", err)
	}
	n, err := nn.New(defs, opts...)
	if err != nil {
		return nil, err
	}
	if err := RestoreWeights(n, mw); err != nil {
		return nil, err
	}
	return n, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// SaveWeights saves model weights to a file: JSON when the name ends in
// .json, the binary wire format otherwise.
func SaveWeights(path string, weights *ModelWeights) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(weights, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal weights: %w", err)
		}
	} else {
		data = MarshalWeights(weights)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadWeights loads model weights written by SaveWeights.
func LoadWeights(path string) (*ModelWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	if isJSON(path) {
		var weights ModelWeights
		if err := json.Unmarshal(data, &weights); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
		}
		return &weights, nil
	}
	weights, err := UnmarshalWeights(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return weights, nil
}
