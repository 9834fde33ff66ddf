package nn

import (
	"time"

	"dnn/nn/layers"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultLearningRate is the step size of a freshly built network.
const DefaultLearningRate = 0.001

// Network is a fully wired network. All of its layers, columns, nodes,
// connections and weights live in one arena sized at construction.
// A Network is not safe for concurrent use.
type Network struct {
	LearningRate float64
	// Parallelism > 1 lets RunForward split large layers across goroutines.
	Parallelism int

	defs []layers.Definition
	geo  *layers.Geometry
	a    *arena
}

// Option configures a Network at construction.
type Option func(*Network)

// WithLearningRate overrides DefaultLearningRate.
func WithLearningRate(lr float64) Option {
	return func(n *Network) { n.LearningRate = lr }
}

// WithParallelism sets Network.Parallelism.
func WithParallelism(workers int) Option {
	return func(n *Network) { n.Parallelism = workers }
}

// New lays out and wires a network for defs, which must already have passed
// layers.Define. Weights and biases start at zero; call InitWeights before
// training.
func New(defs []layers.Definition, opts ...Option) (*Network, error) {
	if err := layers.Validate(undefault(defs)); err != nil {
		return nil, withKind(ErrConfig, err)
	}
	for i, d := range defs {
		if d.NodeMap.Width < 1 || d.NodeMap.Height < 1 || d.NodeMap.Depth < 1 {
			return nil, errors.Wrapf(ErrConfig, "layer %d: node map %s is not defaulted", i, d.NodeMap)
		}
	}

	g, err := layers.Plan(defs)
	if err != nil {
		return nil, withKind(ErrConfig, err)
	}
	if layers.ByteSize(g.Weights)*layers.WeightSize != g.WeightBlockSize {
		return nil, errors.Wrapf(ErrLayout, "%d weights counted, weight block holds %d bytes", g.Weights, g.WeightBlockSize)
	}

	n := &Network{
		LearningRate: DefaultLearningRate,
		defs:         append([]layers.Definition(nil), defs...),
		geo:          g,
		a:            newArena(g),
	}
	for _, opt := range opts {
		opt(n)
	}

	if err := n.a.layout(n.defs, g); err != nil {
		return nil, err
	}
	if err := n.a.wire(); err != nil {
		return nil, err
	}
	return n, nil
}

// undefault turns a defaulted sequence back into the raw form Validate
// expects: non-convolutional layers carry no depth.
func undefault(defs []layers.Definition) []layers.Definition {
	raw := make([]layers.Definition, len(defs))
	for i, d := range defs {
		if d.Kind != layers.Convolutional && d.NodeMap.Depth == 1 {
			d.NodeMap.Depth = 0
		}
		raw[i] = d
	}
	return raw
}

// Build validates and defaults raw layer definitions, builds the network and
// initialises its weights from the clock.
func Build(defs ...layers.Definition) (*Network, error) {
	full, err := layers.Define(defs...)
	if err != nil {
		return nil, withKind(ErrConfig, err)
	}
	n, err := New(full)
	if err != nil {
		return nil, err
	}
	n.InitWeights(uint64(time.Now().UnixNano()))
	return n, nil
}

// FeedInput copies v into the outputs of the input layer, node by node.
func (n *Network) FeedInput(v []float64) error {
	in := &n.a.layers[0]
	if len(v) != in.NodeCount {
		return errors.Wrapf(ErrShape, "input vector has %d values, input layer has %d nodes", len(v), in.NodeCount)
	}
	for i, x := range v {
		n.a.nodes[in.firstNode+NodeID(i)].Output = x
	}
	return nil
}

// Classify returns the index of the output node with the highest output.
// The lowest index wins a tie.
// When every output is negative the largest one still wins, never a
// default of 0.
func (n *Network) Classify() int {
	return floats.MaxIdx(n.Outputs())
}

// Outputs returns a copy of the output layer's node outputs.
func (n *Network) Outputs() []float64 {
	return n.LayerOutputs(len(n.a.layers) - 1)
}

// LayerOutputs returns a copy of the outputs of every node of layer id.
func (n *Network) LayerOutputs(id int) []float64 {
	l := &n.a.layers[id]
	out := make([]float64, l.NodeCount)
	for i := range out {
		out[i] = n.a.nodes[l.firstNode+NodeID(i)].Output
	}
	return out
}

// Definitions returns the defaulted layer definitions of the network.
func (n *Network) Definitions() []layers.Definition {
	return append([]layers.Definition(nil), n.defs...)
}

// Geometry returns the layout plan the arena was built from.
func (n *Network) Geometry() *layers.Geometry { return n.geo }

// Size is the byte size of the network in the flat layout.
func (n *Network) Size() layers.ByteSize { return n.geo.Size }

// LayerCount is the number of layers, input and output included.
func (n *Network) LayerCount() int { return len(n.a.layers) }

// WeightCount is the number of slots in the weight block.
func (n *Network) WeightCount() int { return len(n.a.weights) }

// Layer returns a copy of the record of layer id.
func (n *Network) Layer(id int) Layer { return n.a.layers[id] }

// Column returns a copy of column c of layer id.
func (n *Network) Column(id, c int) Column {
	return *n.a.column(&n.a.layers[id], c)
}

// NodeAt resolves a node by layer, column and level.
func (n *Network) NodeAt(layer, column, level int) NodeID {
	return n.a.nodeID(&n.a.layers[layer], column, level)
}

// LayerNode resolves the i-th node of a layer in pool order.
func (n *Network) LayerNode(layer, i int) NodeID {
	return n.a.layers[layer].firstNode + NodeID(i)
}

// Node returns a copy of node id.
func (n *Network) Node(id NodeID) Node { return n.a.nodes[id] }

// LayerOf returns the id of the layer node id belongs to.
func (n *Network) LayerOf(id NodeID) int {
	for l := len(n.a.layers) - 1; l >= 0; l-- {
		if id >= n.a.layers[l].firstNode {
			return l
		}
	}
	return -1
}

// BackwardConnections returns a copy of node id's backward connections.
func (n *Network) BackwardConnections(id NodeID) []Connection {
	return append([]Connection(nil), n.a.backward(&n.a.nodes[id])...)
}

// ForwardConnections returns a copy of node id's realised forward connections.
func (n *Network) ForwardConnections(id NodeID) []Connection {
	return append([]Connection(nil), n.a.forward(&n.a.nodes[id])...)
}

// Weight returns the value of weight slot w.
func (n *Network) Weight(w WeightID) float64 { return n.a.weights[w] }

// SetWeight overwrites weight slot w.
func (n *Network) SetWeight(w WeightID, v float64) { n.a.weights[w] = v }

// SetBias overwrites the bias of node id.
func (n *Network) SetBias(id NodeID, v float64) { n.a.nodes[id].Bias = v }

// Weights returns a copy of the whole weight block.
func (n *Network) Weights() []float64 {
	return append([]float64(nil), n.a.weights...)
}

// LayerWeights returns a copy of layer id's share of the weight block.
func (n *Network) LayerWeights(id int) []float64 {
	l := &n.a.layers[id]
	return append([]float64(nil), n.a.weights[l.WeightOffset:l.WeightOffset+l.WeightCount]...)
}

// SetLayerWeights overwrites layer id's share of the weight block.
func (n *Network) SetLayerWeights(id int, w []float64) error {
	l := &n.a.layers[id]
	if len(w) != l.WeightCount {
		return errors.Wrapf(ErrShape, "layer %d has %d weights, got %d", id, l.WeightCount, len(w))
	}
	copy(n.a.weights[l.WeightOffset:], w)
	return nil
}

// LayerBiases returns the biases of every node of layer id.
func (n *Network) LayerBiases(id int) []float64 {
	l := &n.a.layers[id]
	b := make([]float64, l.NodeCount)
	for i := range b {
		b[i] = n.a.nodes[l.firstNode+NodeID(i)].Bias
	}
	return b
}

// SetLayerBiases overwrites the biases of every node of layer id.
func (n *Network) SetLayerBiases(id int, b []float64) error {
	l := &n.a.layers[id]
	if len(b) != l.NodeCount {
		return errors.Wrapf(ErrShape, "layer %d has %d nodes, got %d biases", id, l.NodeCount, len(b))
	}
	for i, v := range b {
		n.a.nodes[l.firstNode+NodeID(i)].Bias = v
	}
	return nil
}

// WeightMatrix returns a nodes x previous-nodes matrix view of a dense layer's
// weights. The matrix shares storage with the network: writes through it
// change the network.
func (n *Network) WeightMatrix(id int) (*mat.Dense, error) {
	if id <= 0 || id >= len(n.a.layers) {
		return nil, errors.Wrapf(ErrShape, "no layer %d with weights", id)
	}
	l := &n.a.layers[id]
	if !l.Def.Kind.Dense() {
		return nil, errors.Wrapf(ErrShape, "layer %d is %s, not dense", id, l.Def.Kind)
	}
	prev := n.a.layers[id-1].NodeCount
	return mat.NewDense(l.NodeCount, prev, n.a.weights[l.WeightOffset:l.WeightOffset+l.WeightCount]), nil
}
