package layers

import (
	"errors"
	"fmt"
	"math"
)

// ByteSize counts bytes of the flat network layout.
type ByteSize int

// Record sizes of the flat 64-bit layout every structure is accounted against.
const (
	WeightSize        ByteSize = 8
	ConnectionSize    ByteSize = 16 // target node reference + weight reference
	NodeHeaderSize    ByteSize = 40 // size, bias, output, error, backward/forward counts
	ColumnHeaderSize  ByteSize = 16 // size, max connections per node, node count
	LayerHeaderSize   ByteSize = 40 // id, size, definition, weight offset, column count
	NetworkHeaderSize ByteSize = 48 // size, learning rate, weight count, weight base, null weight, layer count
)

// ErrUnknownKind is returned by every geometry query on a layer whose kind is
// not one of Input, Convolutional, FullyConnected or Output.
var ErrUnknownKind = errors.New("unrecognised layer kind")

func unknownKind(defs []Definition, l int) error {
	return fmt.Errorf("layer %d (%s): %w", l, defs[l].Kind, ErrUnknownKind)
}

// ColumnCount is the number of width x height positions of a layer.
func ColumnCount(d Definition) int {
	return d.NodeMap.Width * d.NodeMap.Height
}

// NodeCount is width x height x depth. Dimensions must already be defaulted.
func NodeCount(d Definition) int {
	return ColumnCount(d) * d.NodeMap.Depth
}

// BackwardConnCount is the number of connections from one node of layer l to
// the previous layer.
func BackwardConnCount(defs []Definition, l int) (int, error) {
	switch defs[l].Kind {
	case Input:
		return 0, nil
	case FullyConnected, Output:
		return NodeCount(defs[l-1]), nil
	case Convolutional:
		return defs[l].Filter * defs[l].Filter * defs[l-1].NodeMap.Depth, nil
	}
	return 0, unknownKind(defs, l)
}

// ForwardConnCount is the maximum number of connections from one node of
// layer l to the next layer. For a convolutional next layer the realised
// count can be lower at the borders of the node map.
func ForwardConnCount(defs []Definition, l int) (int, error) {
	switch defs[l].Kind {
	case Input, Output:
		return 0, nil
	case Convolutional, FullyConnected:
	default:
		return 0, unknownKind(defs, l)
	}
	if l == len(defs)-1 {
		return 0, nil
	}

	next := defs[l+1]
	switch next.Kind {
	case FullyConnected, Output:
		return NodeCount(next), nil
	case Convolutional:
		return next.Filter * next.Filter * next.NodeMap.Depth, nil
	}
	return 0, unknownKind(defs, l+1)
}

// WeightCount is the number of weight slots layer l owns. Convolutional layers
// share one filter per (source level, target level) pair across all spatial
// positions, so their count does not depend on width and height.
func WeightCount(defs []Definition, l int) (int, error) {
	switch defs[l].Kind {
	case Input:
		return 0, nil
	case FullyConnected, Output:
		return NodeCount(defs[l]) * NodeCount(defs[l-1]), nil
	case Convolutional:
		f := defs[l].Filter
		return f * f * defs[l].NodeMap.Depth * defs[l-1].NodeMap.Depth, nil
	}
	return 0, unknownKind(defs, l)
}

// MaxConnCount is the connection capacity of every node of layer l.
func MaxConnCount(defs []Definition, l int) (int, error) {
	bw, err := BackwardConnCount(defs, l)
	if err != nil {
		return 0, err
	}
	fw, err := ForwardConnCount(defs, l)
	if err != nil {
		return 0, err
	}
	return bw + fw, nil
}

// NodeSize is the byte size of one node of layer l, connections included.
func NodeSize(defs []Definition, l int) (ByteSize, error) {
	conns, err := MaxConnCount(defs, l)
	if err != nil {
		return 0, err
	}
	return NodeHeaderSize + ByteSize(conns)*ConnectionSize, nil
}

// ColumnSize is the byte size of one column (a depth-high stack of nodes).
func ColumnSize(defs []Definition, l int) (ByteSize, error) {
	ns, err := NodeSize(defs, l)
	if err != nil {
		return 0, err
	}
	return ColumnHeaderSize + ByteSize(defs[l].NodeMap.Depth)*ns, nil
}

// LayerSize is the byte size of layer l without its weights.
func LayerSize(defs []Definition, l int) (ByteSize, error) {
	cs, err := ColumnSize(defs, l)
	if err != nil {
		return 0, err
	}
	return LayerHeaderSize + ByteSize(ColumnCount(defs[l]))*cs, nil
}

// WeightBlockSize is the byte size of layer l's share of the weight block.
func WeightBlockSize(defs []Definition, l int) (ByteSize, error) {
	wc, err := WeightCount(defs, l)
	if err != nil {
		return 0, err
	}
	return ByteSize(wc) * WeightSize, nil
}

// NetworkWeightBlockSize is the byte size of the weight block trailing all layers.
func NetworkWeightBlockSize(defs []Definition) (ByteSize, error) {
	var size ByteSize
	for l := range defs {
		ws, err := WeightBlockSize(defs, l)
		if err != nil {
			return 0, err
		}
		size += ws
	}
	return size, nil
}

// NetworkSize is the byte size of the whole network: header, every layer and
// the trailing weight block.
func NetworkSize(defs []Definition) (ByteSize, error) {
	size := NetworkHeaderSize
	for l := range defs {
		ls, err := LayerSize(defs, l)
		if err != nil {
			return 0, err
		}
		size += ls
	}
	wb, err := NetworkWeightBlockSize(defs)
	if err != nil {
		return 0, err
	}
	return size + wb, nil
}

// Stride is the step, in target columns, between the filter windows of two
// horizontally adjacent source columns. Only widths are used, so node maps
// are assumed to be square.
func Stride(tgtWidth, filter, srcWidth int) int {
	if srcWidth <= 1 {
		return 0
	}
	return int(math.Ceil(float64(tgtWidth-filter) / float64(srcWidth-1)))
}

// LayerGeometry holds every count and size of one layer.
type LayerGeometry struct {
	Columns      int
	Nodes        int
	Backward     int
	Forward      int
	Weights      int
	NodeSize     ByteSize
	ColumnSize   ByteSize
	Size         ByteSize
	WeightBlock  ByteSize
	WeightOffset int // first slot of this layer inside the network weight block
}

// Geometry is the full layout plan of a network.
type Geometry struct {
	Layers          []LayerGeometry
	Weights         int
	WeightBlockSize ByteSize
	Size            ByteSize
}

// Plan computes the geometry of every layer of an already defaulted
// definition sequence.
func Plan(defs []Definition) (*Geometry, error) {
	g := &Geometry{Layers: make([]LayerGeometry, len(defs))}
	for l, d := range defs {
		lg := &g.Layers[l]
		var err error
		lg.Columns = ColumnCount(d)
		lg.Nodes = NodeCount(d)
		if lg.Backward, err = BackwardConnCount(defs, l); err != nil {
			return nil, err
		}
		if lg.Forward, err = ForwardConnCount(defs, l); err != nil {
			return nil, err
		}
		if lg.Weights, err = WeightCount(defs, l); err != nil {
			return nil, err
		}
		if lg.NodeSize, err = NodeSize(defs, l); err != nil {
			return nil, err
		}
		if lg.ColumnSize, err = ColumnSize(defs, l); err != nil {
			return nil, err
		}
		if lg.Size, err = LayerSize(defs, l); err != nil {
			return nil, err
		}
		if lg.WeightBlock, err = WeightBlockSize(defs, l); err != nil {
			return nil, err
		}
		lg.WeightOffset = g.Weights
		g.Weights += lg.Weights
	}

	var err error
	if g.WeightBlockSize, err = NetworkWeightBlockSize(defs); err != nil {
		return nil, err
	}
	if g.Size, err = NetworkSize(defs); err != nil {
		return nil, err
	}
	return g, nil
}
