package nn

import "dnn/nn/layers"

// NodeID is the arena handle of a node. Nodes are numbered layer by layer,
// column by column, level by level.
type NodeID int

// WeightID indexes the network weight block.
type WeightID int

const (
	// NoNode marks a connection without a target (a filter position outside
	// the previous node map).
	NoNode NodeID = -1
	// NoWeight is the weight reference of such a connection.
	NoWeight WeightID = -1
)

// Connection links a node to a node of a neighbouring layer through a weight
// slot. A backward connection and its forward partner hold the same WeightID.
type Connection struct {
	Node   NodeID
	Weight WeightID
}

// Connected reports whether the connection has a real target and weight.
func (c Connection) Connected() bool {
	return c.Node != NoNode && c.Weight != NoWeight
}

var unconnected = Connection{Node: NoNode, Weight: NoWeight}

// Node is one neuron. Its connections live in the arena connection pool:
// Backward slots first, then up to forwardCap forward slots.
type Node struct {
	// Size is the node's byte size in the flat layout, fixed at creation.
	Size   layers.ByteSize
	Offset layers.ByteSize
	Bias   float64
	Output float64
	Error  float64

	BackwardConnCount int
	ForwardConnCount  int

	forwardCap int
	connStart  int
}

// Column is the depth-high stack of nodes at one x/y position of a layer.
type Column struct {
	Size                layers.ByteSize
	Offset              layers.ByteSize
	NodeCount           int
	MaxConnCountPerNode int

	firstNode NodeID
}

// Layer is one layer of the arena.
type Layer struct {
	ID     int
	Def    layers.Definition
	Size   layers.ByteSize
	Offset layers.ByteSize
	// WeightOffset is the first slot of this layer in the network weight block.
	WeightOffset int
	WeightCount  int
	ColumnCount  int
	NodeCount    int

	firstColumn int
	firstNode   NodeID
}

// arena holds every structure of a network in flat pools. Pools are sized once
// from the geometry plan and never grow.
type arena struct {
	layers  []Layer
	columns []Column
	nodes   []Node
	conns   []Connection
	weights []float64
}

func newArena(g *layers.Geometry) *arena {
	var columns, nodes, conns int
	for _, lg := range g.Layers {
		columns += lg.Columns
		nodes += lg.Nodes
		conns += lg.Nodes * (lg.Backward + lg.Forward)
	}
	return &arena{
		layers:  make([]Layer, len(g.Layers)),
		columns: make([]Column, columns),
		nodes:   make([]Node, nodes),
		conns:   make([]Connection, conns),
		weights: make([]float64, g.Weights),
	}
}

func (a *arena) backward(n *Node) []Connection {
	return a.conns[n.connStart : n.connStart+n.BackwardConnCount]
}

func (a *arena) forward(n *Node) []Connection {
	start := n.connStart + n.BackwardConnCount
	return a.conns[start : start+n.ForwardConnCount]
}
