package nn

import (
	"dnn/nn/layers"

	"github.com/pkg/errors"
)

// wireBackward connects every node of layer id to the previous layer.
func (a *arena) wireBackward(id int) error {
	l := &a.layers[id]
	switch l.Def.Kind {
	case layers.Input:
		return nil
	case layers.FullyConnected, layers.Output:
		a.wireDense(l, &a.layers[id-1])
		return nil
	case layers.Convolutional:
		return a.wireConv(l, &a.layers[id-1])
	}
	return errors.Wrapf(ErrConfig, "layer %d: cannot wire layer kind %s", id, l.Def.Kind)
}

// wireDense gives every node a connection to every node of prev, and a
// weight slot of its own for each: node i of the layer owns slots
// [i*fanIn, (i+1)*fanIn) of the layer block.
func (a *arena) wireDense(l, prev *Layer) {
	fanIn := prev.NodeCount
	for i := 0; i < l.NodeCount; i++ {
		node := &a.nodes[l.firstNode+NodeID(i)]
		conns := a.backward(node)
		base := l.WeightOffset + i*fanIn
		// Pool order is column-major then level-in-column.
		for k := 0; k < fanIn; k++ {
			conns[k] = Connection{
				Node:   prev.firstNode + NodeID(k),
				Weight: WeightID(base + k),
			}
		}
	}
}

// FilterColumns returns, for source column srcCol of a convolutional layer
// src, the target column of every filter position in the previous layer tgt,
// row by row. Positions past the right or bottom edge of tgt are -1.
func FilterColumns(src, tgt layers.Definition, srcCol int) []int {
	srcWidth := src.NodeMap.Width
	tgtWidth, tgtHeight := tgt.NodeMap.Width, tgt.NodeMap.Height
	filter := src.Filter

	stride := layers.Stride(tgtWidth, filter, srcWidth)
	startX := (srcCol % srcWidth) * stride
	startY := (srcCol / srcWidth) * stride

	ids := make([]int, 0, filter*filter)
	for y := 0; y < filter; y++ {
		for x := 0; x < filter; x++ {
			col := (startY+y)*tgtWidth + startX + x
			if startX+x >= tgtWidth || col >= tgtWidth*tgtHeight {
				col = -1
			}
			ids = append(ids, col)
		}
	}
	return ids
}

// wireConv connects each node to the filter window of the previous layer on
// every target level. Weights are shared: all nodes on the same level use one
// block of tgtDepth*filterArea slots, so the slot depends only on
// (srcLevel, tgtLevel, position in filter).
func (a *arena) wireConv(l, prev *Layer) error {
	area := l.Def.Filter * l.Def.Filter
	tgtDepth := prev.Def.NodeMap.Depth

	for c := 0; c < l.ColumnCount; c++ {
		window := FilterColumns(l.Def, prev.Def, c)
		for srcLevel := 0; srcLevel < l.Def.NodeMap.Depth; srcLevel++ {
			node := &a.nodes[a.nodeID(l, c, srcLevel)]
			conns := a.backward(node)
			if len(conns) != area*tgtDepth {
				return errors.Wrapf(ErrLayout, "layer %d column %d: %d backward slots for a %d position window over %d levels",
					l.ID, c, len(conns), area, tgtDepth)
			}
			for pos, tgtCol := range window {
				for tgtLevel := 0; tgtLevel < tgtDepth; tgtLevel++ {
					slot := tgtLevel*area + pos
					if tgtCol < 0 {
						conns[slot] = unconnected
						continue
					}
					w := srcLevel*tgtDepth*area + tgtLevel*area + pos
					conns[slot] = Connection{
						Node:   a.nodeID(prev, tgtCol, tgtLevel),
						Weight: WeightID(l.WeightOffset + w),
					}
				}
			}
		}
	}
	return nil
}

// wireForward records, for every node of layer id, the nodes of the next
// layer that connect back to it. One pass over the next layer's backward
// connections, in node order then connection order, yields the same forward
// lists a per-node scan would.
func (a *arena) wireForward(id int) error {
	if id == 0 || id >= len(a.layers)-1 {
		return nil
	}
	l, next := &a.layers[id], &a.layers[id+1]
	first, last := l.firstNode, l.firstNode+NodeID(l.NodeCount)

	for i := first; i < last; i++ {
		a.nodes[i].ForwardConnCount = 0
	}

	for j := 0; j < next.NodeCount; j++ {
		nextID := next.firstNode + NodeID(j)
		for _, c := range a.backward(&a.nodes[nextID]) {
			if !c.Connected() || c.Node < first || c.Node >= last {
				continue
			}
			src := &a.nodes[c.Node]
			if src.ForwardConnCount >= src.forwardCap {
				return errors.Wrapf(ErrCapacity, "layer %d node %d: more than %d forward connections", id, c.Node-first, src.forwardCap)
			}
			a.conns[src.connStart+src.BackwardConnCount+src.ForwardConnCount] = Connection{Node: nextID, Weight: c.Weight}
			src.ForwardConnCount++
		}
	}
	return nil
}

// wire runs backward wiring on every layer, then forward wiring, which needs
// the next layer's backward connections to be complete.
func (a *arena) wire() error {
	for id := range a.layers {
		if err := a.wireBackward(id); err != nil {
			return err
		}
	}
	for id := range a.layers {
		if err := a.wireForward(id); err != nil {
			return err
		}
	}
	return nil
}
