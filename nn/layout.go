package nn

import (
	"dnn/nn/layers"

	"github.com/pkg/errors"
)

// layerOffset walks from the start of the layer sequence, adding up the stored
// size of every preceding layer. Layers differ in size, so the offset of a
// layer cannot be derived from its id alone.
func (a *arena) layerOffset(id int) layers.ByteSize {
	off := layers.NetworkHeaderSize
	for i := 0; i < id; i++ {
		off += a.layers[i].Size
	}
	return off
}

// columnOffset relies on all columns of one layer having the same size.
func (a *arena) columnOffset(l *Layer, c int) layers.ByteSize {
	size := a.columns[l.firstColumn].Size
	return l.Offset + layers.LayerHeaderSize + layers.ByteSize(c)*size
}

// nodeOffset relies on all nodes of one layer having the same size.
func (a *arena) nodeOffset(col *Column, level int) layers.ByteSize {
	size := a.nodes[col.firstNode].Size
	return col.Offset + layers.ColumnHeaderSize + layers.ByteSize(level)*size
}

func (a *arena) column(l *Layer, c int) *Column {
	return &a.columns[l.firstColumn+c]
}

func (a *arena) nodeID(l *Layer, c, level int) NodeID {
	return l.firstNode + NodeID(c*l.Def.NodeMap.Depth+level)
}

// weightBase is the byte offset of the weight block trailing the layers.
func (a *arena) weightBase() layers.ByteSize {
	return a.layerOffset(len(a.layers))
}

// layout fills in every layer, column and node record and checks that the
// offset walks land where the records were placed.
func (a *arena) layout(defs []layers.Definition, g *layers.Geometry) error {
	var (
		offset    = layers.NetworkHeaderSize
		colID     int
		nodeID    NodeID
		connStart int
	)
	for id, lg := range g.Layers {
		l := &a.layers[id]
		*l = Layer{
			ID:           id,
			Def:          defs[id],
			Size:         lg.Size,
			Offset:       offset,
			WeightOffset: lg.WeightOffset,
			WeightCount:  lg.Weights,
			ColumnCount:  lg.Columns,
			NodeCount:    lg.Nodes,
			firstColumn:  colID,
			firstNode:    nodeID,
		}
		if got := a.layerOffset(id); got != l.Offset {
			return errors.Wrapf(ErrLayout, "layer %d placed at byte %d, walk reaches %d", id, l.Offset, got)
		}

		depth := defs[id].NodeMap.Depth
		for c := 0; c < lg.Columns; c++ {
			col := &a.columns[colID]
			*col = Column{
				Size:                lg.ColumnSize,
				Offset:              l.Offset + layers.LayerHeaderSize + layers.ByteSize(c)*lg.ColumnSize,
				NodeCount:           depth,
				MaxConnCountPerNode: lg.Backward + lg.Forward,
				firstNode:           nodeID,
			}
			if got := a.columnOffset(l, c); got != col.Offset {
				return errors.Wrapf(ErrLayout, "layer %d column %d placed at byte %d, walk reaches %d", id, c, col.Offset, got)
			}
			if a.column(l, c) != col {
				return errors.Wrapf(ErrLayout, "layer %d column %d resolves to the wrong record", id, c)
			}

			for level := 0; level < depth; level++ {
				node := &a.nodes[nodeID]
				*node = Node{
					Size:              layers.NodeHeaderSize + layers.ByteSize(col.MaxConnCountPerNode)*layers.ConnectionSize,
					Offset:            col.Offset + layers.ColumnHeaderSize + layers.ByteSize(level)*lg.NodeSize,
					BackwardConnCount: lg.Backward,
					forwardCap:        lg.Forward,
					connStart:         connStart,
				}
				if node.Size != lg.NodeSize {
					return errors.Wrapf(ErrLayout, "layer %d node size %d, geometry says %d", id, node.Size, lg.NodeSize)
				}
				if got := a.nodeOffset(col, level); got != node.Offset {
					return errors.Wrapf(ErrLayout, "layer %d column %d node %d placed at byte %d, walk reaches %d", id, c, level, node.Offset, got)
				}
				if got := a.nodeID(l, c, level); got != nodeID {
					return errors.Wrapf(ErrLayout, "layer %d column %d node %d resolves to node %d, expected %d", id, c, level, got, nodeID)
				}
				for i := 0; i < col.MaxConnCountPerNode; i++ {
					a.conns[connStart+i] = unconnected
				}
				connStart += col.MaxConnCountPerNode
				nodeID++
			}
			colID++
		}
		offset += lg.Size
	}

	if connStart != len(a.conns) || int(nodeID) != len(a.nodes) || colID != len(a.columns) {
		return errors.Wrapf(ErrLayout, "pools sized for %d columns, %d nodes, %d connections but layout used %d, %d, %d",
			len(a.columns), len(a.nodes), len(a.conns), colID, nodeID, connStart)
	}
	if got, want := a.weightBase(), g.Size-g.WeightBlockSize; got != want {
		return errors.Wrapf(ErrLayout, "weight block starts at byte %d, expected %d", got, want)
	}
	if layers.ByteSize(len(a.weights))*layers.WeightSize != g.WeightBlockSize {
		return errors.Wrapf(ErrLayout, "%d weights do not fill a %d byte weight block", len(a.weights), g.WeightBlockSize)
	}
	return nil
}
