package nn

import (
	"testing"

	"dnn/nn/layers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutIsContiguous(t *testing.T) {
	n := mustNetwork(t,
		input(8, 8),
		conv(4, 4, 2, 3, layers.ReLU),
		dense(5, layers.Sigmoid),
		output(3, layers.Sigmoid),
	)

	next := layers.NetworkHeaderSize
	for id := 0; id < n.LayerCount(); id++ {
		l := n.Layer(id)
		assert.Equal(t, next, l.Offset, "layer %d", id)
		assert.Equal(t, l.Offset, n.a.layerOffset(id))

		colNext := l.Offset + layers.LayerHeaderSize
		for c := 0; c < l.ColumnCount; c++ {
			col := n.Column(id, c)
			assert.Equal(t, colNext, col.Offset, "layer %d column %d", id, c)
			assert.Equal(t, l.Def.NodeMap.Depth, col.NodeCount)

			nodeNext := col.Offset + layers.ColumnHeaderSize
			for level := 0; level < col.NodeCount; level++ {
				node := n.Node(n.NodeAt(id, c, level))
				assert.Equal(t, nodeNext, node.Offset)
				assert.Equal(t, layers.NodeHeaderSize+layers.ByteSize(col.MaxConnCountPerNode)*layers.ConnectionSize, node.Size)
				nodeNext += node.Size
			}
			assert.Equal(t, col.Offset+col.Size, nodeNext)
			colNext += col.Size
		}
		assert.Equal(t, l.Offset+l.Size, colNext)
		next += l.Size
	}
	assert.Equal(t, n.Size()-n.Geometry().WeightBlockSize, next)
	assert.Equal(t, next, n.a.weightBase())
}

func TestNodeSizeSurvivesForwardWiring(t *testing.T) {
	// conv -> conv: realised forward counts at the border are below the bound
	n := mustNetwork(t, input(8, 8), conv(4, 4, 1, 3, layers.ReLU), conv(2, 2, 1, 3, layers.ReLU), output(2, layers.Sigmoid))
	g := n.Geometry().Layers[1]

	below := false
	for i := 0; i < n.Layer(1).NodeCount; i++ {
		node := n.Node(n.LayerNode(1, i))
		assert.Equal(t, g.NodeSize, node.Size)
		assert.Equal(t, g.Forward, node.forwardCap)
		assert.LessOrEqual(t, node.ForwardConnCount, g.Forward)
		if node.ForwardConnCount < g.Forward {
			below = true
		}
	}
	assert.True(t, below)
}

func TestLayoutDetectsGeometryMismatch(t *testing.T) {
	defs, err := layers.Define(input(3, 1), dense(2, layers.Sigmoid), output(2, layers.Sigmoid))
	require.NoError(t, err)

	g, err := layers.Plan(defs)
	require.NoError(t, err)
	g.Layers[1].NodeSize += layers.ConnectionSize
	assert.ErrorIs(t, newArena(g).layout(defs, g), ErrLayout)

	g, err = layers.Plan(defs)
	require.NoError(t, err)
	g.WeightBlockSize += layers.WeightSize
	assert.ErrorIs(t, newArena(g).layout(defs, g), ErrLayout)

	g, err = layers.Plan(defs)
	require.NoError(t, err)
	assert.NoError(t, newArena(g).layout(defs, g))
}
