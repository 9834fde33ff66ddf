package nn

import (
	"testing"

	"dnn/nn/layers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseWiring(t *testing.T) {
	n := mustNetwork(t, input(3, 2), dense(4, layers.Sigmoid), output(2, layers.Sigmoid))
	l := n.Layer(1)

	seen := map[WeightID]NodeID{}
	for i := 0; i < l.NodeCount; i++ {
		id := n.LayerNode(1, i)
		conns := n.BackwardConnections(id)
		require.Len(t, conns, 6, "fan-in is the whole previous layer")
		for k, c := range conns {
			assert.Equal(t, n.LayerNode(0, k), c.Node)
			assert.Equal(t, WeightID(l.WeightOffset+i*6+k), c.Weight)
			owner, dup := seen[c.Weight]
			assert.False(t, dup, "weight %d shared by nodes %d and %d", c.Weight, owner, id)
			seen[c.Weight] = id
		}
	}
	assert.Len(t, seen, l.WeightCount)
}

func TestFilterColumns(t *testing.T) {
	src := conv(2, 2, 1, 3, layers.ReLU)
	tgt := layers.Definition{Kind: layers.Input, NodeMap: layers.Volume{Width: 5, Height: 5, Depth: 1}}

	assert.Equal(t, []int{0, 1, 2, 5, 6, 7, 10, 11, 12}, FilterColumns(src, tgt, 0))
	assert.Equal(t, []int{2, 3, 4, 7, 8, 9, 12, 13, 14}, FilterColumns(src, tgt, 1))
	assert.Equal(t, []int{10, 11, 12, 15, 16, 17, 20, 21, 22}, FilterColumns(src, tgt, 2))

	// stride 2 over a 6x6 map: windows starting at x=4 or y=4 overflow by one
	src = conv(3, 3, 1, 3, layers.ReLU)
	tgt.NodeMap = layers.Volume{Width: 6, Height: 6, Depth: 1}
	assert.Equal(t, []int{4, 5, -1, 10, 11, -1, 16, 17, -1}, FilterColumns(src, tgt, 2))
	assert.Equal(t, []int{28, 29, -1, 34, 35, -1, -1, -1, -1}, FilterColumns(src, tgt, 8))
}

func countUnconnected(t *testing.T, n *Network, layer int) int {
	t.Helper()
	count := 0
	for i := 0; i < n.Layer(layer).NodeCount; i++ {
		for _, c := range n.BackwardConnections(n.LayerNode(layer, i)) {
			if !c.Connected() {
				assert.Equal(t, NoNode, c.Node)
				assert.Equal(t, NoWeight, c.Weight)
				count++
			}
		}
	}
	return count
}

func TestConvExactFitHasNoBorderConnections(t *testing.T) {
	n := mustNetwork(t, input(5, 5), conv(2, 2, 1, 3, layers.ReLU), output(2, layers.Sigmoid))
	assert.Equal(t, 0, countUnconnected(t, n, 1))
}

func TestConvOverflowMarksExcessPositions(t *testing.T) {
	n := mustNetwork(t, input(6, 6), conv(3, 3, 1, 3, layers.ReLU), output(2, layers.Sigmoid))
	l := n.Layer(1)
	prev := n.Layer(0)

	// windows at x=4 lose a column, windows at y=4 lose a row, the corner loses both
	assert.Equal(t, 3+3+3+3+5, countUnconnected(t, n, 1))

	stride := layers.Stride(6, 3, 3)
	for c := 0; c < l.ColumnCount; c++ {
		startX, startY := (c%3)*stride, (c/3)*stride
		conns := n.BackwardConnections(n.NodeAt(1, c, 0))
		for pos, conn := range conns {
			x, y := startX+pos%3, startY+pos/3
			if x >= 6 || y >= 6 {
				assert.False(t, conn.Connected(), "column %d position %d", c, pos)
				continue
			}
			require.True(t, conn.Connected(), "column %d position %d", c, pos)
			assert.Equal(t, n.NodeAt(0, y*6+x, 0), conn.Node)
			assert.Equal(t, WeightID(l.WeightOffset+pos), conn.Weight)
		}
	}
	assert.Equal(t, 0, prev.WeightCount)
}

func TestConvWeightSharing(t *testing.T) {
	n := mustNetwork(t,
		input(8, 8),
		conv(4, 4, 2, 3, layers.ReLU),
		conv(2, 2, 3, 2, layers.Tanh),
		output(3, layers.Sigmoid),
	)

	for _, id := range []int{1, 2} {
		l := n.Layer(id)
		area := l.Def.Filter * l.Def.Filter
		tgtDepth := n.Layer(id - 1).Def.NodeMap.Depth

		type key struct{ src, tgt, pos int }
		shared := map[key]WeightID{}
		for c := 0; c < l.ColumnCount; c++ {
			for srcLevel := 0; srcLevel < l.Def.NodeMap.Depth; srcLevel++ {
				conns := n.BackwardConnections(n.NodeAt(id, c, srcLevel))
				require.Len(t, conns, area*tgtDepth)
				for slot, conn := range conns {
					if !conn.Connected() {
						continue
					}
					k := key{srcLevel, slot / area, slot % area}
					if w, ok := shared[k]; ok {
						assert.Equal(t, w, conn.Weight, "layer %d column %d %+v", id, c, k)
					} else {
						shared[k] = conn.Weight
					}
					assert.GreaterOrEqual(t, int(conn.Weight), l.WeightOffset)
					assert.Less(t, int(conn.Weight), l.WeightOffset+l.WeightCount)
				}
			}
		}

		// distinct triples never share a slot
		owners := map[WeightID]key{}
		for k, w := range shared {
			_, dup := owners[w]
			assert.False(t, dup, "weight %d used by two triples", w)
			owners[w] = k
		}
	}
}

func TestForwardBackwardSymmetry(t *testing.T) {
	nets := []*Network{
		mustNetwork(t, input(4, 3), dense(5, layers.Sigmoid), dense(3, layers.Tanh), output(2, layers.Sigmoid)),
		mustNetwork(t, input(8, 8), conv(4, 4, 2, 3, layers.ReLU), conv(2, 2, 3, 2, layers.Tanh), dense(4, layers.Sigmoid), output(3, layers.Sigmoid)),
		mustNetwork(t, input(6, 6), conv(3, 3, 2, 3, layers.ReLU), output(2, layers.Sigmoid)),
	}

	for _, n := range nets {
		for id := 1; id < n.LayerCount()-1; id++ {
			for i := 0; i < n.Layer(id).NodeCount; i++ {
				a := n.LayerNode(id, i)
				node := n.Node(a)
				fw := n.ForwardConnections(a)
				assert.Equal(t, node.ForwardConnCount, len(fw))
				assert.LessOrEqual(t, len(fw), node.forwardCap)

				for _, f := range fw {
					require.True(t, f.Connected())
					assert.Equal(t, id+1, n.LayerOf(f.Node))
					assert.Contains(t, n.BackwardConnections(f.Node), Connection{Node: a, Weight: f.Weight})
				}
			}
		}

		// every connected backward edge has exactly one forward partner
		for id := 2; id < n.LayerCount(); id++ {
			for j := 0; j < n.Layer(id).NodeCount; j++ {
				b := n.LayerNode(id, j)
				for _, c := range n.BackwardConnections(b) {
					if !c.Connected() {
						continue
					}
					matches := 0
					for _, f := range n.ForwardConnections(c.Node) {
						if f == (Connection{Node: b, Weight: c.Weight}) {
							matches++
						}
					}
					assert.Equal(t, 1, matches, "edge %d -> %d via %d", c.Node, b, c.Weight)
				}
			}
		}
	}
}

func TestInputAndOutputHaveNoForwardConnections(t *testing.T) {
	n := mustNetwork(t, input(2, 2), dense(3, layers.Sigmoid), output(2, layers.Sigmoid))
	for i := 0; i < 4; i++ {
		assert.Empty(t, n.ForwardConnections(n.LayerNode(0, i)))
		assert.Empty(t, n.BackwardConnections(n.LayerNode(0, i)))
	}
	for i := 0; i < 2; i++ {
		assert.Empty(t, n.ForwardConnections(n.LayerNode(2, i)))
	}
	assert.Len(t, n.ForwardConnections(n.LayerNode(1, 0)), 2)
}

func TestForwardWiringCapacity(t *testing.T) {
	n := mustNetwork(t, input(4, 1), dense(3, layers.Sigmoid), output(2, layers.Sigmoid))
	first := n.a.layers[1].firstNode
	n.a.nodes[first].forwardCap = 1

	err := n.a.wireForward(1)
	assert.ErrorIs(t, err, ErrCapacity)
	assert.Equal(t, 1, n.a.nodes[first].ForwardConnCount, "nothing written past capacity")
}
