package nn

import (
	"sync"

	"dnn/nn/layers"
)

// minParallelNodes is the smallest layer worth splitting across goroutines.
const minParallelNodes = 64

// RunForward computes the output of every node after the input layer, layer
// by layer. Nodes of one layer only read the previous layer, so with
// Parallelism > 1 a layer is split into chunks computed concurrently.
func (n *Network) RunForward() {
	for id := 1; id < len(n.a.layers); id++ {
		l := &n.a.layers[id]
		if n.Parallelism > 1 && l.NodeCount >= minParallelNodes {
			n.forwardLayerParallel(l, n.Parallelism)
			continue
		}
		n.forwardNodes(l, 0, l.NodeCount)
	}
}

func (n *Network) forwardLayerParallel(l *Layer, workers int) {
	chunk := (l.NodeCount + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < l.NodeCount; start += chunk {
		end := start + chunk
		if end > l.NodeCount {
			end = l.NodeCount
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			n.forwardNodes(l, start, end)
		}(start, end)
	}
	wg.Wait()
}

func (n *Network) forwardNodes(l *Layer, start, end int) {
	act := l.Def.Activation
	for i := start; i < end; i++ {
		n.activate(&n.a.nodes[l.firstNode+NodeID(i)], act)
	}
}

// activate sets node.Output to act(bias + sum of source output * weight).
// Connections without a target contribute nothing.
func (n *Network) activate(node *Node, act layers.Activation) {
	sum := node.Bias
	for _, c := range n.a.backward(node) {
		if !c.Connected() {
			continue
		}
		sum += n.a.nodes[c.Node].Output * n.a.weights[c.Weight]
	}
	node.Output = act.Activate(sum)
}
