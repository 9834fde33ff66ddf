package nn

import "github.com/pkg/errors"

// RunBackward propagates the error of the last forward pass for the given
// label and updates weights and biases in place.
//
// The output layer goes first: target is 1 for the node at index label and 0
// elsewhere, and error = (target - output) * f'(output). Hidden layers follow
// from last to first, each node summing error * weight over its forward
// connections. Every node's weights are updated right after its error is
// known, so a hidden node sees the already updated weights of the layer
// above it.
func (n *Network) RunBackward(label int) error {
	out := &n.a.layers[len(n.a.layers)-1]
	if label < 0 || label >= out.NodeCount {
		return errors.Wrapf(ErrShape, "label %d outside the %d output nodes", label, out.NodeCount)
	}

	act := out.Def.Activation
	for i := 0; i < out.NodeCount; i++ {
		node := &n.a.nodes[out.firstNode+NodeID(i)]
		target := 0.0
		if i == label {
			target = 1
		}
		node.Error = (target - node.Output) * act.Derivative(node.Output)
		n.updateWeights(node)
	}

	for id := len(n.a.layers) - 2; id > 0; id-- {
		l := &n.a.layers[id]
		act := l.Def.Activation
		for i := 0; i < l.NodeCount; i++ {
			node := &n.a.nodes[l.firstNode+NodeID(i)]
			node.Error = n.propagatedError(node) * act.Derivative(node.Output)
			n.updateWeights(node)
		}
	}
	return nil
}

// propagatedError sums the errors of the next-layer nodes this node feeds,
// each scaled by the weight of the shared connection.
func (n *Network) propagatedError(node *Node) float64 {
	var sum float64
	for _, c := range n.a.forward(node) {
		if !c.Connected() {
			continue
		}
		sum += n.a.nodes[c.Node].Error * n.a.weights[c.Weight]
	}
	return sum
}

// updateWeights moves every backward weight of node by
// LearningRate * source output * node error, and the bias by
// LearningRate * node error.
func (n *Network) updateWeights(node *Node) {
	for _, c := range n.a.backward(node) {
		if !c.Connected() {
			continue
		}
		n.a.weights[c.Weight] += n.LearningRate * n.a.nodes[c.Node].Output * node.Error
	}
	node.Bias += n.LearningRate * node.Error
}
