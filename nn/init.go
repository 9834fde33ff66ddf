package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// initScale bounds the magnitude of initial weights and biases.
const initScale = 0.4

// InitWeights draws every weight and bias uniformly from [0, 0.4) and negates
// every second one. Weights alternate by weight index. Biases alternate by
// node index within the layer, so dense layers get mixed bias signs too, and
// share the weights' range. It can be called again at any time to restart
// training.
func (n *Network) InitWeights(seed uint64) {
	u := distuv.Uniform{Min: 0, Max: initScale, Src: rand.NewSource(seed)}

	for i := range n.a.weights {
		w := u.Rand()
		if i%2 == 1 {
			w = -w
		}
		n.a.weights[i] = w
	}

	for id := 1; id < len(n.a.layers); id++ {
		l := &n.a.layers[id]
		for i := 0; i < l.NodeCount; i++ {
			b := u.Rand()
			if i%2 == 1 {
				b = -b
			}
			n.a.nodes[l.firstNode+NodeID(i)].Bias = b
		}
	}
}
