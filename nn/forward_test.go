package nn

import (
	"testing"

	"dnn/nn/layers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestForwardMatchesMatrixProduct(t *testing.T) {
	n := mustNetwork(t, input(4, 1), dense(3, layers.None), output(2, layers.Sigmoid))
	n.InitWeights(1)
	x := []float64{0.5, -1, 2, 0.25}
	require.NoError(t, n.FeedInput(x))
	n.RunForward()

	w, err := n.WeightMatrix(1)
	require.NoError(t, err)
	var h mat.VecDense
	h.MulVec(w, mat.NewVecDense(len(x), x))
	want := make([]float64, 3)
	floats.AddTo(want, h.RawVector().Data, n.LayerBiases(1))
	assert.True(t, floats.EqualApprox(want, n.LayerOutputs(1), 1e-12), "want %v got %v", want, n.LayerOutputs(1))

	wo, err := n.WeightMatrix(2)
	require.NoError(t, err)
	var o mat.VecDense
	o.MulVec(wo, mat.NewVecDense(3, n.LayerOutputs(1)))
	for i, b := range n.LayerBiases(2) {
		assert.InDelta(t, layers.Sigmoid.Activate(o.AtVec(i)+b), n.Outputs()[i], 1e-12)
	}
}

func TestForwardIdempotent(t *testing.T) {
	n := mustNetwork(t, input(8, 8), conv(4, 4, 2, 3, layers.ReLU), dense(5, layers.Tanh), output(3, layers.Sigmoid))
	n.InitWeights(3)
	x := make([]float64, 64)
	for i := range x {
		x[i] = float64(i%7) / 7
	}
	require.NoError(t, n.FeedInput(x))

	n.RunForward()
	first := n.Outputs()
	hidden := n.LayerOutputs(1)
	n.RunForward()
	assert.Equal(t, first, n.Outputs())
	assert.Equal(t, hidden, n.LayerOutputs(1))
}

func TestConvBorderContributesNothing(t *testing.T) {
	n := mustNetwork(t, input(6, 6), conv(3, 3, 1, 3, layers.None), output(2, layers.None))
	for i := 0; i < n.WeightCount(); i++ {
		n.SetWeight(WeightID(i), 1)
	}
	ones := make([]float64, 36)
	for i := range ones {
		ones[i] = 1
	}
	require.NoError(t, n.FeedInput(ones))
	n.RunForward()

	// bias 0, weight 1, input 1: each output counts its in-range positions
	assert.Equal(t, []float64{9, 9, 6, 9, 9, 6, 6, 6, 4}, n.LayerOutputs(1))
}

func TestParallelForwardMatchesSerial(t *testing.T) {
	defs := []layers.Definition{input(10, 10), dense(200, layers.Sigmoid), dense(80, layers.Tanh), output(10, layers.Sigmoid)}
	full, err := layers.Define(defs...)
	require.NoError(t, err)

	serial, err := New(full)
	require.NoError(t, err)
	parallel, err := New(full, WithParallelism(4))
	require.NoError(t, err)
	serial.InitWeights(11)
	parallel.InitWeights(11)

	x := make([]float64, 100)
	for i := range x {
		x[i] = float64(i) / 100
	}
	require.NoError(t, serial.FeedInput(x))
	require.NoError(t, parallel.FeedInput(x))
	serial.RunForward()
	parallel.RunForward()

	assert.Equal(t, serial.LayerOutputs(1), parallel.LayerOutputs(1))
	assert.Equal(t, serial.Outputs(), parallel.Outputs())
}
