package layers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineAppliesDefaults(t *testing.T) {
	defs, err := Define(
		Definition{Kind: Input, NodeMap: Volume{Width: 4}},
		Definition{Kind: FullyConnected, Activation: Tanh, NodeMap: Volume{Width: 3}, Filter: 7},
		Definition{Kind: Output, Activation: None, NodeMap: Volume{Width: 2}},
	)
	require.NoError(t, err)
	assert.Equal(t, Volume{4, 1, 1}, defs[0].NodeMap)
	assert.Equal(t, Volume{3, 1, 1}, defs[1].NodeMap)
	assert.Equal(t, 0, defs[1].Filter, "filter is dropped on dense layers")
}

func TestValidateRejects(t *testing.T) {
	in := Definition{Kind: Input, NodeMap: Volume{Width: 6, Height: 6}}
	out := Definition{Kind: Output, Activation: Sigmoid, NodeMap: Volume{Width: 2}}
	conv := func(filter int) Definition {
		return Definition{Kind: Convolutional, Activation: ReLU, NodeMap: Volume{Width: 3, Height: 3, Depth: 2}, Filter: filter}
	}

	cases := []struct {
		name  string
		defs  []Definition
		layer int
	}{
		{"single layer", []Definition{in}, -1},
		{"no input first", []Definition{out, out}, 0},
		{"no output last", []Definition{in, in}, 1},
		{"unknown kind", []Definition{in, {Kind: Kind(9), Activation: Sigmoid, NodeMap: Volume{Width: 2}}, out}, 1},
		{"empty node map", []Definition{in, {Kind: FullyConnected, Activation: Sigmoid}, out}, 1},
		{"dense with depth", []Definition{in, {Kind: FullyConnected, Activation: Sigmoid, NodeMap: Volume{Width: 2, Depth: 2}}, out}, 1},
		{"conv without depth", []Definition{in, {Kind: Convolutional, Activation: ReLU, NodeMap: Volume{Width: 3, Height: 3}, Filter: 2}, out}, 1},
		{"conv without filter", []Definition{in, conv(0), out}, 1},
		{"filter as wide as source", []Definition{in, conv(6), out}, 1},
		{"missing activation", []Definition{in, {Kind: FullyConnected, NodeMap: Volume{Width: 2}}, out}, 1},
		{"bad activation", []Definition{in, {Kind: FullyConnected, Activation: Activation(17), NodeMap: Volume{Width: 2}}, out}, 1},
		{"output in the middle", []Definition{in, out, out}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.defs)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.layer, ve.Layer)
		})
	}
}

func TestValidateFilterMaximum(t *testing.T) {
	defs := []Definition{
		{Kind: Input, NodeMap: Volume{Width: 20, Height: 20}},
		{Kind: Convolutional, Activation: ReLU, NodeMap: Volume{Width: 2, Height: 2, Depth: 1}, Filter: MaxFilter + 1},
		{Kind: Output, Activation: Sigmoid, NodeMap: Volume{Width: 2}},
	}
	assert.Error(t, Validate(defs))

	defs[1].Filter = MaxFilter
	assert.NoError(t, Validate(defs))
}

func TestParseNames(t *testing.T) {
	k, err := ParseKind("conv")
	require.NoError(t, err)
	assert.Equal(t, Convolutional, k)
	_, err = ParseKind("pool")
	assert.Error(t, err)

	a, err := ParseActivation("Tanh")
	require.NoError(t, err)
	assert.Equal(t, Tanh, a)
	_, err = ParseActivation("gelu")
	assert.Error(t, err)
}

func TestActivationPairs(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid.Activate(0), 1e-12)
	assert.InDelta(t, 0.25, Sigmoid.Derivative(0.5), 1e-12)

	assert.InDelta(t, math.Tanh(0.3), Tanh.Activate(0.3), 1e-12)
	assert.InDelta(t, 1-math.Pow(math.Tanh(0.3), 2), Tanh.Derivative(0.3), 1e-12)

	// softplus paired with the logistic function
	assert.InDelta(t, math.Log(2), ReLU.Activate(0), 1e-12)
	assert.InDelta(t, math.Log(1+math.E), ReLU.Activate(1), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), ReLU.Derivative(2), 1e-12)
	assert.Greater(t, ReLU.Activate(-3), 0.0)

	assert.Equal(t, -1.5, None.Activate(-1.5))
	assert.Equal(t, 1.0, None.Derivative(123))
}
