package layers

import (
	"fmt"
	"math"
	"strings"
)

// Activation selects the function applied to a node's weighted sum.
type Activation int

const (
	Unset Activation = iota
	Sigmoid
	Tanh
	// ReLU is the smooth softplus ln(1+e^x); its derivative is the logistic
	// function applied to the output. The pair is kept as is.
	ReLU
	None
)

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case ReLU:
		return "relu"
	case None:
		return "none"
	}
	return fmt.Sprintf("activation(%d)", int(a))
}

// Valid reports whether a is a recognised activation.
func (a Activation) Valid() bool {
	return a >= Sigmoid && a <= None
}

// ParseActivation maps a textual name to an Activation.
func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(s) {
	case "sigmoid":
		return Sigmoid, nil
	case "tanh":
		return Tanh, nil
	case "relu", "softplus":
		return ReLU, nil
	case "none", "identity", "linear":
		return None, nil
	}
	return Unset, fmt.Errorf("unknown activation %q", s)
}

// Activate applies a to the weighted sum x.
func (a Activation) Activate(x float64) float64 {
	switch a {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case Tanh:
		return math.Tanh(x)
	case ReLU:
		return math.Log(1 + math.Exp(x))
	}
	return x
}

// Derivative returns the derivative of a evaluated at the already activated
// output y.
func (a Activation) Derivative(y float64) float64 {
	switch a {
	case Sigmoid:
		return y * (1 - y)
	case Tanh:
		t := math.Tanh(y)
		return 1 - t*t
	case ReLU:
		return 1 / (1 + math.Exp(-y))
	}
	return 1
}
