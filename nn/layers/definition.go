package layers

import (
	"fmt"
	"strings"
)

// MaxFilter is the largest filter window a convolutional layer may declare.
const MaxFilter = 10

// Kind identifies the role of a layer inside the network.
type Kind int

const (
	Empty Kind = iota
	Input
	Convolutional
	FullyConnected
	Output
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Convolutional:
		return "conv"
	case FullyConnected:
		return "fc"
	case Output:
		return "output"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the four recognised layer kinds.
func (k Kind) Valid() bool {
	return k >= Input && k <= Output
}

// Dense reports whether every node of a layer of this kind connects to every
// node of the previous layer.
func (k Kind) Dense() bool {
	return k == FullyConnected || k == Output
}

// ParseKind maps the textual name used in architecture strings to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return Input, nil
	case "conv", "convolutional":
		return Convolutional, nil
	case "fc", "dense", "fully_connected":
		return FullyConnected, nil
	case "output", "out":
		return Output, nil
	}
	return Empty, fmt.Errorf("unknown layer kind %q", s)
}

// Volume is the width x height x depth shape of a layer's node map.
// Zero dimensions mean "unset" until defaults are applied.
type Volume struct {
	Width  int
	Height int
	Depth  int
}

func (v Volume) String() string {
	return fmt.Sprintf("%dx%dx%d", v.Width, v.Height, v.Depth)
}

// Definition declares one layer. A validated, defaulted slice of definitions
// fully determines the shape of a network.
type Definition struct {
	Kind       Kind
	Activation Activation
	NodeMap    Volume
	// Filter is the side length of the square filter window (convolutional only).
	Filter int
}

// ValidationError describes the first rule a definition sequence violates.
type ValidationError struct {
	Layer  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Layer < 0 {
		return e.Reason
	}
	return fmt.Sprintf("layer %d: %s", e.Layer, e.Reason)
}

func invalid(layer int, format string, args ...interface{}) error {
	return &ValidationError{Layer: layer, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a raw (not yet defaulted) definition sequence.
func Validate(defs []Definition) error {
	if len(defs) < 2 {
		return invalid(-1, "a network needs at least an input and an output layer, got %d layers", len(defs))
	}
	if defs[0].Kind != Input {
		return invalid(0, "first layer must be input, got %s", defs[0].Kind)
	}
	if last := len(defs) - 1; defs[last].Kind != Output {
		return invalid(last, "last layer must be output, got %s", defs[last].Kind)
	}

	for i, d := range defs {
		if !d.Kind.Valid() {
			return invalid(i, "unrecognised layer kind %d", int(d.Kind))
		}
		if i > 0 && i < len(defs)-1 && (d.Kind == Input || d.Kind == Output) {
			return invalid(i, "%s layer must be at the edge of the network", d.Kind)
		}
		m := d.NodeMap
		if m.Width == 0 && m.Height == 0 && m.Depth == 0 {
			return invalid(i, "node map is empty")
		}
		if m.Width < 0 || m.Height < 0 || m.Depth < 0 {
			return invalid(i, "negative node map %s", m)
		}
		if d.Kind != Convolutional && m.Depth != 0 {
			return invalid(i, "%s layer cannot have a depth (got %d)", d.Kind, m.Depth)
		}
		if d.Kind == Convolutional {
			if m.Height == 0 || m.Depth == 0 {
				return invalid(i, "convolutional layer needs height and depth, got %s", m)
			}
			if d.Filter <= 0 {
				return invalid(i, "convolutional layer needs a filter")
			}
			prev := withDefaults(defs[i-1]).NodeMap
			if d.Filter >= prev.Width || d.Filter >= prev.Height {
				return invalid(i, "filter %d must be smaller than the previous node map %dx%d", d.Filter, prev.Width, prev.Height)
			}
			if d.Filter > MaxFilter {
				return invalid(i, "filter %d exceeds maximum %d", d.Filter, MaxFilter)
			}
		}
		if d.Kind != Input && !d.Activation.Valid() {
			return invalid(i, "missing or unrecognised activation %d", int(d.Activation))
		}
	}
	return nil
}

func withDefaults(d Definition) Definition {
	if d.NodeMap.Width == 0 {
		d.NodeMap.Width = 1
	}
	if d.NodeMap.Height == 0 {
		d.NodeMap.Height = 1
	}
	if d.NodeMap.Depth == 0 {
		d.NodeMap.Depth = 1
	}
	if d.Kind != Convolutional {
		d.Filter = 0
	}
	return d
}

// Define validates defs and returns a copy with every unset dimension set
// to 1 and the filter of non-convolutional layers forced to 0.
func Define(defs ...Definition) ([]Definition, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}
	out := make([]Definition, len(defs))
	for i, d := range defs {
		out[i] = withDefaults(d)
	}
	return out, nil
}
