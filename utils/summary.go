package utils

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"dnn/mnist"
	"dnn/nn"
	"dnn/nn/layers"
)

// PrintNetworkSummary prints one row per layer with its shape, the filter and
// stride of convolutional layers, and node, connection and weight counts.
func PrintNetworkSummary(n *nn.Network) {
	if !Verbose {
		return
	}
	defs := n.Definitions()
	g := n.Geometry()

	tw := tabwriter.NewWriter(Output, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Layer\tKind\tActivation\tWxH\tDepth\tFilter\tStride\tNodes\tConnections\tWeights\tBytes\t")
	var nodes, conns int
	for i, d := range defs {
		lg := g.Layers[i]
		act, filter, stride := "-", "-", "-"
		if d.Kind != layers.Input {
			act = d.Activation.String()
		}
		if d.Kind == layers.Convolutional {
			filter = fmt.Sprint(d.Filter)
			stride = fmt.Sprint(layers.Stride(defs[i-1].NodeMap.Width, d.Filter, d.NodeMap.Width))
		}
		c := lg.Nodes * lg.Backward
		nodes += lg.Nodes
		conns += c
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%d\t%s\t%s\t%d\t%d\t%d\t%d\t\n",
			i, d.Kind, act, d.NodeMap.Width, d.NodeMap.Height, d.NodeMap.Depth, filter, stride, lg.Nodes, c, lg.Weights, lg.Size)
	}
	fmt.Fprintf(tw, "Total\t\t\t\t\t\t\t%d\t%d\t%d\t%d\t\n", nodes, conns, g.Weights, g.Size)
	tw.Flush()
}

// FormatImage renders an image as rows of 'X' for ink and '.' for blank.
func FormatImage(s mnist.Sample) string {
	var b strings.Builder
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.Pixels[y*s.Width+x] != 0 {
				b.WriteByte('X')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PrintImage prints a sample with its label and the network's classification.
func PrintImage(s mnist.Sample, classification int) {
	if !Verbose {
		return
	}
	fmt.Fprint(Output, FormatImage(s))
	fmt.Fprintf(Output, "     Label:%d   Classification:%d\n\n", s.Label, classification)
}
