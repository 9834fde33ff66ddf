package bench

import (
	"math/rand"
	"time"
)

// Point is the averaged timing of one (model, parallelism) case.
type Point struct {
	Net      string
	Parallel int
	Fwd, Bwd time.Duration
}

// RandomInput fills a vector for the network's input layer with values in
// [-1, 1).
func RandomInput(net BuiltNet, r *rand.Rand) []float64 {
	x := make([]float64, net.Net.Layer(0).NodeCount)
	for i := range x {
		x[i] = r.Float64()*2 - 1
	}
	return x
}

// TimeStep runs one training step and returns the forward and backward times.
func TimeStep(net BuiltNet, x []float64, label int) (fwd, bwd time.Duration, err error) {
	if err := net.Net.FeedInput(x); err != nil {
		return 0, 0, err
	}
	start := time.Now()
	net.Net.RunForward()
	fwd = time.Since(start)

	start = time.Now()
	if err := net.Net.RunBackward(label); err != nil {
		return 0, 0, err
	}
	return fwd, time.Since(start), nil
}

// RunPoint averages iters training steps after warmup untimed ones.
func RunPoint(net BuiltNet, iters, warmup int, seed int64) (Point, error) {
	r := rand.New(rand.NewSource(seed))
	classes := net.Net.Layer(net.Net.LayerCount() - 1).NodeCount
	x := RandomInput(net, r)

	for i := 0; i < warmup; i++ {
		if _, _, err := TimeStep(net, x, r.Intn(classes)); err != nil {
			return Point{}, err
		}
	}

	p := Point{Net: net.Name, Parallel: net.Net.Parallelism}
	for i := 0; i < iters; i++ {
		f, b, err := TimeStep(net, x, r.Intn(classes))
		if err != nil {
			return Point{}, err
		}
		p.Fwd += f
		p.Bwd += b
	}
	denom := time.Duration(iters)
	if iters == 0 {
		denom = 1
	}
	p.Fwd /= denom
	p.Bwd /= denom
	return p, nil
}
