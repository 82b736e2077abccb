// Package lstm implements a single LSTM cell with hand-written backward pass.
//
// The cell follows the usual Keras layout: the pre-activation for all four
// gates is z = x·Kernel + h·Recurrent + Bias, split in the order input,
// forget, candidate, output. The cell output is the new hidden state.
package lstm

import (
	"fmt"
	"math/rand"

	"github.com/samcharles93/qmeta/internal/tensor"
)

type Cell struct {
	In     int
	Hidden int

	Kernel    tensor.Mat // [In x 4H]
	Recurrent tensor.Mat // [H x 4H]
	Bias      []float64  // [4H]

	z []float64 // scratch [4H]
}

// New builds a cell with Glorot-uniform input weights, orthogonal recurrent
// weights, and the forget-gate bias set to one.
func New(in, hidden int, rng *rand.Rand) *Cell {
	if in < 1 || hidden < 1 {
		panic(fmt.Sprintf("lstm: invalid shape in=%d hidden=%d", in, hidden))
	}
	c := Empty(in, hidden)
	tensor.Glorot(&c.Kernel, rng)
	tensor.Orthogonal(&c.Recurrent, rng)
	for j := hidden; j < 2*hidden; j++ {
		c.Bias[j] = 1
	}
	return c
}

// Empty allocates a zeroed cell, used when weights come from a checkpoint.
func Empty(in, hidden int) *Cell {
	return &Cell{
		In:        in,
		Hidden:    hidden,
		Kernel:    tensor.NewMat(in, 4*hidden),
		Recurrent: tensor.NewMat(hidden, 4*hidden),
		Bias:      make([]float64, 4*hidden),
		z:         make([]float64, 4*hidden),
	}
}

// Params returns live views of every trainable tensor in a fixed order.
func (c *Cell) Params() [][]float64 {
	return [][]float64{c.Kernel.Data, c.Recurrent.Data, c.Bias}
}

// Cache keeps what Backward needs from one Step.
type Cache struct {
	X, H, C    []float64
	I, F, G, O []float64
	CNext      []float64
	TanhC      []float64
}

// Step advances the cell by one input and returns the new hidden and cell
// states. The returned slices are freshly allocated.
func (c *Cell) Step(x, h, cPrev []float64) (hNext, cNext []float64, cache *Cache) {
	if len(x) != c.In || len(h) != c.Hidden || len(cPrev) != c.Hidden {
		panic("lstm: Step shape mismatch")
	}
	H := c.Hidden
	if len(c.z) != 4*H {
		c.z = make([]float64, 4*H)
	}
	z := c.z
	tensor.VecMat(z, x, &c.Kernel)
	for i, hi := range h {
		if hi != 0 {
			tensor.AddScaled(z, c.Recurrent.Row(i), hi)
		}
	}
	tensor.Add(z, c.Bias)

	cache = &Cache{
		X:     append([]float64(nil), x...),
		H:     append([]float64(nil), h...),
		C:     append([]float64(nil), cPrev...),
		I:     make([]float64, H),
		F:     make([]float64, H),
		G:     make([]float64, H),
		O:     make([]float64, H),
		CNext: make([]float64, H),
		TanhC: make([]float64, H),
	}
	hNext = make([]float64, H)
	for j := range H {
		cache.I[j] = tensor.Sigmoid(z[j])
		cache.F[j] = tensor.Sigmoid(z[H+j])
		cache.G[j] = tensor.Tanh(z[2*H+j])
		cache.O[j] = tensor.Sigmoid(z[3*H+j])
		cache.CNext[j] = cache.F[j]*cPrev[j] + cache.I[j]*cache.G[j]
		cache.TanhC[j] = tensor.Tanh(cache.CNext[j])
		hNext[j] = cache.O[j] * cache.TanhC[j]
	}
	cNext = append([]float64(nil), cache.CNext...)
	return hNext, cNext, cache
}

// Grads mirrors the cell's trainable tensors.
type Grads struct {
	Kernel    tensor.Mat
	Recurrent tensor.Mat
	Bias      []float64
}

func NewGrads(c *Cell) *Grads {
	return &Grads{
		Kernel:    tensor.NewMat(c.Kernel.R, c.Kernel.C),
		Recurrent: tensor.NewMat(c.Recurrent.R, c.Recurrent.C),
		Bias:      make([]float64, len(c.Bias)),
	}
}

// Slices lines up with Cell.Params.
func (g *Grads) Slices() [][]float64 {
	return [][]float64{g.Kernel.Data, g.Recurrent.Data, g.Bias}
}

func (g *Grads) Zero() {
	g.Kernel.Zero()
	g.Recurrent.Zero()
	clear(g.Bias)
}

// Backward takes the loss gradient with respect to one step's outputs (dh
// for the new hidden state, dc for the new cell state), accumulates the
// weight gradients into grads, and returns the gradients with respect to
// that step's inputs.
func (c *Cell) Backward(cache *Cache, dh, dc []float64, grads *Grads) (dx, dhPrev, dcPrev []float64) {
	H := c.Hidden
	if len(dh) != H || len(dc) != H {
		panic("lstm: Backward shape mismatch")
	}
	dz := make([]float64, 4*H)
	dcPrev = make([]float64, H)
	for j := range H {
		o, tc := cache.O[j], cache.TanhC[j]
		dct := dc[j] + dh[j]*o*(1-tc*tc)

		i, f, g := cache.I[j], cache.F[j], cache.G[j]
		dz[j] = dct * g * i * (1 - i)
		dz[H+j] = dct * cache.C[j] * f * (1 - f)
		dz[2*H+j] = dct * i * (1 - g*g)
		dz[3*H+j] = dh[j] * tc * o * (1 - o)
		dcPrev[j] = dct * f
	}

	tensor.AddOuter(&grads.Kernel, cache.X, dz)
	tensor.AddOuter(&grads.Recurrent, cache.H, dz)
	tensor.Add(grads.Bias, dz)

	dx = make([]float64, c.In)
	tensor.MatVec(dx, &c.Kernel, dz)
	dhPrev = make([]float64, H)
	tensor.MatVec(dhPrev, &c.Recurrent, dz)
	return dx, dhPrev, dcPrev
}
