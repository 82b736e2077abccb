package lstm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/samcharles93/qmeta/internal/tensor"
)

// twoStepLoss unrolls the cell twice and returns Σ a·h_t + b·c_t.
func twoStepLoss(c *Cell, xs [][]float64, h0, c0, a, b []float64) float64 {
	h, cs := h0, c0
	var loss float64
	for _, x := range xs {
		h, cs, _ = c.Step(x, h, cs)
		loss += tensor.Dot(a, h) + tensor.Dot(b, cs)
	}
	return loss
}

func setup() (*Cell, [][]float64, []float64, []float64, []float64, []float64) {
	rng := rand.New(rand.NewSource(17))
	c := New(3, 2, rng)
	for i := range c.Bias {
		c.Bias[i] += rng.Float64()*0.2 - 0.1
	}
	xs := [][]float64{{0.5, -0.3, 0.8}, {-0.2, 0.9, 0.1}}
	return c, xs, []float64{0.1, -0.4}, []float64{0.3, 0.2}, []float64{1.0, -0.5}, []float64{0.25, 0.7}
}

func TestStepMatchesNaive(t *testing.T) {
	t.Parallel()
	c, xs, h0, c0, _, _ := setup()
	h1, c1, _ := c.Step(xs[0], h0, c0)

	H := c.Hidden
	z := make([]float64, 4*H)
	for j := range z {
		sum := c.Bias[j]
		for i := range c.In {
			sum += xs[0][i] * c.Kernel.At(i, j)
		}
		for i := range H {
			sum += h0[i] * c.Recurrent.At(i, j)
		}
		z[j] = sum
	}
	for j := range H {
		ig := 1 / (1 + math.Exp(-z[j]))
		fg := 1 / (1 + math.Exp(-z[H+j]))
		gg := math.Tanh(z[2*H+j])
		og := 1 / (1 + math.Exp(-z[3*H+j]))
		cn := fg*c0[j] + ig*gg
		hn := og * math.Tanh(cn)
		if math.Abs(cn-c1[j]) > 1e-12 || math.Abs(hn-h1[j]) > 1e-12 {
			t.Fatalf("unit %d: got h=%f c=%f, want h=%f c=%f", j, h1[j], c1[j], hn, cn)
		}
	}
}

func TestForgetBiasInitialisedToOne(t *testing.T) {
	t.Parallel()
	c := New(2, 3, rand.New(rand.NewSource(1)))
	for j, b := range c.Bias {
		want := 0.0
		if j >= 3 && j < 6 {
			want = 1
		}
		if b != want {
			t.Fatalf("bias[%d]: expected %v, got %v", j, want, b)
		}
	}
}

func TestBackwardMatchesFiniteDifference(t *testing.T) {
	t.Parallel()
	c, xs, h0, c0, a, b := setup()

	// Analytic gradients through both steps.
	grads := NewGrads(c)
	h1, c1, cache1 := c.Step(xs[0], h0, c0)
	_, _, cache2 := c.Step(xs[1], h1, c1)
	_, dh1, dc1 := c.Backward(cache2, a, b, grads)
	tensor.Add(dh1, a)
	tensor.Add(dc1, b)
	dx0, dh0, dc0 := c.Backward(cache1, dh1, dc1, grads)

	const eps = 1e-6
	check := func(name string, v []float64, idx int, analytic float64) {
		t.Helper()
		orig := v[idx]
		v[idx] = orig + eps
		plus := twoStepLoss(c, xs, h0, c0, a, b)
		v[idx] = orig - eps
		minus := twoStepLoss(c, xs, h0, c0, a, b)
		v[idx] = orig
		fd := (plus - minus) / (2 * eps)
		if math.Abs(fd-analytic) > 1e-6 {
			t.Errorf("%s[%d]: finite difference %g, analytic %g", name, idx, fd, analytic)
		}
	}

	for i := range c.Kernel.Data {
		check("kernel", c.Kernel.Data, i, grads.Kernel.Data[i])
	}
	for i := range c.Recurrent.Data {
		check("recurrent", c.Recurrent.Data, i, grads.Recurrent.Data[i])
	}
	for i := range c.Bias {
		check("bias", c.Bias, i, grads.Bias[i])
	}
	for i := range xs[0] {
		check("x0", xs[0], i, dx0[i])
	}
	for i := range h0 {
		check("h0", h0, i, dh0[i])
		check("c0", c0, i, dc0[i])
	}
}

func TestGradsZero(t *testing.T) {
	t.Parallel()
	c := New(2, 2, rand.New(rand.NewSource(2)))
	g := NewGrads(c)
	_, _, cache := c.Step([]float64{1, 1}, make([]float64, 2), make([]float64, 2))
	c.Backward(cache, []float64{1, 1}, []float64{0, 0}, g)
	g.Zero()
	for _, s := range g.Slices() {
		for _, v := range s {
			if v != 0 {
				t.Fatal("expected zeroed gradients")
			}
		}
	}
	if len(g.Slices()) != len(c.Params()) {
		t.Fatal("grad slices must line up with params")
	}
}
