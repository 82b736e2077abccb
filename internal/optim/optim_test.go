package optim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGDStep(t *testing.T) {
	t.Parallel()
	p := [][]float64{{1, 2}, {3}}
	g := [][]float64{{0.5, -1}, {2}}
	(&SGD{LR: 0.1}).Step(p, g)
	assert.InDeltaSlice(t, []float64{0.95, 2.1}, p[0], 1e-12)
	assert.InDeltaSlice(t, []float64{2.8}, p[1], 1e-12)
}

func TestAdamFirstStepIsLearningRate(t *testing.T) {
	t.Parallel()
	p := [][]float64{{0, 0}}
	opt := NewAdam(0.1)
	opt.Step(p, [][]float64{{3, -0.001}})
	// Bias correction makes the first update ±lr regardless of magnitude.
	assert.InDelta(t, -0.1, p[0][0], 1e-5)
	assert.InDelta(t, 0.1, p[0][1], 1e-3)
	assert.Equal(t, 1, opt.Steps())
}

func TestAdamMinimisesQuadratic(t *testing.T) {
	t.Parallel()
	x := [][]float64{{4, -3}}
	opt := NewAdam(0.05)
	for range 2000 {
		g := [][]float64{{2 * (x[0][0] - 1), 2 * (x[0][1] + 2)}}
		opt.Step(x, g)
	}
	assert.InDelta(t, 1, x[0][0], 5e-2)
	assert.InDelta(t, -2, x[0][1], 5e-2)
	assert.False(t, math.IsNaN(x[0][0]))
}
