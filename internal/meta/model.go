// Package meta trains a recurrent controller to propose QAOA angles.
//
// At every step the LSTM cell sees the previous cost and the previous
// angles, emits new angles as its hidden state, and those angles are scored
// on the quantum objective. The loss is the weighted mean of the step
// costs, so later guesses count more than early ones.
package meta

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/samcharles93/qmeta/internal/lstm"
	"github.com/samcharles93/qmeta/internal/optim"
	"github.com/samcharles93/qmeta/internal/tensor"
)

var ErrInvalidConfig = errors.New("invalid meta-learner config")

type configError struct {
	msg string
}

func (e configError) Error() string { return e.msg }

func (e configError) Unwrap() error { return ErrInvalidConfig }

func newConfigError(format string, args ...any) error {
	return configError{msg: fmt.Sprintf(format, args...)}
}

// Objective is a differentiable cost over a flat parameter vector.
type Objective interface {
	NumParams() int
	Evaluate(params []float64) float64
	EvaluateWithGrad(params []float64) (float64, []float64)
}

// Config holds the controller hyperparameters.
type Config struct {
	Layers       int
	Steps        int
	LossWeights  []float64
	LearningRate float64
	LogEvery     int
	Seed         int64
}

// DefaultLossWeights ramps linearly: 0.1, 0.2, … for the given step count.
func DefaultLossWeights(steps int) []float64 {
	w := make([]float64, steps)
	for i := range w {
		w[i] = 0.1 * float64(i+1)
	}
	return w
}

func DefaultConfig() Config {
	return Config{
		Layers:       1,
		Steps:        5,
		LossWeights:  DefaultLossWeights(5),
		LearningRate: 0.1,
		LogEvery:     5,
		Seed:         42,
	}
}

func (c Config) Validate() error {
	if c.Layers < 1 {
		return newConfigError("layers must be positive, got %d", c.Layers)
	}
	if c.Steps < 1 {
		return newConfigError("steps must be positive, got %d", c.Steps)
	}
	if len(c.LossWeights) != c.Steps {
		return newConfigError("got %d loss weights for %d steps", len(c.LossWeights), c.Steps)
	}
	if c.LearningRate <= 0 {
		return newConfigError("learning rate must be positive, got %v", c.LearningRate)
	}
	return nil
}

// Model is the recurrent controller plus its optimizer state.
type Model struct {
	RunID       string
	Layers      int
	Steps       int
	LossWeights []float64
	LogEvery    int

	Cell *lstm.Cell

	opt   optim.Optimizer
	grads *lstm.Grads
}

// NewModel initialises a fresh controller for depth-cfg.Layers QAOA.
func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := 2 * cfg.Layers
	rng := rand.New(rand.NewSource(cfg.Seed))
	cell := lstm.New(1+n, n, rng)
	return FromCell(cfg, cell, uuid.NewString())
}

// FromCell wraps existing weights, as restored from a checkpoint.
func FromCell(cfg Config, cell *lstm.Cell, runID string) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := 2 * cfg.Layers
	if cell.In != 1+n || cell.Hidden != n {
		return nil, newConfigError("cell shape in=%d hidden=%d does not fit %d QAOA layers", cell.In, cell.Hidden, cfg.Layers)
	}
	lr := cfg.LearningRate
	return &Model{
		RunID:       runID,
		Layers:      cfg.Layers,
		Steps:       cfg.Steps,
		LossWeights: append([]float64(nil), cfg.LossWeights...),
		LogEvery:    cfg.LogEvery,
		Cell:        cell,
		opt:         optim.NewAdam(lr),
		grads:       lstm.NewGrads(cell),
	}, nil
}

// NumParams is the QAOA parameter count 2p.
func (m *Model) NumParams() int { return 2 * m.Layers }

// Trajectory records one unrolled pass of the controller.
type Trajectory struct {
	Params [][]float64 `json:"params"`
	Costs  []float64   `json:"costs"`
	Loss   float64     `json:"loss"`
}

// Final is the last proposed parameter vector.
func (t Trajectory) Final() []float64 {
	if len(t.Params) == 0 {
		return nil
	}
	return t.Params[len(t.Params)-1]
}

type unrolled struct {
	Trajectory
	caches []*lstm.Cache
	grads  [][]float64
}

func (m *Model) unroll(obj Objective, withGrad bool) (*unrolled, error) {
	n := m.NumParams()
	if obj.NumParams() != n {
		return nil, fmt.Errorf("objective has %d parameters, controller emits %d", obj.NumParams(), n)
	}
	u := &unrolled{
		Trajectory: Trajectory{
			Params: make([][]float64, 0, m.Steps),
			Costs:  make([]float64, 0, m.Steps),
		},
	}
	var (
		cost   float64
		params = make([]float64, n)
		h      = make([]float64, n)
		c      = make([]float64, n)
		x      = make([]float64, 0, 1+n)
	)
	for t := range m.Steps {
		x = tensor.Concat(x, []float64{cost}, params)
		var cache *lstm.Cache
		h, c, cache = m.Cell.Step(x, h, c)
		params = append([]float64(nil), h...)
		if withGrad {
			var g []float64
			cost, g = obj.EvaluateWithGrad(params)
			u.caches = append(u.caches, cache)
			u.grads = append(u.grads, g)
		} else {
			cost = obj.Evaluate(params)
		}
		u.Params = append(u.Params, params)
		u.Costs = append(u.Costs, cost)
		u.Loss += m.LossWeights[t] * cost
	}
	u.Loss /= float64(m.Steps)
	return u, nil
}

// Forward runs the controller on obj without touching the weights.
func (m *Model) Forward(obj Objective) (Trajectory, error) {
	u, err := m.unroll(obj, false)
	if err != nil {
		return Trajectory{}, err
	}
	return u.Trajectory, nil
}

// Gradient unrolls the controller and backpropagates the loss through time,
// leaving the weight gradients in the model's gradient buffer.
//
// Every step output feeds three places: the step cost, the next step's
// input (as the previous angles), and the next step's recurrent state. The
// step cost in turn feeds the next input, so its gradient collects both the
// loss weight and the downstream input gradient.
func (m *Model) Gradient(obj Objective) (Trajectory, *lstm.Grads, error) {
	u, err := m.unroll(obj, true)
	if err != nil {
		return Trajectory{}, nil, err
	}
	m.grads.Zero()
	n := m.NumParams()
	T := m.Steps
	dh := make([]float64, n)
	dc := make([]float64, n)
	var dxNext []float64
	for t := T - 1; t >= 0; t-- {
		dy := m.LossWeights[t] / float64(T)
		dOut := make([]float64, n)
		if dxNext != nil {
			dy += dxNext[0]
			copy(dOut, dxNext[1:])
		}
		tensor.AddScaled(dOut, u.grads[t], dy)
		tensor.Add(dOut, dh)

		var dx []float64
		dx, dh, dc = m.Cell.Backward(u.caches[t], dOut, dc, m.grads)
		dxNext = dx
	}
	return u.Trajectory, m.grads, nil
}

// TrainStep computes the loss on obj and applies one optimizer update.
func (m *Model) TrainStep(obj Objective) (float64, error) {
	traj, grads, err := m.Gradient(obj)
	if err != nil {
		return 0, err
	}
	m.opt.Step(m.Cell.Params(), grads.Slices())
	return traj.Loss, nil
}

// Config reconstructs the configuration the model was built with.
func (m *Model) Config() Config {
	lr := 0.0
	if a, ok := m.opt.(*optim.Adam); ok {
		lr = a.LR
	}
	return Config{
		Layers:       m.Layers,
		Steps:        m.Steps,
		LossWeights:  append([]float64(nil), m.LossWeights...),
		LearningRate: lr,
		LogEvery:     m.LogEvery,
	}
}
