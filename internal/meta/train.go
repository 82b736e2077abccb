package meta

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/optim"
)

// History is the per-graph and per-epoch loss record of a training run.
type History struct {
	GraphLoss [][]float64   `json:"graph_loss"`
	EpochLoss []float64     `json:"epoch_loss"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Train runs epochs passes over objs, one optimizer step per objective.
// Cancellation is checked between objectives.
func (m *Model) Train(ctx context.Context, objs []Objective, epochs int) (History, error) {
	log := logger.FromContext(ctx).With("run", m.RunID)
	var hist History
	if len(objs) == 0 {
		return hist, newConfigError("no training objectives")
	}
	if epochs < 1 {
		return hist, newConfigError("epochs must be positive, got %d", epochs)
	}
	start := time.Now()
	every := m.LogEvery
	if every < 1 {
		every = 1
	}
	for epoch := range epochs {
		losses := make([]float64, 0, len(objs))
		for i, obj := range objs {
			if err := ctx.Err(); err != nil {
				hist.Elapsed = time.Since(start)
				return hist, err
			}
			loss, err := m.TrainStep(obj)
			if err != nil {
				return hist, fmt.Errorf("epoch %d graph %d: %w", epoch+1, i+1, err)
			}
			losses = append(losses, loss)
			if i%every == 0 {
				log.Info("graph", "epoch", epoch+1, "graph", fmt.Sprintf("%d/%d", i+1, len(objs)), "loss", loss)
			}
		}
		mean := average(losses)
		hist.GraphLoss = append(hist.GraphLoss, losses)
		hist.EpochLoss = append(hist.EpochLoss, mean)
		log.Info("epoch complete", "epoch", epoch+1, "mean_loss", mean)
	}
	hist.Elapsed = time.Since(start)
	return hist, nil
}

// FineTune runs gradient descent on the QAOA parameters directly, starting
// from start. The returned costs have steps+1 entries: the starting cost
// followed by the cost after each update. The final parameters are
// returned alongside.
func FineTune(obj Objective, start []float64, steps int, opt optim.Optimizer) ([]float64, []float64) {
	params := append([]float64(nil), start...)
	costs := make([]float64, 0, steps+1)
	for range steps {
		cost, grad := obj.EvaluateWithGrad(params)
		costs = append(costs, cost)
		opt.Step([][]float64{params}, [][]float64{grad})
	}
	costs = append(costs, obj.Evaluate(params))
	return costs, params
}

// RandomParams draws n parameters uniformly from [lo, hi).
func RandomParams(rng *rand.Rand, n int, lo, hi float64) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = lo + rng.Float64()*(hi-lo)
	}
	return p
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
