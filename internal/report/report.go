// Package report evaluates a trained controller on a held-out graph and
// produces the artifacts of an evaluation run: a JSON report, the p=1 cost
// landscape, and an SVG rendering of both.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/samcharles93/qmeta/internal/graph"
	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/meta"
	"github.com/samcharles93/qmeta/internal/optim"
	"github.com/samcharles93/qmeta/internal/qaoa"
	"github.com/samcharles93/qmeta/internal/tensor"
)

// Options control the evaluation of one graph.
type Options struct {
	FineTuneSteps   int
	FineTuneLR      float64
	RandomLo        float64
	RandomHi        float64
	Seed            int64
	Shots           int
	LandscapePoints int
	LandscapeMin    float64
	LandscapeMax    float64
}

func DefaultOptions() Options {
	return Options{
		FineTuneSteps:   15,
		FineTuneLR:      0.01,
		RandomLo:        -math.Pi / 2,
		RandomHi:        math.Pi / 2,
		Seed:            7,
		Shots:           1024,
		LandscapePoints: 25,
		LandscapeMin:    -math.Pi / 2,
		LandscapeMax:    math.Pi / 2,
	}
}

// Curve is one fine-tuning run from a given starting point.
type Curve struct {
	Start []float64 `json:"start"`
	Final []float64 `json:"final"`
	Costs []float64 `json:"costs"`
	Ratio float64   `json:"approximation_ratio"`

	// GradNorm is |∇⟨H_C⟩| at Final; near zero once descent has converged.
	GradNorm float64 `json:"grad_norm"`
}

// FineTune compares gradient descent started from the controller's guess
// against a random start.
type FineTune struct {
	Steps        int     `json:"steps"`
	LearningRate float64 `json:"learning_rate"`
	LSTM         Curve   `json:"lstm"`
	Random       Curve   `json:"random"`
}

type Report struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Layers     int             `json:"layers"`
	Graph      graph.Graph     `json:"graph"`
	MaxCut     float64         `json:"max_cut"`
	Trajectory meta.Trajectory `json:"trajectory"`
	Ratio      float64         `json:"approximation_ratio"`
	SampledCut float64         `json:"sampled_cut"`
	FineTune   FineTune        `json:"fine_tune"`
	Landscape  *Landscape      `json:"landscape,omitempty"`
}

// Build runs the controller on c, fine-tunes from its final guess and
// from a random guess, and samples the landscape when c has one layer.
func Build(ctx context.Context, m *meta.Model, c *qaoa.Circuit, opts Options) (*Report, error) {
	log := logger.FromContext(ctx).With("run", m.RunID)

	traj, err := m.Forward(c)
	if err != nil {
		return nil, err
	}
	best, err := c.MaxCut()
	if err != nil {
		return nil, err
	}
	final := traj.Final()
	ratio, _ := c.ApproximationRatio(c.Evaluate(final))

	rng := rand.New(rand.NewSource(opts.Seed))
	sampled, _ := c.MostLikelyCut(final, opts.Shots, rng)

	r := &Report{
		ID:         uuid.NewString(),
		RunID:      m.RunID,
		CreatedAt:  time.Now().UTC(),
		Layers:     c.Layers,
		Graph:      c.Graph,
		MaxCut:     best,
		Trajectory: traj,
		Ratio:      ratio,
		SampledCut: sampled,
		FineTune: FineTune{
			Steps:        opts.FineTuneSteps,
			LearningRate: opts.FineTuneLR,
		},
	}
	r.FineTune.LSTM = fineTune(c, final, opts)
	r.FineTune.Random = fineTune(c, meta.RandomParams(rng, c.NumParams(), opts.RandomLo, opts.RandomHi), opts)
	log.Info("evaluated",
		"nodes", c.Graph.Nodes,
		"edges", len(c.Graph.Edges),
		"max_cut", best,
		"ratio", ratio,
		"lstm_final", last(r.FineTune.LSTM.Costs),
		"random_final", last(r.FineTune.Random.Costs),
	)

	if c.Layers == 1 && opts.LandscapePoints > 1 {
		r.Landscape, err = ComputeLandscape(ctx, c, opts.LandscapePoints, opts.LandscapeMin, opts.LandscapeMax)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func fineTune(c *qaoa.Circuit, start []float64, opts Options) Curve {
	costs, final := meta.FineTune(c, start, opts.FineTuneSteps, &optim.SGD{LR: opts.FineTuneLR})
	ratio, _ := c.ApproximationRatio(last(costs))
	_, grad := c.EvaluateWithGrad(final)
	return Curve{
		Start:    append([]float64(nil), start...),
		Final:    final,
		Costs:    costs,
		Ratio:    ratio,
		GradNorm: tensor.Norm2(grad),
	}
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

// Save writes r as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report %s: %w", path, err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("report %s: missing id", path)
	}
	return &r, nil
}

// LoadDir loads every *.json report in dir, oldest first. A missing
// directory yields no reports.
func LoadDir(dir string) ([]*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*Report
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
