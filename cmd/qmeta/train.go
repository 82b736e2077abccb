package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/checkpoint"
	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/meta"
	"github.com/samcharles93/qmeta/internal/qaoa"
)

type trainOptions struct {
	layers      int64
	steps       int64
	epochs      int64
	lr          float64
	logEvery    int64
	modelSeed   int64
	lossWeights []float64
}

func (t trainOptions) config() meta.Config {
	cfg := meta.Config{
		Layers:       int(t.layers),
		Steps:        int(t.steps),
		LossWeights:  t.lossWeights,
		LearningRate: t.lr,
		LogEvery:     int(t.logEvery),
		Seed:         t.modelSeed,
	}
	if len(cfg.LossWeights) == 0 {
		cfg.LossWeights = meta.DefaultLossWeights(cfg.Steps)
	}
	return cfg
}

// flags binds the meta-learner options; def supplies the defaults.
func (t *trainOptions) flags(def meta.Config) []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "layers",
			Usage:       "QAOA depth p",
			Value:       int64(def.Layers),
			Destination: &t.layers,
		},
		&cli.Int64Flag{
			Name:        "steps",
			Usage:       "recurrent iterations per graph",
			Value:       int64(def.Steps),
			Destination: &t.steps,
		},
		&cli.Int64Flag{
			Name:        "epochs",
			Usage:       "passes over the training graphs",
			Value:       5,
			Destination: &t.epochs,
		},
		&cli.Float64Flag{
			Name:        "lr",
			Aliases:     []string{"learning-rate"},
			Usage:       "Adam learning rate",
			Value:       def.LearningRate,
			Destination: &t.lr,
		},
		&cli.Int64Flag{
			Name:        "log-every",
			Usage:       "log the loss every N graphs",
			Value:       int64(def.LogEvery),
			Destination: &t.logEvery,
		},
		&cli.Int64Flag{
			Name:        "model-seed",
			Usage:       "seed for controller weight initialisation",
			Value:       def.Seed,
			Destination: &t.modelSeed,
		},
		&cli.FloatSliceFlag{
			Name:        "loss-weights",
			Usage:       "per-step loss weights, one per step (default: linear ramp)",
			Destination: &t.lossWeights,
		},
	}
}

func trainCmd() *cli.Command {
	var (
		g           graphFlags
		t           trainOptions
		datasetPath string
		ckptPath    string
		def         = meta.DefaultConfig()
	)

	return &cli.Command{
		Name:  "train",
		Usage: "Train the recurrent controller across a set of graphs",
		Flags: append(append(g.flags(42, 20), t.flags(def)...),
			&cli.StringFlag{
				Name:        "dataset",
				Usage:       "train on a saved dataset instead of generating graphs",
				Destination: &datasetPath,
			},
			&cli.StringFlag{
				Name:        "checkpoint",
				Usage:       "checkpoint path (default: <out-dir>/model.safetensors)",
				Destination: &ckptPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyGraphConfig(cmd, cfg, &g)
			applyTrainConfig(cmd, cfg, &t)

			ds, err := loadGraphs(datasetPath, g)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			objs := make([]meta.Objective, 0, len(ds.Graphs))
			for i, gr := range ds.Graphs {
				c, err := qaoa.New(gr, int(t.layers))
				if err != nil {
					return fmt.Errorf("graph %d: %w", i, err)
				}
				objs = append(objs, c)
			}

			model, err := meta.NewModel(t.config())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("training",
				"run", model.RunID,
				"graphs", len(objs),
				"nodes", ds.Nodes,
				"layers", t.layers,
				"steps", t.steps,
				"epochs", t.epochs,
				"lr", t.lr,
			)

			hist, err := model.Train(ctx, objs, int(t.epochs))
			if err != nil {
				return err
			}

			path := outPath(ckptPath, checkpointFile)
			info := checkpoint.Info{
				Epochs:    int(t.epochs),
				FinalLoss: hist.EpochLoss[len(hist.EpochLoss)-1],
				CreatedAt: time.Now(),
				Extra: map[string]string{
					"train_graphs":    strconv.Itoa(len(ds.Graphs)),
					"train_nodes":     strconv.Itoa(ds.Nodes),
					"train_edge_prob": strconv.FormatFloat(ds.EdgeProb, 'g', -1, 64),
					"train_seed":      strconv.FormatInt(ds.Seed, 10),
				},
			}
			if err := checkpoint.Save(path, model, info); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
			histPath := filepath.Join(filepath.Dir(path), historyFile)
			if err := writeJSON(histPath, hist); err != nil {
				return fmt.Errorf("save history: %w", err)
			}
			log.Info("training complete",
				"checkpoint", path,
				"final_loss", info.FinalLoss,
				"elapsed", hist.Elapsed,
			)
			return nil
		},
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
