package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/checkpoint"
	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/qaoa"
	"github.com/samcharles93/qmeta/internal/report"
)

type evalOptions struct {
	fineTuneSteps   int64
	fineTuneLR      float64
	landscapePoints int64
	shots           int64
}

func (e evalOptions) reportOptions(seed int64) report.Options {
	opts := report.DefaultOptions()
	opts.FineTuneSteps = int(e.fineTuneSteps)
	opts.FineTuneLR = e.fineTuneLR
	opts.LandscapePoints = int(e.landscapePoints)
	opts.Shots = int(e.shots)
	opts.Seed = seed
	return opts
}

func evalCmd() *cli.Command {
	var (
		g           graphFlags
		e           evalOptions
		ckptPath    string
		datasetPath string
		reportDir   string
	)

	return &cli.Command{
		Name:  "eval",
		Usage: "Evaluate a trained controller on held-out graphs and write reports",
		Flags: append(g.flags(1234, 1),
			&cli.StringFlag{
				Name:        "checkpoint",
				Usage:       "checkpoint path (default: <out-dir>/model.safetensors)",
				Destination: &ckptPath,
			},
			&cli.StringFlag{
				Name:        "dataset",
				Usage:       "evaluate every graph of a saved dataset",
				Destination: &datasetPath,
			},
			&cli.StringFlag{
				Name:        "reports",
				Usage:       "report directory (default: <out-dir>/reports)",
				Destination: &reportDir,
			},
			&cli.Int64Flag{
				Name:        "fine-tune-steps",
				Usage:       "gradient descent steps from each starting point",
				Value:       15,
				Destination: &e.fineTuneSteps,
			},
			&cli.Float64Flag{
				Name:        "fine-tune-lr",
				Usage:       "gradient descent learning rate",
				Value:       0.01,
				Destination: &e.fineTuneLR,
			},
			&cli.Int64Flag{
				Name:        "landscape-points",
				Usage:       "grid points per axis for the p=1 landscape (0 disables)",
				Value:       25,
				Destination: &e.landscapePoints,
			},
			&cli.Int64Flag{
				Name:        "shots",
				Usage:       "measurement samples for the best sampled cut",
				Value:       1024,
				Destination: &e.shots,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyGraphConfig(cmd, cfg, &g)
			applyEvalConfig(cmd, cfg, &e)

			path := outPath(ckptPath, checkpointFile)
			model, info, err := checkpoint.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load checkpoint %s: %v", path, err), 1)
			}
			ds, err := loadGraphs(datasetPath, g)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			dir := reportDir
			if dir == "" {
				dir = filepath.Join(resolveOutDir(outDir), reportsDir)
			}

			var ratios []float64
			for i, gr := range ds.Graphs {
				if err := ctx.Err(); err != nil {
					return err
				}
				c, err := qaoa.New(gr, info.Layers)
				if err != nil {
					return fmt.Errorf("graph %d: %w", i, err)
				}
				r, err := report.Build(ctx, model, c, e.reportOptions(g.seed+int64(i)))
				if err != nil {
					return fmt.Errorf("graph %d: %w", i, err)
				}
				if err := writeReport(dir, r); err != nil {
					return err
				}
				ratios = append(ratios, r.Ratio)
				fmt.Printf("%s  nodes=%d edges=%d max_cut=%g ratio=%.4f lstm=%.4f random=%.4f\n",
					r.ID, gr.Nodes, len(gr.Edges), r.MaxCut, r.Ratio,
					last(r.FineTune.LSTM.Costs), last(r.FineTune.Random.Costs))
			}
			log.Info("evaluation complete", "run", model.RunID, "graphs", len(ratios), "mean_ratio", mean(ratios), "reports", dir)
			return nil
		},
	}
}

func writeReport(dir string, r *report.Report) error {
	if err := r.Save(filepath.Join(dir, r.ID+".json")); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, r.ID+".svg"))
	if err != nil {
		return err
	}
	if err := report.WriteSVG(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
