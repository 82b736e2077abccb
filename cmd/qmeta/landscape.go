package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/qaoa"
	"github.com/samcharles93/qmeta/internal/report"
)

func landscapeCmd() *cli.Command {
	var (
		g           graphFlags
		datasetPath string
		index       int64
		points      int64
		lo, hi      float64
		out, svg    string
	)

	return &cli.Command{
		Name:  "landscape",
		Usage: "Sample the p=1 cost landscape of one graph",
		Flags: append(g.flags(1234, 1),
			&cli.StringFlag{
				Name:        "dataset",
				Usage:       "take the graph from a saved dataset",
				Destination: &datasetPath,
			},
			&cli.Int64Flag{
				Name:        "index",
				Usage:       "graph index within the set",
				Destination: &index,
			},
			&cli.Int64Flag{
				Name:        "points",
				Usage:       "grid points per axis",
				Value:       25,
				Destination: &points,
			},
			&cli.Float64Flag{
				Name:        "min",
				Usage:       "lower bound for γ and α",
				Value:       -math.Pi / 2,
				Destination: &lo,
			},
			&cli.Float64Flag{
				Name:        "max",
				Usage:       "upper bound for γ and α",
				Value:       math.Pi / 2,
				Destination: &hi,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "write the grid as JSON",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "svg",
				Usage:       "write a heatmap SVG",
				Destination: &svg,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyGraphConfig(cmd, cfg, &g)

			ds, err := loadGraphs(datasetPath, g)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if index < 0 || int(index) >= len(ds.Graphs) {
				return cli.Exit(fmt.Sprintf("error: index %d outside %d graphs", index, len(ds.Graphs)), 1)
			}
			gr := ds.Graphs[index]
			c, err := qaoa.New(gr, 1)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			ls, err := report.ComputeLandscape(ctx, c, int(points), lo, hi)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			best, err := c.MaxCut()
			if err != nil {
				return err
			}

			gamma, alpha, cost := ls.Argmin()
			ratio, _ := c.ApproximationRatio(cost)
			fmt.Printf("nodes=%d edges=%d max_cut=%g\n", gr.Nodes, len(gr.Edges), best)
			fmt.Printf("grid minimum: gamma=%.4f alpha=%.4f cost=%.6f ratio=%.4f\n", gamma, alpha, cost, ratio)

			if out != "" {
				if err := writeJSON(out, ls); err != nil {
					return fmt.Errorf("write landscape: %w", err)
				}
				log.Info("landscape written", "path", out)
			}
			if svg != "" {
				r := &report.Report{Layers: 1, Graph: gr, MaxCut: best, Ratio: ratio, Landscape: ls}
				f, err := os.Create(svg)
				if err != nil {
					return err
				}
				if err := report.WriteSVG(f, r); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				log.Info("heatmap written", "path", svg)
			}
			return nil
		},
	}
}
