package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/graph"
	"github.com/samcharles93/qmeta/internal/logger"
)

func datasetCmd() *cli.Command {
	var (
		g   graphFlags
		out string
	)

	return &cli.Command{
		Name:  "dataset",
		Usage: "Generate and save a set of random MaxCut graphs",
		Flags: append(g.flags(42, 20),
			&cli.StringFlag{
				Name:        "out",
				Usage:       "dataset path (default: <out-dir>/dataset.json)",
				Destination: &out,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyGraphConfig(cmd, cfg, &g)

			ds, err := graph.NewDataset(g.seed, int(g.count), int(g.nodes), g.edgeProb)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			path := outPath(out, datasetFile)
			if err := ds.Save(path); err != nil {
				return fmt.Errorf("save dataset: %w", err)
			}
			edges := 0
			for _, gr := range ds.Graphs {
				edges += len(gr.Edges)
			}
			log.Info("dataset written", "path", path, "graphs", len(ds.Graphs), "nodes", ds.Nodes, "edges", edges)
			return nil
		},
	}
}

// loadGraphs reads a dataset file when path is set and generates a fresh
// set from g otherwise.
func loadGraphs(path string, g graphFlags) (*graph.Dataset, error) {
	if path != "" {
		return graph.LoadDataset(path)
	}
	return graph.NewDataset(g.seed, int(g.count), int(g.nodes), g.edgeProb)
}
