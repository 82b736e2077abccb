package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
	outDir     string
)

func rootFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: $XDG_CONFIG_HOME/qmeta/config.yaml)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "out-dir",
			Aliases:     []string{"o"},
			Usage:       "directory for datasets, checkpoints and reports",
			Sources:     cli.EnvVars(envOutDir),
			Destination: &outDir,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// graphFlags describe a random G(n, p) graph set.
type graphFlags struct {
	seed     int64
	count    int64
	nodes    int64
	edgeProb float64
}

func (g *graphFlags) flags(defaultSeed, defaultCount int64) []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed for graph generation",
			Value:       defaultSeed,
			Destination: &g.seed,
		},
		&cli.Int64Flag{
			Name:        "graphs",
			Aliases:     []string{"count", "n"},
			Usage:       "number of graphs",
			Value:       defaultCount,
			Destination: &g.count,
		},
		&cli.Int64Flag{
			Name:        "nodes",
			Usage:       "nodes per graph",
			Value:       7,
			Destination: &g.nodes,
		},
		&cli.Float64Flag{
			Name:        "edge-prob",
			Aliases:     []string{"p"},
			Usage:       "G(n, p) edge probability",
			Value:       3.0 / 7.0,
			Destination: &g.edgeProb,
		},
	}
}
