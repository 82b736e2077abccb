package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "qmeta",
		Usage:   "Meta-learned QAOA initialisation for MaxCut",
		Version: version.String(),
		Flags:   rootFlags(),
		Before:  setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			datasetCmd(),
			trainCmd(),
			evalCmd(),
			landscapeCmd(),
			serveCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	c, err := LoadConfig(configPath(configFile), configFile != "")
	if err != nil {
		return ctx, err
	}
	cfg = c
	applyRootConfig(cmd, cfg)

	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, err
	}
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logger.WithContext(ctx, logger.Setup(os.Stderr, level, format)), nil
}
