package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/logger"
	"github.com/samcharles93/qmeta/internal/server"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		reportDir   string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve evaluation reports and plots over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "reports",
				Usage:       "report directory to preload (default: <out-dir>/reports)",
				Destination: &reportDir,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr)

			dir := reportDir
			if dir == "" {
				dir = filepath.Join(resolveOutDir(outDir), reportsDir)
			}
			store := server.NewReportStore()
			n, err := store.Preload(dir)
			if err != nil {
				return err
			}
			log.Info("reports loaded", "dir", dir, "count", n)

			srv := server.NewServer(store, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			srv.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(s *http.Server) error {
					s.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
