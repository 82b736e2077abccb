package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/checkpoint"
	"github.com/samcharles93/qmeta/internal/version"
)

// buildReport is the machine-readable form of `qmeta version --json`.
type buildReport struct {
	version.Info
	CheckpointFormat string `json:"checkpoint_format"`
}

func versionCmd() *cli.Command {
	var short, asJSON bool
	return &cli.Command{
		Name:  "version",
		Usage: "Print the build identity and checkpoint format",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "short", Usage: "print only the version string", Destination: &short},
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			switch {
			case short && asJSON:
				return errors.New("--short and --json are mutually exclusive")
			case short:
				_, err := fmt.Fprintln(w, version.String())
				return err
			case asJSON:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(buildReport{Info: version.Resolve(), CheckpointFormat: checkpoint.Format})
			}
			return printVersion(w, version.Resolve())
		},
	}
}

func printVersion(w io.Writer, info version.Info) error {
	rows := [][2]string{{"version", info.Version}}
	if info.Commit != "" {
		commit := info.Commit
		if info.Modified {
			commit += " (modified)"
		}
		rows = append(rows, [2]string{"commit", commit})
	}
	if info.BuildTime != "" {
		rows = append(rows, [2]string{"built", info.BuildTime})
	}
	rows = append(rows,
		[2]string{"go", info.GoVersion},
		[2]string{"checkpoint", checkpoint.Format},
	)
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-11s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}
