package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/qmeta/internal/checkpoint"
)

func inspectCmd() *cli.Command {
	var ckptPath string

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print checkpoint metadata and tensor shapes",
		ArgsUsage: "[checkpoint]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "checkpoint",
				Usage:       "checkpoint path (default: <out-dir>/model.safetensors)",
				Destination: &ckptPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := ckptPath
			if path == "" {
				path = cmd.Args().First()
			}
			path = outPath(path, checkpointFile)

			f, err := checkpoint.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open checkpoint: %v", err), 1)
			}
			defer func() { _ = f.Close() }()
			if _, err := checkpoint.ParseInfo(f.Meta); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			printCheckpoint(os.Stdout, f)
			return nil
		},
	}
}

func printCheckpoint(w io.Writer, f *checkpoint.File) {
	_, _ = fmt.Fprintf(w, "file: %s (%d bytes)\n", f.Path, len(f.Data))
	_, _ = fmt.Fprintln(w, "metadata:")
	keys := make([]string, 0, len(f.Meta))
	for k := range f.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %-16s %s\n", k, f.Meta[k])
	}
	_, _ = fmt.Fprintln(w, "tensors:")
	for _, name := range f.Names() {
		t := f.Tensors[name]
		dims := make([]string, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = fmt.Sprint(d)
		}
		_, _ = fmt.Fprintf(w, "  %-16s %s [%s] %d bytes\n", name, t.DType, strings.Join(dims, "x"), t.End-t.Start)
	}
}
