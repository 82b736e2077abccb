package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the qmeta configuration file (~/.config/qmeta/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	OutDir string `yaml:"out_dir"`

	// Graph generation
	Seed     *int64   `yaml:"seed"`
	Graphs   *int64   `yaml:"graphs"`
	Nodes    *int64   `yaml:"nodes"`
	EdgeProb *float64 `yaml:"edge_prob"`

	// Meta-learner
	Layers       *int64    `yaml:"layers"`
	Steps        *int64    `yaml:"steps"`
	Epochs       *int64    `yaml:"epochs"`
	LearningRate *float64  `yaml:"learning_rate"`
	LossWeights  []float64 `yaml:"loss_weights"`
	LogEvery     *int64    `yaml:"log_every"`

	// Evaluation
	FineTuneSteps   *int64   `yaml:"fine_tune_steps"`
	FineTuneLR      *float64 `yaml:"fine_tune_lr"`
	LandscapePoints *int64   `yaml:"landscape_points"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// cfg is loaded by the root command's Before hook.
var cfg Config

func configPath(override string) string {
	if override != "" {
		return override
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qmeta", "config.yaml")
}

// LoadConfig reads the config file. A missing default file yields a zero
// Config; a file named explicitly must exist.
func LoadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func applyRootConfig(c *cli.Command, cfg Config) {
	if cfg.OutDir != "" && !c.IsSet("out-dir") {
		outDir = cfg.OutDir
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyGraphConfig applies config file defaults to graph generation flags
// when the corresponding CLI flag was not explicitly set.
func applyGraphConfig(c *cli.Command, cfg Config, g *graphFlags) {
	if cfg.Seed != nil && !c.IsSet("seed") {
		g.seed = *cfg.Seed
	}
	if cfg.Graphs != nil && !c.IsSet("graphs") {
		g.count = *cfg.Graphs
	}
	if cfg.Nodes != nil && !c.IsSet("nodes") {
		g.nodes = *cfg.Nodes
	}
	if cfg.EdgeProb != nil && !c.IsSet("edge-prob") {
		g.edgeProb = *cfg.EdgeProb
	}
}

func applyTrainConfig(c *cli.Command, cfg Config, t *trainOptions) {
	if cfg.Layers != nil && !c.IsSet("layers") {
		t.layers = *cfg.Layers
	}
	if cfg.Steps != nil && !c.IsSet("steps") {
		t.steps = *cfg.Steps
	}
	if cfg.Epochs != nil && !c.IsSet("epochs") {
		t.epochs = *cfg.Epochs
	}
	if cfg.LearningRate != nil && !c.IsSet("lr") {
		t.lr = *cfg.LearningRate
	}
	if cfg.LogEvery != nil && !c.IsSet("log-every") {
		t.logEvery = *cfg.LogEvery
	}
	if len(cfg.LossWeights) > 0 && !c.IsSet("loss-weights") {
		t.lossWeights = cfg.LossWeights
	}
}

func applyEvalConfig(c *cli.Command, cfg Config, e *evalOptions) {
	if cfg.FineTuneSteps != nil && !c.IsSet("fine-tune-steps") {
		e.fineTuneSteps = *cfg.FineTuneSteps
	}
	if cfg.FineTuneLR != nil && !c.IsSet("fine-tune-lr") {
		e.fineTuneLR = *cfg.FineTuneLR
	}
	if cfg.LandscapePoints != nil && !c.IsSet("landscape-points") {
		e.landscapePoints = *cfg.LandscapePoints
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
