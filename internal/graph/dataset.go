package graph

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// Dataset is the on-disk form of a generated graph set.
type Dataset struct {
	Seed     int64   `json:"seed"`
	Nodes    int     `json:"nodes"`
	EdgeProb float64 `json:"edge_prob"`
	Graphs   []Graph `json:"graphs"`
}

// NewDataset generates a dataset from the given parameters.
func NewDataset(seed int64, count, n int, p float64) (*Dataset, error) {
	graphs, err := GenerateSet(seed, count, n, p)
	if err != nil {
		return nil, err
	}
	return &Dataset{Seed: seed, Nodes: n, EdgeProb: p, Graphs: graphs}, nil
}

// Save writes the dataset as indented JSON, creating parent directories.
func (d *Dataset) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDataset reads a dataset and validates every graph.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	for i, g := range d.Graphs {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("dataset %s graph %d: %w", path, i, err)
		}
	}
	return &d, nil
}
