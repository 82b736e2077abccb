package graph

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() Graph {
	return Graph{Nodes: 3, Edges: []Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2}}}
}

func TestGNPExtremes(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))

	empty, err := GNP(rng, 6, 0)
	require.NoError(t, err)
	assert.Empty(t, empty.Edges)

	full, err := GNP(rng, 6, 1)
	require.NoError(t, err)
	assert.Len(t, full.Edges, 15)
	require.NoError(t, full.Validate())
}

func TestGNPRejectsBadInput(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))

	_, err := GNP(rng, 0, 0.5)
	assert.ErrorIs(t, err, ErrInvalidGraph)
	_, err = GNP(rng, 4, 1.5)
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestGenerateSetDeterministic(t *testing.T) {
	t.Parallel()
	a, err := GenerateSet(42, 5, 7, 3.0/7.0)
	require.NoError(t, err)
	b, err := GenerateSet(42, 5, 7, 3.0/7.0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
}

func TestCutValue(t *testing.T) {
	t.Parallel()
	g := triangle()
	tests := []struct {
		mask uint64
		want float64
	}{
		{0b000, 0},
		{0b111, 0},
		{0b001, 2},
		{0b010, 2},
		{0b110, 2},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, g.CutValue(tc.mask), "mask %03b", tc.mask)
	}
}

func TestMaxCut(t *testing.T) {
	t.Parallel()

	best, _, err := triangle().MaxCut()
	require.NoError(t, err)
	assert.Equal(t, 2.0, best)

	// 4-cycle is bipartite: every edge can be cut.
	square := Graph{Nodes: 4, Edges: []Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}, {U: 3, V: 0}}}
	best, mask, err := square.MaxCut()
	require.NoError(t, err)
	assert.Equal(t, 4.0, best)
	assert.Equal(t, 4.0, square.CutValue(mask))
	assert.Zero(t, mask&1, "node 0 is pinned to side 0")

	weighted := Graph{Nodes: 2, Edges: []Edge{{U: 0, V: 1, Weight: 2.5}}}
	best, _, err = weighted.MaxCut()
	require.NoError(t, err)
	assert.Equal(t, 2.5, best)
}

func TestMaxCutTooLarge(t *testing.T) {
	t.Parallel()
	_, _, err := Graph{Nodes: MaxExactNodes + 1}.MaxCut()
	require.True(t, errors.Is(err, ErrTooLarge))
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		g    Graph
	}{
		{"no nodes", Graph{}},
		{"out of range", Graph{Nodes: 2, Edges: []Edge{{U: 0, V: 2}}}},
		{"self loop", Graph{Nodes: 2, Edges: []Edge{{U: 1, V: 1}}}},
		{"duplicate", Graph{Nodes: 3, Edges: []Edge{{U: 0, V: 1}, {U: 1, V: 0}}}},
	}
	for _, tc := range tests {
		assert.ErrorIs(t, tc.g.Validate(), ErrInvalidGraph, tc.name)
	}
	assert.NoError(t, triangle().Validate())
}

func TestDegree(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{2, 2, 2}, triangle().Degree())
}

func TestDatasetSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "graphs.json")

	d, err := NewDataset(7, 3, 5, 0.5)
	require.NoError(t, err)
	require.NoError(t, d.Save(path))

	loaded, err := LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, d.Seed, loaded.Seed)
	assert.Equal(t, len(d.Graphs), len(loaded.Graphs))
	for i := range d.Graphs {
		assert.Equal(t, d.Graphs[i].Nodes, loaded.Graphs[i].Nodes)
		assert.Equal(t, len(d.Graphs[i].Edges), len(loaded.Graphs[i].Edges))
	}
}
