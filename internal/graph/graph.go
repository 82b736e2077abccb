// Package graph holds the MaxCut problem instances: small undirected graphs,
// random G(n, p) generation, and exact cut evaluation.
package graph

import (
	"errors"
	"fmt"
	"math/rand"
)

// MaxExactNodes bounds the brute-force MaxCut search.
const MaxExactNodes = 24

var (
	ErrInvalidGraph = errors.New("invalid graph")
	ErrTooLarge     = errors.New("graph too large for exact search")
)

// Edge is an undirected edge between U and V. A zero Weight counts as 1.
type Edge struct {
	U      int     `json:"u"`
	V      int     `json:"v"`
	Weight float64 `json:"weight,omitempty"`
}

// W returns the effective edge weight.
func (e Edge) W() float64 {
	if e.Weight == 0 {
		return 1
	}
	return e.Weight
}

type Graph struct {
	Nodes int    `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// GNP draws an Erdős–Rényi graph: every pair u<v is included independently
// with probability p, visiting pairs in lexicographic order.
func GNP(rng *rand.Rand, n int, p float64) (Graph, error) {
	if n < 1 {
		return Graph{}, fmt.Errorf("%w: need at least one node, got %d", ErrInvalidGraph, n)
	}
	if p < 0 || p > 1 {
		return Graph{}, fmt.Errorf("%w: edge probability %v outside [0, 1]", ErrInvalidGraph, p)
	}
	g := Graph{Nodes: n}
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if rng.Float64() < p {
				g.Edges = append(g.Edges, Edge{U: u, V: v})
			}
		}
	}
	return g, nil
}

// GenerateSet returns count graphs drawn from a single seeded source.
func GenerateSet(seed int64, count, n int, p float64) ([]Graph, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative graph count %d", ErrInvalidGraph, count)
	}
	rng := rand.New(rand.NewSource(seed))
	out := make([]Graph, 0, count)
	for range count {
		g, err := GNP(rng, n, p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Validate checks endpoints, self loops and duplicate edges.
func (g Graph) Validate() error {
	if g.Nodes < 1 {
		return fmt.Errorf("%w: node count %d", ErrInvalidGraph, g.Nodes)
	}
	seen := make(map[[2]int]struct{}, len(g.Edges))
	for i, e := range g.Edges {
		if e.U < 0 || e.U >= g.Nodes || e.V < 0 || e.V >= g.Nodes {
			return fmt.Errorf("%w: edge %d (%d,%d) out of range", ErrInvalidGraph, i, e.U, e.V)
		}
		if e.U == e.V {
			return fmt.Errorf("%w: edge %d is a self loop on %d", ErrInvalidGraph, i, e.U)
		}
		key := [2]int{min(e.U, e.V), max(e.U, e.V)}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate edge (%d,%d)", ErrInvalidGraph, key[0], key[1])
		}
		seen[key] = struct{}{}
	}
	return nil
}

// TotalWeight is the sum of all edge weights.
func (g Graph) TotalWeight() float64 {
	var sum float64
	for _, e := range g.Edges {
		sum += e.W()
	}
	return sum
}

// CutValue returns the weight of edges crossing the partition. Bit i of
// assignment is the side of node i.
func (g Graph) CutValue(assignment uint64) float64 {
	var cut float64
	for _, e := range g.Edges {
		if (assignment>>uint(e.U))&1 != (assignment>>uint(e.V))&1 {
			cut += e.W()
		}
	}
	return cut
}

// MaxCut finds the optimal cut by enumeration. Node 0 is pinned to side 0
// since flipping every side gives the same cut.
func (g Graph) MaxCut() (float64, uint64, error) {
	if g.Nodes > MaxExactNodes {
		return 0, 0, fmt.Errorf("%w: %d nodes (limit %d)", ErrTooLarge, g.Nodes, MaxExactNodes)
	}
	if g.Nodes <= 1 {
		return 0, 0, nil
	}
	var (
		best     float64
		bestMask uint64
	)
	limit := uint64(1) << uint(g.Nodes-1)
	for half := uint64(0); half < limit; half++ {
		mask := half << 1
		if cut := g.CutValue(mask); cut > best {
			best, bestMask = cut, mask
		}
	}
	return best, bestMask, nil
}

// Degree returns the degree of every node.
func (g Graph) Degree() []int {
	deg := make([]int, g.Nodes)
	for _, e := range g.Edges {
		deg[e.U]++
		deg[e.V]++
	}
	return deg
}
