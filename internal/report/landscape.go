package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/qmeta/internal/qaoa"
)

var ErrLandscapeDepth = errors.New("landscape needs a single-layer circuit")

// Landscape is ⟨H_C⟩ sampled on a square (γ, α) grid. Cost[i][j] is the
// value at (Gamma[i], Alpha[j]).
type Landscape struct {
	Gamma []float64   `json:"gamma"`
	Alpha []float64   `json:"alpha"`
	Cost  [][]float64 `json:"cost"`
}

// ComputeLandscape evaluates c over points×points parameters spanning
// [lo, hi] on both axes. Rows are evaluated concurrently.
func ComputeLandscape(ctx context.Context, c *qaoa.Circuit, points int, lo, hi float64) (*Landscape, error) {
	if c.Layers != 1 {
		return nil, fmt.Errorf("%w: got %d layers", ErrLandscapeDepth, c.Layers)
	}
	if points < 2 {
		return nil, fmt.Errorf("landscape: need at least 2 points per axis, got %d", points)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("landscape: empty range [%v, %v]", lo, hi)
	}

	axis := linspace(lo, hi, points)
	ls := &Landscape{
		Gamma: axis,
		Alpha: append([]float64(nil), axis...),
		Cost:  make([][]float64, points),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.GOMAXPROCS(0), 1))
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, points)
			params := []float64{ls.Gamma[i], 0}
			for j, a := range ls.Alpha {
				params[1] = a
				row[j] = c.Evaluate(params)
			}
			ls.Cost[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ls, nil
}

// Bounds returns the smallest and largest sampled cost.
func (l *Landscape) Bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range l.Cost {
		for _, v := range row {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// Argmin is the grid point with the lowest cost.
func (l *Landscape) Argmin() (gamma, alpha, cost float64) {
	cost = math.Inf(1)
	for i, row := range l.Cost {
		for j, v := range row {
			if v < cost {
				gamma, alpha, cost = l.Gamma[i], l.Alpha[j], v
			}
		}
	}
	return gamma, alpha, cost
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
