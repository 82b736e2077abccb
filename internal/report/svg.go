package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

var ErrNothingToPlot = errors.New("report has no landscape and no cost curves")

const (
	panelWidth  = 6 * vg.Inch
	panelHeight = 5 * vg.Inch
)

var seriesColors = map[string]color.Color{
	"controller": color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"lstm":       color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"random":     color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	"optimum":    color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

// landscapeGrid adapts a Landscape to plotter.GridXYZ: columns run over γ,
// rows over α.
type landscapeGrid struct{ *Landscape }

func (g landscapeGrid) Dims() (c, r int) { return len(g.Gamma), len(g.Alpha) }
func (g landscapeGrid) Z(c, r int) float64 { return g.Cost[c][r] }
func (g landscapeGrid) X(c int) float64 { return g.Gamma[c] }
func (g landscapeGrid) Y(r int) float64 { return g.Alpha[r] }

// WriteSVG renders r as a standalone SVG: the landscape heatmap with the
// controller's proposals overlaid (p=1 only) next to a cost-per-iteration
// chart comparing the controller, fine-tuning from its guess, and
// fine-tuning from a random guess.
func WriteSVG(w io.Writer, r *Report) error {
	var row []*plot.Plot
	if r.Landscape != nil && len(r.Landscape.Gamma) > 1 && len(r.Landscape.Alpha) > 1 {
		p, err := heatmapPlot(r)
		if err != nil {
			return err
		}
		row = append(row, p)
	}
	chart, err := costPlot(r)
	if err != nil {
		return err
	}
	if chart != nil {
		row = append(row, chart)
	}
	if len(row) == 0 {
		return ErrNothingToPlot
	}

	img := vgsvg.New(panelWidth*vg.Length(len(row)), panelHeight)
	tiles := draw.Tiles{Rows: 1, Cols: len(row), PadX: vg.Millimeter * 4}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, draw.New(img))
	for i, p := range row {
		p.Draw(canvases[0][i])
	}
	_, err = img.WriteTo(w)
	return err
}

func heatmapPlot(r *Report) (*plot.Plot, error) {
	ls := r.Landscape
	p := plot.New()
	p.Title.Text = fmt.Sprintf("cost landscape · %d nodes · max cut %g", r.Graph.Nodes, r.MaxCut)
	p.X.Label.Text = "γ"
	p.Y.Label.Text = "α"

	h := plotter.NewHeatMap(landscapeGrid{ls}, palette.Heat(32, 1))
	if h.Max-h.Min < 1e-12 {
		// Flat landscape (edgeless graph); give the palette a range.
		h.Max = h.Min + 1
	}
	p.Add(h)
	xmin, xmax, ymin, ymax := h.DataRange()

	var path plotter.XYs
	for _, params := range r.Trajectory.Params {
		if len(params) < 2 {
			continue
		}
		path = append(path, plotter.XY{X: params[0], Y: params[len(params)/2]})
	}
	if len(path) > 0 {
		line, points, err := plotter.NewLinePoints(path)
		if err != nil {
			return nil, fmt.Errorf("trajectory: %w", err)
		}
		line.LineStyle.Color = color.White
		line.LineStyle.Width = vg.Points(1.5)
		points.GlyphStyle.Color = seriesColors["controller"]
		points.GlyphStyle.Radius = vg.Points(3)
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add("controller", line, points)
		p.Legend.Top = true
	}

	// Keep the frame on the grid; proposals outside it are clipped.
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax
	return p, nil
}

// costPlot returns nil when the report carries no cost curves.
func costPlot(r *Report) (*plot.Plot, error) {
	series := []struct {
		name   string
		values []float64
	}{
		{"controller", r.Trajectory.Costs},
		{"lstm", r.FineTune.LSTM.Costs},
		{"random", r.FineTune.Random.Costs},
	}
	length := 0
	for _, s := range series {
		length = max(length, len(s.values))
	}
	if length < 2 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("cost per iteration · ratio %.3f", r.Ratio)
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "cost"
	p.Legend.Top = true

	for _, s := range series {
		if len(s.values) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.values))
		for i, v := range s.values {
			xys[i] = plotter.XY{X: float64(i), Y: v}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("%s curve: %w", s.name, err)
		}
		line.LineStyle.Color = seriesColors[s.name]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	optimum, err := plotter.NewLine(plotter.XYs{{X: 0, Y: -r.MaxCut}, {X: float64(length - 1), Y: -r.MaxCut}})
	if err != nil {
		return nil, err
	}
	optimum.LineStyle.Color = seriesColors["optimum"]
	optimum.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(optimum)
	p.Legend.Add("optimum", optimum)
	return p, nil
}
