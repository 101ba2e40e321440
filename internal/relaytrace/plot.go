package relaytrace

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	dimGrey  = color.Gray{Y: 105}
	darkGrey = color.Gray{Y: 169}
	sensorC  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// FigureSink renders the run as PNG figures: the source position, every ray
// from source to sensor, and the pixel histogram.
type FigureSink struct {
	Dir           string
	Width, Height vg.Length // default 12×4 in
}

func (s FigureSink) Emit(ctx context.Context, res *Result) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	w, h := s.Width, s.Height
	if w <= 0 {
		w = 12 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	suffix := fileSuffix(res.Source)
	figs := []struct {
		name  string
		build func(*Result) (*plot.Plot, error)
	}{
		{"Origin_" + suffix + ".png", originPlot},
		{"ic_OriginToSensor_" + suffix + ".png", rayDiagram},
		{"ic_Histogram_" + suffix + ".png", histogramPlot},
	}
	for _, f := range figs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := f.build(res)
		if err != nil {
			return fmt.Errorf("build %s: %w", f.name, err)
		}
		path := filepath.Join(s.Dir, f.name)
		if err := p.Save(w, h, path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		DebugLog("Saved figure %s", path)
	}
	return nil
}

func originPlot(res *Result) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "z (m)"
	p.Y.Label.Text = "h (m)"
	z := res.Source.Z
	axis, err := plotter.NewLine(plotter.XYs{{X: -2 * z, Y: 0}, {X: 2 * z, Y: 0}})
	if err != nil {
		return nil, err
	}
	axis.Color = dimGrey
	src, err := plotter.NewScatter(plotter.XYs{{X: z, Y: res.Source.H}})
	if err != nil {
		return nil, err
	}
	src.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	focus, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}})
	if err != nil {
		return nil, err
	}
	focus.GlyphStyle.Color = color.Black
	p.Add(axis, src, focus)
	return p, nil
}

// rainbow colours rays by bundle index, violet at -θmax to red at +θmax.
func rainbow(n int) []color.Color {
	if n < 2 {
		return []color.Color{color.RGBA{R: 255, A: 255}}
	}
	return palette.Rainbow(n, palette.Magenta, palette.Red, 1, 1, 1).Colors()
}

func rayDiagram(res *Result) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Distance (mm)"
	p.HideY()

	g := res.Geometry
	// the source sits fOb+z in front of the objective
	zs := [4]Real{-res.Source.Z * 1000, g.ObjectiveZ * 1000, g.TubeZ * 1000, g.SensorZ * 1000}
	colors := rainbow(len(res.Paths))
	for i, path := range res.Paths {
		hs := path.Heights()
		xys := make(plotter.XYs, len(hs))
		for k := range hs {
			xys[k].X, xys[k].Y = zs[k], hs[k]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("ray %d: %w", path.Index, err)
		}
		l.Color = colors[i%len(colors)]
		l.Width = vg.Points(0.5)
		p.Add(l)
	}

	planes := []struct {
		x, half Real
		c       color.Color
	}{
		{zs[1], g.ObjectiveRadius, darkGrey},
		{zs[2], g.TubeRadius, darkGrey},
		{zs[3], g.SensorSize / 2, sensorC},
	}
	for _, pl := range planes {
		l, err := plotter.NewLine(plotter.XYs{{X: pl.x, Y: -pl.half}, {X: pl.x, Y: pl.half}})
		if err != nil {
			return nil, err
		}
		l.Color = pl.c
		l.Width = vg.Points(1.5)
		p.Add(l)
	}
	return p, nil
}

func histogramPlot(res *Result) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Distance Across Sensor (m)"
	p.Y.Label.Text = "Count"
	h := res.Histogram
	if h.Bins() == 0 {
		return p, nil
	}
	bins := make([]plotter.HistogramBin, h.Bins())
	for i, c := range h.Counts {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: float64(c)}
	}
	p.Add(&plotter.Histogram{
		Bins:      bins,
		Width:     h.Edges[1] - h.Edges[0],
		FillColor: sensorC,
		LineStyle: plotter.DefaultLineStyle,
	})
	p.X.Min, p.X.Max = res.BinLo, res.BinHi
	return p, nil
}
