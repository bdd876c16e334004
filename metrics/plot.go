package metrics

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jsadler2/drb-dl-model/data"
)

// PlotReachMetrics writes a scatter of per-reach NSE against RMSE. Reaches
// under the sample floor (NaN metrics) are skipped.
func PlotReachMetrics(path string, rt *data.ReachTable) error {
	pts := make(plotter.XYs, 0, len(rt.SegIDs))
	for i := range rt.SegIDs {
		if math.IsNaN(rt.RMSE[i]) || math.IsNaN(rt.NSE[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: rt.RMSE[i], Y: rt.NSE[i]})
	}

	p := plot.New()
	p.Title.Text = "Per-reach accuracy"
	p.X.Label.Text = "RMSE"
	p.Y.Label.Text = "NSE"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build reach scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	sc.GlyphStyle.Radius = vg.Points(2.2)
	p.Add(sc)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// PlotObsPred writes an observed-vs-predicted scatter with a 1:1 line for
// one variable. Pairs without an observation are skipped.
func PlotObsPred(path string, pairs []Pair, v Variable) error {
	pts := make(plotter.XYs, 0, len(pairs))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pr := range pairs {
		if !pr.HasObs {
			continue
		}
		pts = append(pts, plotter.XY{X: pr.Obs, Y: pr.Pred})
		lo = math.Min(lo, math.Min(pr.Obs, pr.Pred))
		hi = math.Max(hi, math.Max(pr.Obs, pr.Pred))
	}
	if len(pts) == 0 {
		lo, hi = 0, 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Observed vs predicted (%s)", string(v))
	p.X.Label.Text = "observed"
	p.Y.Label.Text = "predicted"
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build obs/pred scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 180}
	sc.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(sc)

	oneToOne, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("failed to build 1:1 line: %w", err)
	}
	oneToOne.Color = color.RGBA{R: 200, G: 30, B: 30, A: 180}
	oneToOne.Width = vg.Points(0.8)
	p.Add(oneToOne)
	p.Legend.Add("1:1", oneToOne)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
