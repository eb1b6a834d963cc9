package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bpih-platform/internal/models"
)

const millions = 1e6

var (
	historicalColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	realisticColor  = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	bandColor       = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

// Chart plots the historical averages, the realistic projection and the
// conservative/optimistic band, in millions of rupiah
func (r *Report) Chart() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "BPIH: historical and projected national average"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Cost (million Rp)"

	historical := make(plotter.XYs, len(r.Records))
	for i, rec := range r.Records {
		historical[i].X = float64(rec.Year)
		historical[i].Y = rec.NationalAverage / millions
	}

	histLine, histPoints, err := plotter.NewLinePoints(historical)
	if err != nil {
		return nil, fmt.Errorf("historical series: %w", err)
	}
	histLine.Color = historicalColor
	histPoints.GlyphStyle.Color = historicalColor

	// Projections start at the latest published point so the lines connect
	projection := func(name models.ScenarioName) plotter.XYs {
		xys := make(plotter.XYs, 0, len(r.Forecast.Scenarios)+1)
		xys = append(xys, plotter.XY{X: float64(r.Forecast.BaseYear), Y: r.Forecast.BaseCost / millions})
		for _, set := range r.Forecast.Scenarios {
			xys = append(xys, plotter.XY{X: float64(set.TargetYear), Y: set.Projections[name] / millions})
		}
		return xys
	}

	lines := make(map[models.ScenarioName]*plotter.Line, 3)
	for _, name := range models.AllScenarios() {
		l, err := plotter.NewLine(projection(name))
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", name, err)
		}
		if name == models.ScenarioRealistic {
			l.Color = realisticColor
			l.Width = vg.Points(2)
		} else {
			l.Color = bandColor
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		lines[name] = l
	}
	realistic := lines[models.ScenarioRealistic]
	conservative := lines[models.ScenarioConservative]
	optimistic := lines[models.ScenarioOptimistic]

	p.Add(plotter.NewGrid(), histLine, histPoints, realistic, conservative, optimistic)
	p.Legend.Add("Historical", histLine, histPoints)
	p.Legend.Add("Realistic", realistic)
	p.Legend.Add("Conservative / optimistic", conservative)
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

// WriteChart renders the chart as PNG
func (r *Report) WriteChart(out io.Writer) error {
	p, err := r.Chart()
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(out)
	return err
}
