// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chart builds the quality-at-a-glance figures of a validation
// report and exports them as SVG, PNG and standalone HTML.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/ihm-report/pkg/types"
)

// ErrNotNumeric reports excluded-volume violation counts that cannot be
// plotted. The renderer skips the model-quality section when it sees it.
var ErrNotNumeric = errors.New("violation counts are not numeric")

// Kind identifies a figure and doubles as its file name suffix.
type Kind string

const (
	KindModelQuality Kind = "MQ"
	KindDataQuality  Kind = "DQ"
	KindFitQuality   Kind = "FQ"
	KindCrossLink    Kind = "XL"
)

// Variant is the model-quality figure chosen for a report.
type Variant int

const (
	VariantPlaceholder Variant = iota
	VariantGeometry
	VariantExcludedVolume
)

func (v Variant) String() string {
	switch v {
	case VariantGeometry:
		return "geometry"
	case VariantExcludedVolume:
		return "excluded-volume"
	default:
		return "placeholder"
	}
}

// SelectVariant picks the model-quality variant: geometry when present,
// else excluded volume when present, else the placeholder.
func SelectVariant(g *types.GeometryMetrics, e *types.ExcludedVolumeMetrics) Variant {
	switch {
	case !g.Empty():
		return VariantGeometry
	case !e.Empty():
		return VariantExcludedVolume
	default:
		return VariantPlaceholder
	}
}

// Bar is one horizontal bar.
type Bar struct {
	Label  string
	Value  float64
	Color  color.Color
	Legend string
}

// Panel is a single bar chart. Bars are drawn bottom to top in order.
type Panel struct {
	Title  string
	XLabel string
	XMin   float64
	XMax   float64
	Bars   []Bar
	// Height is the panel height in points.
	Height float64
}

// Sum returns the total of the panel's bar values.
func (p Panel) Sum() float64 {
	s := 0.0
	for _, b := range p.Bars {
		s += b.Value
	}
	return s
}

// Figure is a stack of panels exported as one image.
type Figure struct {
	Kind   Kind
	Title  string
	Panels []Panel
	// Width is the figure width in points.
	Width float64
}

// Height returns the figure height in points.
func (f Figure) Height() float64 {
	h := 0.0
	for _, p := range f.Panels {
		h += p.Height
	}
	return h
}

// BarCount returns the number of bars across all panels.
func (f Figure) BarCount() int {
	n := 0
	for _, p := range f.Panels {
		n += len(p.Bars)
	}
	return n
}

// Panel returns a one-panel figure holding panel i.
func (f Figure) Panel(i int) Figure {
	return Figure{Kind: f.Kind, Title: f.Title, Panels: []Panel{f.Panels[i]}, Width: f.Width}
}

const (
	wideFigure   = 800
	narrowFigure = 700
)

// geometryScores are the three outlier categories of a geometry panel.
var geometryScores = []string{"Clashscore", "Ramachandran outliers", "Sidechain outliers"}

// ModelQualityFigure selects the variant for g and e and builds its figure.
// The excluded-volume variant fails with ErrNotNumeric when a violation
// count cannot be read as a number.
func ModelQualityFigure(g *types.GeometryMetrics, e *types.ExcludedVolumeMetrics) (Variant, Figure, error) {
	v := SelectVariant(g, e)
	switch v {
	case VariantGeometry:
		return v, GeometryFigure(g), nil
	case VariantExcludedVolume:
		fig, err := ExcludedVolumeFigure(e)
		return v, fig, err
	default:
		return v, PlaceholderFigure(), nil
	}
}

// GeometryFigure builds one panel per model with clashscore, Ramachandran
// and side-chain outlier bars on a shared axis starting at zero.
func GeometryFigure(g *types.GeometryMetrics) Figure {
	counts := make([]float64, 0, 3*len(g.Names))
	for i := range g.Names {
		counts = append(counts, g.Clashscore[i], g.RamachandranOutliers[i], g.SidechainOutliers[i])
	}
	_, upper := AxisRange(counts)
	colors := Viridis(len(geometryScores))

	fig := Figure{
		Kind:  KindModelQuality,
		Title: "Model Quality: Molprobity Analysis",
		Width: narrowFigure,
	}
	for i, name := range g.Names {
		values := []float64{g.Clashscore[i], g.RamachandranOutliers[i], g.SidechainOutliers[i]}
		bars := make([]Bar, len(geometryScores))
		for j, score := range geometryScores {
			bars[j] = Bar{Label: score, Value: values[j], Color: colors[j]}
		}
		fig.Panels = append(fig.Panels, Panel{
			Title:  name,
			XLabel: "Outliers",
			XMin:   0,
			XMax:   upper,
			Bars:   bars,
			Height: 120,
		})
	}
	return fig
}

// ExcludedVolumeFigure builds one panel per model with its violation count.
func ExcludedVolumeFigure(e *types.ExcludedVolumeMetrics) (Figure, error) {
	counts, err := numericValues(e.Violations)
	if err != nil {
		return Figure{}, err
	}
	lower, upper := AxisRange(counts)
	colors := Viridis(max(3, len(e.Models)))

	fig := Figure{
		Kind:  KindModelQuality,
		Title: "Model Quality: Excluded Volume Analysis",
		Width: narrowFigure,
	}
	for i := range e.Models {
		label := fmt.Sprintf("Model %d", i+1)
		fig.Panels = append(fig.Panels, Panel{
			XLabel: "Number of violations",
			XMin:   lower,
			XMax:   upper,
			Bars: []Bar{{
				Label:  label,
				Value:  counts[i],
				Color:  colors[i],
				Legend: fmt.Sprintf("%s: %d(%s %%)", label, int(counts[i]), formatNumber(e.Satisfaction[i])),
			}},
			Height: 100,
		})
	}
	return fig, nil
}

// PlaceholderFigure is the empty model-quality chart used when no model
// metrics exist, so templates can always reference an image.
func PlaceholderFigure() Figure {
	return Figure{
		Kind:  KindModelQuality,
		Width: wideFigure,
		Panels: []Panel{{
			XMin:   0,
			XMax:   1,
			Height: 300,
		}},
	}
}

// SASDataFigure builds the radius-of-gyration chart: a P(r) and a Guinier
// bar per dataset.
func SASDataFigure(data []types.SASDataset) Figure {
	var bars []Bar
	var values []float64
	for _, d := range data {
		for _, b := range []Bar{
			{Label: fmt.Sprintf("P(r) (%s)", d.ID), Value: d.RgPr},
			{Label: fmt.Sprintf("Guinier (%s)", d.ID), Value: d.RgGuinier},
		} {
			b.Legend = formatNumber(b.Value) + " nm"
			bars = append(bars, b)
			values = append(values, b.Value)
		}
	}
	colorBars(bars)
	return Figure{
		Kind:  KindDataQuality,
		Title: "Data Quality for SAS: Rg Analysis",
		Width: wideFigure,
		Panels: []Panel{{
			Title:  "Data Quality for SAS: Rg Analysis",
			XLabel: "Distance (nm)",
			XMax:   maxValue(values) + 1,
			Bars:   bars,
			Height: 450,
		}},
	}
}

// SASFitFigure builds the χ² chart: one bar per model fit per dataset.
func SASFitFigure(fits []types.SASFitDataset) Figure {
	var bars []Bar
	var values []float64
	for _, d := range fits {
		for k, chi := range d.ChiSquared {
			bars = append(bars, Bar{
				Label:  fmt.Sprintf("χ² Fit %d (%s)", k+1, d.ID),
				Value:  chi,
				Legend: formatNumber(chi),
			})
			values = append(values, chi)
		}
	}
	colorBars(bars)
	return Figure{
		Kind:  KindFitQuality,
		Title: "Fit to SAS Data: χ² Fit",
		Width: wideFigure,
		Panels: []Panel{{
			Title:  "Fit to SAS Data: χ² Fit",
			XLabel: "Fit value",
			XMax:   maxValue(values) + 1,
			Bars:   bars,
			Height: 450,
		}},
	}
}

// CrossLinkFigure builds the cross-link satisfaction chart, one bar per model.
func CrossLinkFigure(c *types.CrossLinkFit) Figure {
	bars := make([]Bar, len(c.Models))
	values := make([]float64, len(c.Models))
	for i, m := range c.Models {
		v := math.Round(c.Satisfaction[i]*100) / 100
		bars[i] = Bar{
			Label:  m,
			Value:  v,
			Legend: fmt.Sprintf("%s: %s%%", m, formatNumber(v)),
		}
		values[i] = v
	}
	colorBars(bars)
	return Figure{
		Kind:  KindCrossLink,
		Title: "Fit to XL-MS Input",
		Width: wideFigure,
		Panels: []Panel{{
			Title:  "Fit to XL-MS Input",
			XLabel: "Satisfied cross-links (%)",
			XMax:   maxValue(values) + 1,
			Bars:   bars,
			Height: 450,
		}},
	}
}

// colorBars assigns a sequential ramp sized to the number of bars.
func colorBars(bars []Bar) {
	colors := Viridis(len(bars))
	for i := range bars {
		bars[i].Color = colors[i]
	}
}

// numericValues converts raw violation counts to floats, accepting numbers
// and numeric strings.
func numericValues(raw []any) ([]float64, error) {
	out := make([]float64, len(raw))
	for i, v := range raw {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case float32:
			f = float64(n)
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case uint64:
			f = float64(n)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrNotNumeric, n)
			}
			f = parsed
		default:
			return nil, fmt.Errorf("%w: %v", ErrNotNumeric, v)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v", ErrNotNumeric, v)
		}
		out[i] = f
	}
	return out, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
