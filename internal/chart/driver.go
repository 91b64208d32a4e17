// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"image/color"
	"io"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// Format is an export format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// ErrDriverClosed is returned by exports on a closed driver.
var ErrDriverClosed = errors.New("chart driver is closed")

// Driver renders figures. A run opens one driver, shares it across every
// export and closes it at the end.
type Driver interface {
	Export(fig Figure, format Format, w io.Writer) error
	Close() error
}

// PlotDriver renders figures with gonum/plot. Exports are serialised.
type PlotDriver struct {
	mu     sync.Mutex
	closed bool
	page   *template.Template
}

// OpenDriver returns a ready PlotDriver.
func OpenDriver() *PlotDriver {
	return &PlotDriver{page: template.Must(template.New("chart").Parse(chartPage))}
}

// Close releases the driver. Further exports fail with ErrDriverClosed.
func (d *PlotDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Export writes fig to w in the given format.
func (d *PlotDriver) Export(fig Figure, format Format, w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDriverClosed
	}
	if len(fig.Panels) == 0 {
		return fmt.Errorf("figure %s has no panels", fig.Kind)
	}

	width, height := vg.Points(fig.Width), vg.Points(fig.Height())
	switch format {
	case FormatSVG:
		c := vgsvg.New(width, height)
		if err := drawFigure(fig, c); err != nil {
			return err
		}
		_, err := c.WriteTo(w)
		return err
	case FormatPNG:
		c := vgimg.New(width, height)
		if err := drawFigure(fig, c); err != nil {
			return err
		}
		_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
		return err
	case FormatHTML:
		c := vgsvg.New(width, height)
		if err := drawFigure(fig, c); err != nil {
			return err
		}
		var svg bytes.Buffer
		if _, err := c.WriteTo(&svg); err != nil {
			return err
		}
		return d.page.Execute(w, chartPageData{
			Title:  fig.Title,
			SVG:    template.HTML(svg.String()),
			Panels: legendRows(fig),
		})
	default:
		return fmt.Errorf("unsupported chart format %q", format)
	}
}

// drawFigure lays the panels out in one column on c.
func drawFigure(fig Figure, c vg.CanvasSizer) error {
	plots := make([][]*plot.Plot, len(fig.Panels))
	for i, p := range fig.Panels {
		pl, err := buildPlot(p)
		if err != nil {
			return fmt.Errorf("building %s panel %d: %w", fig.Kind, i, err)
		}
		plots[i] = []*plot.Plot{pl}
	}

	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	return nil
}

func buildPlot(p Panel) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = p.XLabel
	pl.Legend.Top = true

	width := vg.Points(p.Height / float64(len(p.Bars)+2) * 0.8)
	labels := make([]string, len(p.Bars))
	for i, b := range p.Bars {
		bc, err := plotter.NewBarChart(plotter.Values{b.Value}, width)
		if err != nil {
			return nil, err
		}
		bc.Horizontal = true
		bc.XMin = float64(i)
		bc.Color = b.Color
		bc.LineStyle.Color = color.Black
		bc.LineStyle.Width = vg.Points(0.5)
		pl.Add(bc)
		if b.Legend != "" {
			pl.Legend.Add(b.Legend, bc)
		}
		labels[i] = b.Label
	}

	if len(labels) > 0 {
		pl.NominalY(labels...)
	} else {
		pl.Y.Min, pl.Y.Max = 0, 1
		pl.HideY()
	}
	pl.X.Min, pl.X.Max = p.XMin, p.XMax
	return pl, nil
}

type legendRow struct {
	Label  string
	Value  string
	Legend string
	Color  string
}

type chartPageData struct {
	Title  string
	SVG    template.HTML
	Panels [][]legendRow
}

func legendRows(fig Figure) [][]legendRow {
	out := make([][]legendRow, len(fig.Panels))
	for i, p := range fig.Panels {
		for _, b := range p.Bars {
			out[i] = append(out[i], legendRow{
				Label:  b.Label,
				Value:  formatNumber(b.Value),
				Legend: b.Legend,
				Color:  hexColor(b.Color),
			})
		}
	}
	return out
}

// chartPage is the standalone interactive page: the SVG plus a data table
// whose rows highlight on hover.
const chartPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 16px; }
h3 { text-align: center; }
table { border-collapse: collapse; margin-top: 12px; }
td, th { padding: 4px 10px; border-bottom: 1px solid #ddd; }
tr:hover { background: #f3f3f3; }
.swatch { display: inline-block; width: 12px; height: 12px; }
</style>
</head>
<body>
<h3>{{.Title}}</h3>
<div class="chart">{{.SVG}}</div>
{{range $i, $rows := .Panels}}{{if $rows}}<table class="panel-{{$i}}">
<tr><th></th><th>Label</th><th>Value</th><th>Legend</th></tr>
{{range $rows}}<tr><td><span class="swatch" style="background: {{.Color}}"></span></td><td>{{.Label}}</td><td>{{.Value}}</td><td>{{.Legend}}</td></tr>
{{end}}</table>
{{end}}{{end}}</body>
</html>
`
