// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report drives one validation run: it checks the output location,
// runs the report stages in order over a shared context, and always cleans
// up afterwards.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/pdiddy/ihm-report/internal/chart"
	"github.com/pdiddy/ihm-report/internal/metrics"
	"github.com/pdiddy/ihm-report/internal/packaging"
	"github.com/pdiddy/ihm-report/internal/render"
	"github.com/pdiddy/ihm-report/pkg/types"
)

// Layout holds the paths of one run's output tree.
type Layout struct {
	Prefix string
	Root   string // <output-root>/<prefix>
	HTML   string // <root>/<prefix>_html
	Images string
	Tables string
	PDF    string
	Static string
}

// NewLayout derives the output tree for prefix under outputRoot.
func NewLayout(outputRoot, prefix string) Layout {
	root := filepath.Join(outputRoot, prefix)
	html := filepath.Join(root, prefix+"_html")
	return Layout{
		Prefix: prefix,
		Root:   root,
		HTML:   html,
		Images: filepath.Join(html, "images"),
		Tables: filepath.Join(html, "tables"),
		PDF:    filepath.Join(html, "pdf"),
		Static: filepath.Join(html, "static"),
	}
}

// Archive is the compressed HTML bundle path.
func (l Layout) Archive() string { return l.HTML + packaging.ArchiveSuffix }

// ReportPDF is the full report path at the output root.
func (l Layout) ReportPDF() string { return filepath.Join(l.Root, l.Prefix+".pdf") }

// SummaryPDF is the supplementary table path at the output root.
func (l Layout) SummaryPDF() string { return filepath.Join(l.Root, l.Prefix+"_summary.pdf") }

// JSON is the JSON deliverable path.
func (l Layout) JSON() string { return filepath.Join(l.Root, l.Prefix+".json") }

// Result summarises a run.
type Result struct {
	Layout Layout
	// Skipped is set when the output directory existed and force was off.
	Skipped bool
	Context *Context
	Charts  chart.Result
}

// Option configures a Generator.
type Option func(*Generator)

// WithCache routes metric loads through c.
func WithCache(c metrics.Cache) Option {
	return func(g *Generator) { g.cache = c }
}

// WithConverter replaces the PDF converter chosen from the configuration.
func WithConverter(c render.Converter) Option {
	return func(g *Generator) { g.converter = c }
}

// WithDriver replaces the chart driver factory.
func WithDriver(open func() chart.Driver) Option {
	return func(g *Generator) { g.openDriver = open }
}

// WithClock fixes the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithProgress shows stage progress on p.
func WithProgress(p Progress) Option {
	return func(g *Generator) { g.progress = p }
}

// Generator produces the report deliverables for one entry.
type Generator struct {
	cfg      types.ReportConfig
	provider metrics.Provider
	w        io.Writer

	cache      metrics.Cache
	converter  render.Converter
	templates  *render.Templates
	openDriver func() chart.Driver
	now        func() time.Time
	progress   Progress

	// Per-run state, set by Run.
	layout Layout
	driver chart.Driver
	temps  []string
	inputs chart.Inputs
	charts chart.Result
}

// New returns a Generator for cfg reading metrics from p. Progress lines go
// to w.
func New(cfg types.ReportConfig, p metrics.Provider, w io.Writer, opts ...Option) (*Generator, error) {
	if w == nil {
		w = io.Discard
	}
	g := &Generator{
		cfg:        cfg,
		provider:   p,
		w:          w,
		openDriver: func() chart.Driver { return chart.OpenDriver() },
		now:        time.Now,
	}
	for _, o := range opts {
		o(g)
	}

	tpl, err := render.LoadTemplates()
	if err != nil {
		return nil, err
	}
	g.templates = tpl

	if g.converter == nil {
		conv, err := render.NewConverter(cfg.Output.PDFBackend, tpl)
		if err != nil {
			return nil, fmt.Errorf("setting up PDF backend: %w", err)
		}
		g.converter = conv
	}
	if _, err := location(cfg.Output.Timezone); err != nil {
		return nil, err
	}
	return g, nil
}

// Prefix returns the output prefix: the configured one or the input stem.
func Prefix(cfg types.ReportConfig) string {
	if cfg.Output.Prefix != "" {
		return cfg.Output.Prefix
	}
	return metrics.EntryID(cfg.InputFile)
}

// Preflight derives the output layout for cfg and reports whether its
// directory already exists. It touches nothing, so callers can run it
// before opening metrics or the cache.
func Preflight(cfg types.ReportConfig) (Layout, bool, error) {
	l := NewLayout(cfg.Output.Root, Prefix(cfg))
	_, err := os.Stat(l.Root)
	switch {
	case err == nil:
		return l, true, nil
	case errors.Is(err, os.ErrNotExist):
		return l, false, nil
	default:
		return l, false, fmt.Errorf("checking output directory: %w", err)
	}
}

// ExistsMessage is logged when a run stops at an existing output directory.
func ExistsMessage(l Layout) string {
	return fmt.Sprintf("Output directory %s exists. Use --force to overwrite", l.Root)
}

// Run produces the report. An existing output directory without force is
// not an error: nothing is touched and Result.Skipped is set.
func (g *Generator) Run(ctx context.Context) (res Result, err error) {
	g.temps, g.inputs, g.charts = nil, chart.Inputs{}, chart.Result{}
	layout, exists, err := Preflight(g.cfg)
	g.layout, res.Layout = layout, layout
	if err != nil {
		return res, err
	}
	if exists {
		if !g.cfg.Output.Force {
			fmt.Fprintf(g.w, "%s\n", ExistsMessage(layout))
			res.Skipped = true
			return res, nil
		}
		fmt.Fprintf(g.w, "Overwriting output directory %s\n", layout.Root)
		if err := os.RemoveAll(layout.Root); err != nil {
			return res, fmt.Errorf("removing output directory: %w", err)
		}
	}

	if root := g.cfg.Cache.Root; root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return res, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	for _, dir := range []string{g.layout.Root, g.layout.HTML, g.layout.Images, g.layout.Tables, g.layout.PDF} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("creating output directories: %w", err)
		}
	}

	g.driver = g.openDriver()
	defer g.driver.Close()

	defer func() {
		fmt.Fprintf(g.w, "cleanup\n")
		cerr := packaging.Cleanup(g.layout.HTML, g.temps, g.cfg.Output.KeepHTML, g.w)
		if err == nil {
			err = cerr
		}
	}()

	p, err := NewPipeline(g.stages())
	if err != nil {
		return res, err
	}
	progress := g.progress
	if progress == nil {
		progress = nopProgress{}
	}

	rc := NewContext()
	res.Context = rc
	if err := p.Run(ctx, rc, g.w, progress); err != nil {
		return res, err
	}
	res.Charts = g.charts
	return res, nil
}

// StageCount is the number of stages a run reports progress for.
func StageCount() int { return len((&Generator{}).stages()) }

// stages lists the report stages in run order.
func (g *Generator) stages() []Stage {
	return []Stage{
		{Name: StageComposition, Run: g.composition},
		{Name: StageModelQuality, After: []string{StageComposition}, Run: g.modelQuality},
		{Name: StageSAS, After: []string{StageComposition}, Run: g.sas},
		{Name: StageCrossLink, After: []string{StageComposition}, Run: g.crossLink},
		{Name: StageQualityGlance, After: []string{StageModelQuality, StageSAS, StageCrossLink}, Run: g.qualityGlance},
		{Name: StageSupplementary, After: []string{StageQualityGlance}, Run: g.supplementary},
		{Name: StageHTML, After: []string{StageSupplementary}, Run: g.html},
		{Name: StagePDF, After: []string{StageHTML}, Run: g.pdf},
		{Name: StageJSON, After: []string{StagePDF}, Run: g.json},
	}
}

func (g *Generator) useCache() bool { return !g.cfg.Cache.Disabled }

// location resolves the report time zone; empty means UTC.
func location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("report timezone: %w", err)
	}
	return loc, nil
}
