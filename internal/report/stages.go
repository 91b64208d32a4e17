// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/ihm-report/internal/chart"
	"github.com/pdiddy/ihm-report/internal/metrics"
	"github.com/pdiddy/ihm-report/internal/packaging"
	"github.com/pdiddy/ihm-report/internal/render"
	"github.com/pdiddy/ihm-report/pkg/types"
)

// Stage names, in run order.
const (
	StageComposition   = "composition"
	StageModelQuality  = "model-quality"
	StageSAS           = "sas"
	StageCrossLink     = "crosslink"
	StageQualityGlance = "quality-glance"
	StageSupplementary = "supplementary"
	StageHTML          = "html"
	StagePDF           = "pdf"
	StageJSON          = "json"
)

// Context keys. Templates reference these names directly.
const (
	KeyID                   = "ID"
	KeyTitle                = "Title"
	KeyAuthors              = "Authors"
	KeySoftware             = "Software"
	KeyDatasets             = "Datasets"
	KeyNumberOfModels       = "Number_of_models"
	KeyEntryComposition     = "Entry_composition"
	KeyDate                 = "Date"
	KeyRunID                = "Run_ID"
	KeyGeometryTable        = "Geometry_table"
	KeyExcludedVolumeTable  = "Excluded_volume_table"
	KeyModelQualityWorkbook = "Model_quality_workbook"
	KeySASDataTable         = "SAS_data_table"
	KeySASFitTable          = "SAS_fit_table"
	KeyCrossLinkTable       = "Crosslink_table"
	KeyQualityGlance        = "Quality_glance"
	KeyModelQualityVariant  = "Model_quality_variant"
	KeyModelQualitySkipped  = "Model_quality_skipped"
	KeyModelQualityPanels   = "Model_quality_panels"
	KeyPhysics              = "Physics"
	KeySupplementaryTable   = "Supplementary_table"
	KeySummaryPDF           = "Summary_PDF"
	KeyHTMLMode             = "html_mode"
)

// TimestampLayout formats the report date, e.g. "March 04, 2026 - 09:15 AM PST".
const TimestampLayout = "January 02, 2006 - 03:04 PM MST"

// Relative directories inside the HTML bundle.
const (
	imagesRel = "images"
	tablesRel = "tables"
	pdfRel    = "pdf"
)

func (g *Generator) composition(ctx context.Context, _ *Context) ([]Section, error) {
	comp, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindComposition, g.w, g.provider.Composition)
	if err != nil {
		return nil, err
	}
	loc, err := location(g.cfg.Output.Timezone)
	if err != nil {
		return nil, err
	}

	models := types.Table{Header: []string{"Model", "Chains", "Residues"}}
	for _, m := range comp.Models {
		models.Append(m.Name, strings.Join(m.Chains, ", "), strconv.Itoa(m.Residues))
	}

	return []Section{
		{KeyID, comp.ID},
		{KeyTitle, comp.Title},
		{KeyAuthors, nonNil(comp.Authors)},
		{KeySoftware, nonNil(comp.Software)},
		{KeyDatasets, nonNil(comp.Datasets)},
		{KeyNumberOfModels, len(comp.Models)},
		{KeyEntryComposition, models},
		{KeyDate, g.now().In(loc).Format(TimestampLayout)},
		{KeyRunID, uuid.NewString()},
	}, nil
}

func (g *Generator) modelQuality(ctx context.Context, rc *Context) ([]Section, error) {
	geo, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindGeometry, g.w, g.provider.Geometry)
	if err != nil {
		return nil, err
	}
	exv, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindExcludedVolume, g.w, g.provider.ExcludedVolume)
	if err != nil {
		return nil, err
	}
	g.inputs.Geometry, g.inputs.ExcludedVolume = geo, exv

	geoTable, exvTable := geometryTable(geo), excludedVolumeTable(exv)
	workbook := ""
	if !geoTable.Empty() || !exvTable.Empty() {
		name := rc.String(KeyID) + "_model_quality.xlsx"
		err := render.WriteWorkbook(filepath.Join(g.layout.Tables, name), []render.Sheet{
			{Name: "Geometry", Table: geoTable},
			{Name: "Excluded volume", Table: exvTable},
		})
		if err != nil {
			return nil, err
		}
		workbook = path.Join(tablesRel, name)
		fmt.Fprintf(g.w, "  wrote %s\n", name)
	}

	return []Section{
		{KeyGeometryTable, geoTable},
		{KeyExcludedVolumeTable, exvTable},
		{KeyModelQualityWorkbook, workbook},
	}, nil
}

func (g *Generator) sas(ctx context.Context, _ *Context) ([]Section, error) {
	data, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindSASData, g.w, g.provider.SASData)
	if err != nil {
		return nil, err
	}
	fit, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindSASFit, g.w, g.provider.SASFit)
	if err != nil {
		return nil, err
	}
	g.inputs.SASData, g.inputs.SASFit = data, fit

	return []Section{
		{KeySASDataTable, sasDataTable(data)},
		{KeySASFitTable, sasFitTable(fit)},
	}, nil
}

func (g *Generator) crossLink(ctx context.Context, _ *Context) ([]Section, error) {
	xl, err := metrics.Cached(ctx, g.cache, g.useCache(), g.provider, metrics.KindCrossLink, g.w, g.provider.CrossLink)
	if err != nil {
		return nil, err
	}
	g.inputs.CrossLink = xl
	return []Section{{KeyCrossLinkTable, crossLinkTable(xl)}}, nil
}

func (g *Generator) qualityGlance(ctx context.Context, rc *Context) ([]Section, error) {
	r := chart.NewRenderer(g.driver, g.layout.Images, rc.String(KeyID), g.w)
	res, err := r.Render(ctx, g.inputs)
	if err != nil {
		return nil, err
	}
	g.charts = res

	glance := make(map[string]string, len(res.Figures))
	for kind, base := range res.Figures {
		glance[string(kind)] = path.Join(imagesRel, base)
	}
	panels := make([]string, len(res.Panels))
	for i, name := range res.Panels {
		panels[i] = path.Join(imagesRel, name)
	}

	return []Section{
		{KeyQualityGlance, glance},
		{KeyModelQualityVariant, res.Variant.String()},
		{KeyModelQualitySkipped, res.ModelQualitySkipped},
		{KeyModelQualityPanels, panels},
	}, nil
}

func (g *Generator) supplementary(ctx context.Context, rc *Context) ([]Section, error) {
	name := g.layout.Prefix + "_summary.pdf"
	sections := []Section{
		{KeyPhysics, Physics(g.cfg.Supplementary.Physics)},
		{KeySupplementaryTable, SupplementaryTable(g.cfg.Supplementary)},
		{KeySummaryPDF, path.Join(pdfRel, name)},
	}

	out := filepath.Join(g.layout.PDF, name)
	doc := render.SummaryTable(overlay(rc, sections), g.layout.HTML)
	if err := g.convert(ctx, doc, out); err != nil {
		return nil, err
	}
	if err := packaging.CopyFile(out, g.layout.SummaryPDF()); err != nil {
		return nil, err
	}
	return sections, nil
}

func (g *Generator) html(_ context.Context, rc *Context) ([]Section, error) {
	mode := g.cfg.Output.HTMLMode
	if mode == "" {
		mode = types.HTMLLocal
	}
	sections := []Section{{KeyHTMLMode, string(mode)}}

	if _, err := g.templates.WritePages(g.layout.HTML, overlay(rc, sections), g.w); err != nil {
		return nil, err
	}
	if mode == types.HTMLLocal {
		if res := g.cfg.Output.HTMLResources; res != "" {
			if err := packaging.CopyTree(res, g.layout.Static); err != nil {
				return nil, err
			}
			fmt.Fprintf(g.w, "  copied static resources from %s\n", res)
		} else {
			fmt.Fprintf(g.w, "  no static resources configured\n")
		}
	}

	archive, err := packaging.Archive(g.layout.HTML)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(g.w, "  wrote %s\n", filepath.Base(archive))
	return sections, nil
}

func (g *Generator) pdf(ctx context.Context, rc *Context) ([]Section, error) {
	out := filepath.Join(g.layout.PDF, g.layout.Prefix+".pdf")
	if err := g.convert(ctx, render.FullReport(rc, g.layout.HTML), out); err != nil {
		return nil, err
	}
	if err := packaging.CopyFile(out, g.layout.ReportPDF()); err != nil {
		return nil, err
	}
	return nil, nil
}

func (g *Generator) json(_ context.Context, rc *Context) ([]Section, error) {
	if err := render.WriteJSON(g.layout.JSON(), rc); err != nil {
		return nil, err
	}
	fmt.Fprintf(g.w, "  wrote %s\n", filepath.Base(g.layout.JSON()))
	return nil, nil
}

// convert runs the PDF converter, registering any intermediate files it
// declares for cleanup in case it leaves them behind.
func (g *Generator) convert(ctx context.Context, doc render.Document, out string) error {
	if im, ok := g.converter.(render.Intermediates); ok {
		g.temps = append(g.temps, im.Intermediates(doc, out)...)
	}
	if err := g.converter.Convert(ctx, doc, out); err != nil {
		return err
	}
	fmt.Fprintf(g.w, "  wrote %s (%s)\n", filepath.Base(out), g.converter.Name())
	return nil
}

// overlaySource shows a context with a stage's pending sections applied.
type overlaySource struct {
	base  *Context
	extra map[string]any
	keys  []string
}

func overlay(base *Context, sections []Section) *overlaySource {
	o := &overlaySource{base: base, extra: make(map[string]any, len(sections)), keys: base.Keys()}
	for _, s := range sections {
		if _, ok := base.Value(s.Key); !ok {
			if _, dup := o.extra[s.Key]; !dup {
				o.keys = append(o.keys, s.Key)
			}
		}
		o.extra[s.Key] = s.Value
	}
	return o
}

func (o *overlaySource) Keys() []string { return o.keys }

func (o *overlaySource) Value(key string) (any, bool) {
	if v, ok := o.extra[key]; ok {
		return v, true
	}
	return o.base.Value(key)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
