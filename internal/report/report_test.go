// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ihm-report/internal/cache"
	"github.com/pdiddy/ihm-report/internal/chart"
	"github.com/pdiddy/ihm-report/internal/packaging"
	"github.com/pdiddy/ihm-report/internal/render"
	"github.com/pdiddy/ihm-report/pkg/types"
)

const testEntry = "PDBDEV_00000042"

// fakeProvider serves a fixed metrics document and counts loads per kind.
type fakeProvider struct {
	doc   types.MetricsDocument
	loads map[string]int
	fail  map[string]error
}

func newFakeProvider(doc types.MetricsDocument) *fakeProvider {
	return &fakeProvider{doc: doc, loads: map[string]int{}, fail: map[string]error{}}
}

func (p *fakeProvider) load(kind string) error {
	p.loads[kind]++
	return p.fail[kind]
}

func (p *fakeProvider) EntryID() string { return testEntry }
func (p *fakeProvider) Digest() string  { return "digest-1" }

func (p *fakeProvider) Composition(context.Context) (types.EntryComposition, error) {
	return p.doc.Composition, p.load("composition")
}

func (p *fakeProvider) Geometry(context.Context) (*types.GeometryMetrics, error) {
	return p.doc.Geometry, p.load("geometry")
}

func (p *fakeProvider) ExcludedVolume(context.Context) (*types.ExcludedVolumeMetrics, error) {
	return p.doc.ExcludedVolume, p.load("excluded_volume")
}

func (p *fakeProvider) SASData(context.Context) ([]types.SASDataset, error) {
	return p.doc.SASData, p.load("sas_data")
}

func (p *fakeProvider) SASFit(context.Context) ([]types.SASFitDataset, error) {
	return p.doc.SASFit, p.load("sas_fit")
}

func (p *fakeProvider) CrossLink(context.Context) (*types.CrossLinkFit, error) {
	return p.doc.CrossLink, p.load("crosslink")
}

func fullDocument() types.MetricsDocument {
	return types.MetricsDocument{
		Composition: types.EntryComposition{
			ID:       testEntry,
			Title:    "Integrative structure of the nuclear pore subcomplex",
			Authors:  []string{"Doe J", "Roe R"},
			Software: []string{"IMP"},
			Datasets: []string{"SAS data", "Crosslinking-MS data"},
			Models: []types.ModelComposition{
				{Name: "Model 1", Chains: []string{"A", "B"}, Residues: 412},
				{Name: "Model 2", Chains: []string{"A"}, Residues: 200},
			},
		},
		Geometry: &types.GeometryMetrics{
			Names:                []string{"Model 1", "Model 2"},
			Clashscore:           []float64{4.2, 7.9},
			RamachandranOutliers: []float64{1, 3},
			SidechainOutliers:    []float64{2, 0},
		},
		SASData: []types.SASDataset{{ID: "SASDB1", RgPr: 3.1, RgGuinier: 3.0}},
		SASFit:  []types.SASFitDataset{{ID: "SASDB1", ChiSquared: []float64{1.4, 2.2}}},
		CrossLink: &types.CrossLinkFit{
			Models:       []string{"Model 1", "Model 2"},
			Satisfaction: []float64{92.5, 88},
		},
	}
}

func testConfig(t *testing.T) types.ReportConfig {
	t.Helper()
	return types.ReportConfig{
		InputFile: filepath.Join(t.TempDir(), testEntry+".cif"),
		Output: types.OutputConfig{
			Root:     t.TempDir(),
			Timezone: "America/Los_Angeles",
		},
	}
}

var fixedClock = WithClock(func() time.Time {
	return time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
})

func TestPrefix(t *testing.T) {
	cfg := types.ReportConfig{InputFile: "/data/PDBDEV_00000001.cif"}
	assert.Equal(t, "PDBDEV_00000001", Prefix(cfg))
	cfg.Output.Prefix = "custom"
	assert.Equal(t, "custom", Prefix(cfg))
}

func TestNewLayout(t *testing.T) {
	l := NewLayout("/out", "E1")
	assert.Equal(t, "/out/E1", l.Root)
	assert.Equal(t, "/out/E1/E1_html", l.HTML)
	assert.Equal(t, "/out/E1/E1_html/images", l.Images)
	assert.Equal(t, "/out/E1/E1_html/static", l.Static)
	assert.Equal(t, "/out/E1/E1_html.tar.gz", l.Archive())
	assert.Equal(t, "/out/E1/E1.pdf", l.ReportPDF())
	assert.Equal(t, "/out/E1/E1_summary.pdf", l.SummaryPDF())
	assert.Equal(t, "/out/E1/E1.json", l.JSON())
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Timezone = "Mars/Olympus_Mons"
	_, err := New(cfg, newFakeProvider(fullDocument()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report timezone")
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.PDFBackend = "latex"
	_, err := New(cfg, newFakeProvider(fullDocument()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting up PDF backend")
}

func TestRunProducesDeliverables(t *testing.T) {
	cfg := testConfig(t)
	var log bytes.Buffer
	g, err := New(cfg, newFakeProvider(fullDocument()), &log, fixedClock)
	require.NoError(t, err)

	res, err := g.Run(context.Background())
	require.NoError(t, err, log.String())
	assert.False(t, res.Skipped)

	l := res.Layout
	for _, p := range []string{l.Archive(), l.ReportPDF(), l.SummaryPDF(), l.JSON()} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.NotZero(t, info.Size(), p)
	}
	_, err = os.Stat(l.HTML)
	assert.True(t, os.IsNotExist(err), "html directory removed after archiving")

	head := make([]byte, 5)
	f, err := os.Open(l.ReportPDF())
	require.NoError(t, err)
	_, err = f.Read(head)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))

	entries, err := packaging.ListArchive(l.Archive())
	require.NoError(t, err)
	prefix := testEntry + "_html/"
	assert.Contains(t, entries, prefix+"main.html")
	assert.Contains(t, entries, prefix+"validation_help.html")
	assert.Contains(t, entries, prefix+"images/"+testEntry+"quality_at_glance_MQ.svg")
	assert.Contains(t, entries, prefix+"images/"+testEntry+"_0_quality_at_glance_MQ.svg")
	assert.Contains(t, entries, prefix+"tables/"+testEntry+"_model_quality.xlsx")
	assert.Contains(t, entries, prefix+"pdf/"+testEntry+"_summary.pdf")

	assert.Equal(t, chart.VariantGeometry, res.Charts.Variant)
	assert.Len(t, res.Charts.Figures, 4)
	assert.Equal(t, "January 15, 2026 - 04:00 AM PST", res.Context.String(KeyDate))
	assert.NotEmpty(t, res.Context.String(KeyRunID))
	assert.Contains(t, log.String(), "cleanup")
}

func TestRunJSONFollowsContextOrder(t *testing.T) {
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(res.Layout.JSON())
	require.NoError(t, err)
	var cats []struct {
		Category     string          `json:"Category"`
		ItemizedList json.RawMessage `json:"Itemized_List"`
	}
	require.NoError(t, json.Unmarshal(data, &cats))

	got := make([]string, len(cats))
	for i, c := range cats {
		got[i] = c.Category
	}
	assert.Equal(t, res.Context.Keys(), got)
	assert.Equal(t, []string{KeyID, KeyTitle, KeyAuthors}, got[:3])
	assert.Contains(t, got, KeyHTMLMode)
	assert.Contains(t, got, KeySupplementaryTable)
	assert.JSONEq(t, `"`+testEntry+`"`, string(cats[0].ItemizedList))
}

func TestRunKeepHTMLWithStaticResources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.KeepHTML = true
	resources := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(resources, "report.css"), []byte("body{}"), 0o644))
	cfg.Output.HTMLResources = resources

	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	l := res.Layout
	assert.FileExists(t, filepath.Join(l.HTML, "main.html"))
	assert.FileExists(t, filepath.Join(l.Static, "report.css"))
	assert.FileExists(t, filepath.Join(l.PDF, testEntry+".pdf"))

	page, err := os.ReadFile(filepath.Join(l.HTML, "main.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "static/report.css")

	matches, err := filepath.Glob(filepath.Join(l.HTML, "*_temp.html"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no converter intermediates left behind")
}

func TestRunExistingOutputWithoutForce(t *testing.T) {
	cfg := testConfig(t)
	l := NewLayout(cfg.Output.Root, testEntry)
	require.NoError(t, os.MkdirAll(l.Root, 0o755))
	sentinel := filepath.Join(l.Root, "keep.txt")
	require.NoError(t, os.WriteFile(sentinel, []byte("untouched"), 0o644))

	p := newFakeProvider(fullDocument())
	var log bytes.Buffer
	g, err := New(cfg, p, &log)
	require.NoError(t, err)

	for range 2 {
		res, err := g.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, res.Skipped)
	}

	data, err := os.ReadFile(sentinel)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(data))
	entries, err := os.ReadDir(l.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, p.loads, "no stage ran")
	assert.Contains(t, log.String(), "exists. Use --force to overwrite")
}

func TestRunForceReplacesOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Force = true
	l := NewLayout(cfg.Output.Root, testEntry)
	require.NoError(t, os.MkdirAll(l.Root, 0o755))
	stale := filepath.Join(l.Root, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, l.ReportPDF())
}

func TestRunStageFailureStillCleansUp(t *testing.T) {
	cfg := testConfig(t)
	p := newFakeProvider(fullDocument())
	p.fail["sas_fit"] = errors.New("fit file truncated")

	g, err := New(cfg, p, nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage sas:")
	assert.Contains(t, err.Error(), "fit file truncated")

	_, statErr := os.Stat(res.Layout.HTML)
	assert.True(t, os.IsNotExist(statErr), "html directory removed on failure")
	assert.NoFileExists(t, res.Layout.ReportPDF())
	assert.NoFileExists(t, res.Layout.JSON())
	assert.Zero(t, p.loads["crosslink"], "later stages did not run")
}

func TestRunConverterFailure(t *testing.T) {
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock,
		WithConverter(failingConverter{}))
	require.NoError(t, err)

	_, err = g.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage supplementary:")
}

func TestRunNonNumericViolationsSkipsModelQuality(t *testing.T) {
	doc := fullDocument()
	doc.Geometry = nil
	doc.ExcludedVolume = &types.ExcludedVolumeMetrics{
		Models:       []string{"Model 1"},
		Violations:   []any{"N/A"},
		Satisfaction: []float64{99},
	}

	cfg := testConfig(t)
	cfg.Output.KeepHTML = true
	g, err := New(cfg, newFakeProvider(doc), nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, chart.VariantExcludedVolume, res.Charts.Variant)
	assert.True(t, res.Charts.ModelQualitySkipped)
	assert.NotContains(t, res.Charts.Figures, chart.KindModelQuality)
	assert.Contains(t, res.Charts.Figures, chart.KindDataQuality)

	skipped, _ := res.Context.Value(KeyModelQualitySkipped)
	assert.Equal(t, true, skipped)
	page, err := os.ReadFile(filepath.Join(res.Layout.HTML, "model_quality.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "not numeric")
	assert.FileExists(t, res.Layout.ReportPDF())
}

func TestRunEmptyMetricsUsesPlaceholder(t *testing.T) {
	doc := types.MetricsDocument{Composition: types.EntryComposition{ID: testEntry, Title: "Bare entry"}}
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(doc), nil, fixedClock)
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, chart.VariantPlaceholder, res.Charts.Variant)
	assert.Len(t, res.Charts.Figures, 1)
	workbook, _ := res.Context.Value(KeyModelQualityWorkbook)
	assert.Equal(t, "", workbook)
	assert.FileExists(t, res.Layout.ReportPDF())
}

func TestRunUsesCache(t *testing.T) {
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := testConfig(t)
	cfg.Output.Force = true

	first := newFakeProvider(fullDocument())
	g, err := New(cfg, first, nil, fixedClock, WithCache(store))
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.loads["geometry"])

	second := newFakeProvider(fullDocument())
	var log bytes.Buffer
	g, err = New(cfg, second, &log, fixedClock, WithCache(store))
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.loads, "every record served from the cache")
	assert.Contains(t, log.String(), "geometry: cached")
	assert.Equal(t, "Integrative structure of the nuclear pore subcomplex", res.Context.String(KeyTitle))

	cfg.Cache.Disabled = true
	third := newFakeProvider(fullDocument())
	g, err = New(cfg, third, nil, fixedClock, WithCache(store))
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, third.loads["geometry"], "cache bypassed when disabled")
}

func TestRunClosesDriver(t *testing.T) {
	d := &closeTracker{Driver: chart.OpenDriver()}
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock,
		WithDriver(func() chart.Driver { return d }))
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, d.closed)
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(res.Layout.HTML)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunProgress(t *testing.T) {
	bar := &countingProgress{}
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock, WithProgress(bar))
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(g.stages()), bar.added)
}

type failingConverter struct{}

func (failingConverter) Name() string { return "failing" }

func (failingConverter) Convert(context.Context, render.Document, string) error {
	return errors.New("converter exploded")
}

type closeTracker struct {
	chart.Driver
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return c.Driver.Close()
}

func TestPreflight(t *testing.T) {
	cfg := testConfig(t)
	l, exists, err := Preflight(cfg)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, filepath.Join(cfg.Output.Root, testEntry), l.Root)
	assert.NoDirExists(t, l.Root, "preflight creates nothing")

	require.NoError(t, os.MkdirAll(l.Root, 0o755))
	_, exists, err = Preflight(cfg)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, ExistsMessage(l), "Use --force to overwrite")
}

// leakyConverter writes a PDF and leaves its declared intermediate behind.
type leakyConverter struct{}

func (leakyConverter) Name() string { return "leaky" }

func (leakyConverter) Intermediates(doc render.Document, out string) []string {
	return []string{filepath.Join(doc.BaseDir, render.TempHTMLName(out))}
}

func (c leakyConverter) Convert(_ context.Context, doc render.Document, out string) error {
	if err := os.WriteFile(c.Intermediates(doc, out)[0], []byte("<html></html>"), 0o644); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("%PDF-1.4 fake"), 0o644)
}

func TestRunRemovesDeclaredIntermediates(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.KeepHTML = true
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock, WithConverter(leakyConverter{}))
	require.NoError(t, err)
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, g.temps, 2, "summary and full report")
	for _, p := range g.temps {
		assert.NoFileExists(t, p)
	}
	assert.DirExists(t, res.Layout.HTML)
}

func TestRunNativeRegistersNoIntermediates(t *testing.T) {
	cfg := testConfig(t)
	g, err := New(cfg, newFakeProvider(fullDocument()), nil, fixedClock)
	require.NoError(t, err)
	_, err = g.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, g.temps)
}
