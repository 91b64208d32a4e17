// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ihm-report/internal/cache"
	"github.com/pdiddy/ihm-report/pkg/types"
)

const yamlDoc = `composition:
  title: Nuclear pore complex
  authors: [Kim S J, Fernandez-Martinez J]
  models:
    - name: Model 1
      chains: [A, B]
      residues: 1520
geometry:
  names: [Model 1, Model 2]
  clashscore: [1.2, 0.5]
  ramachandran_outliers: [3, 1]
  sidechain_outliers: [2, 0]
excluded_volume:
  models: [Model 1]
  violations: [N/A]
  satisfaction: [99.2]
sas_data:
  - id: SASDB28
    rg_pr: 3.2
    rg_guinier: 3.1
sas_fit:
  - id: SASDB28
    chi_squared: [1.4, 2.1]
`

const jsonDoc = `{
  "composition": {"id": "ENTRY_9", "title": "Complex"},
  "excluded_volume": {"models": ["m1", "m2"], "violations": [12, "3"], "satisfaction": [99.5, 98.0]},
  "crosslink": {"models": ["m1"], "satisfaction": [87.25]}
}`

const tomlDoc = `[composition]
title = "Exosome"

[[sas_data]]
id = "SASDA52"
rg_pr = 4.5
rg_guinier = 4.4

[crosslink]
models = ["m1", "m2"]
satisfaction = [91.0, 88.5]
`

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name  string
		ext   string
		data  string
		check func(t *testing.T, doc types.MetricsDocument)
	}{
		{
			name: "yaml",
			ext:  ".yaml",
			data: yamlDoc,
			check: func(t *testing.T, doc types.MetricsDocument) {
				require.NotNil(t, doc.Geometry)
				assert.Equal(t, []float64{1.2, 0.5}, doc.Geometry.Clashscore)
				assert.Equal(t, []any{"N/A"}, doc.ExcludedVolume.Violations)
				require.Len(t, doc.SASFit, 1)
				assert.Equal(t, []float64{1.4, 2.1}, doc.SASFit[0].ChiSquared)
				assert.Equal(t, 1520, doc.Composition.Models[0].Residues)
			},
		},
		{
			name: "json",
			ext:  ".JSON",
			data: jsonDoc,
			check: func(t *testing.T, doc types.MetricsDocument) {
				assert.Nil(t, doc.Geometry)
				assert.Equal(t, []any{float64(12), "3"}, doc.ExcludedVolume.Violations)
				assert.Equal(t, []float64{87.25}, doc.CrossLink.Satisfaction)
			},
		},
		{
			name: "toml",
			ext:  ".toml",
			data: tomlDoc,
			check: func(t *testing.T, doc types.MetricsDocument) {
				assert.Equal(t, "Exosome", doc.Composition.Title)
				require.Len(t, doc.SASData, 1)
				assert.Equal(t, 4.4, doc.SASData[0].RgGuinier)
				assert.Equal(t, []string{"m1", "m2"}, doc.CrossLink.Models)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument(tt.ext, []byte(tt.data))
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestDecodeDocumentErrors(t *testing.T) {
	_, err := DecodeDocument(".csv", []byte("a,b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	_, err = DecodeDocument(".yaml", []byte(":::bad\n"))
	assert.Error(t, err)
}

func TestEntryID(t *testing.T) {
	assert.Equal(t, "PDBDEV_00000001", EntryID("/data/PDBDEV_00000001.cif"))
	assert.Equal(t, "model", EntryID("model"))
	assert.Equal(t, filepath.Join("/data", "x.metrics.yaml"), DefaultDocumentPath("/data/x.cif"))
}

func writeInputs(t *testing.T, doc string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "PDBDEV_00000009.cif")
	require.NoError(t, os.WriteFile(input, []byte("data_PDBDEV_00000009\n"), 0o644))
	docPath := DefaultDocumentPath(input)
	require.NoError(t, os.WriteFile(docPath, []byte(doc), 0o644))
	return input, docPath
}

func TestOpenDocument(t *testing.T) {
	input, docPath := writeInputs(t, yamlDoc)
	p, err := OpenDocument(input, docPath)
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, "PDBDEV_00000009", p.EntryID())
	assert.Len(t, p.Digest(), 64)

	comp, err := p.Composition(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PDBDEV_00000009", comp.ID, "missing ID falls back to the entry ID")

	g, err := p.Geometry(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Model 1", "Model 2"}, g.Names)

	xl, err := p.CrossLink(ctx)
	require.NoError(t, err)
	assert.Nil(t, xl)

	// Editing the archive changes the digest.
	before := p.Digest()
	require.NoError(t, os.WriteFile(input, []byte("data_changed\n"), 0o644))
	p2, err := OpenDocument(input, docPath)
	require.NoError(t, err)
	assert.NotEqual(t, before, p2.Digest())
}

func TestOpenDocumentMissingInput(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "x.metrics.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(yamlDoc), 0o644))

	_, err := OpenDocument(filepath.Join(dir, "x.cif"), docPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening input file")
}

func TestProviderRejectsMismatchedLengths(t *testing.T) {
	input, docPath := writeInputs(t, `geometry:
  names: [a, b]
  clashscore: [1]
  ramachandran_outliers: [1, 2]
  sidechain_outliers: [1, 2]
excluded_volume:
  models: [a, b]
  violations: [1]
  satisfaction: [1, 2]
`)
	p, err := OpenDocument(input, docPath)
	require.NoError(t, err)

	_, err = p.Geometry(context.Background())
	assert.ErrorContains(t, err, "2 models")
	_, err = p.ExcludedVolume(context.Background())
	assert.ErrorContains(t, err, "excluded volume")
}

// memCache is an in-memory Cache used to observe hits and writes.
type memCache struct {
	items map[cache.Key]any
	puts  int
}

func (m *memCache) Get(_ context.Context, key cache.Key, out any) (bool, error) {
	v, ok := m.items[key]
	if !ok {
		return false, nil
	}
	*(out.(*[]types.SASDataset)) = v.([]types.SASDataset)
	return true, nil
}

func (m *memCache) Put(_ context.Context, key cache.Key, v any) error {
	if m.items == nil {
		m.items = map[cache.Key]any{}
	}
	m.items[key] = v
	m.puts++
	return nil
}

func TestCached(t *testing.T) {
	input, docPath := writeInputs(t, yamlDoc)
	p, err := OpenDocument(input, docPath)
	require.NoError(t, err)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) ([]types.SASDataset, error) {
		calls++
		return p.SASData(ctx)
	}

	c := &memCache{}
	got, err := Cached(ctx, c, true, p, KindSASData, io.Discard, load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.puts)

	// Second call hits the cache.
	_, err = Cached(ctx, c, true, p, KindSASData, io.Discard, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Disabled cache reloads and refreshes.
	_, err = Cached(ctx, c, false, p, KindSASData, io.Discard, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, c.puts)

	// No cache at all still loads.
	_, err = Cached[[]types.SASDataset](ctx, nil, true, p, KindSASData, io.Discard, load)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCachedLoadError(t *testing.T) {
	input, docPath := writeInputs(t, yamlDoc)
	p, err := OpenDocument(input, docPath)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Cached(context.Background(), &memCache{}, true, p, KindGeometry, io.Discard,
		func(context.Context) (*types.GeometryMetrics, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "geometry")
}

func TestCachedWithSQLiteStore(t *testing.T) {
	input, docPath := writeInputs(t, yamlDoc)
	p, err := OpenDocument(input, docPath)
	require.NoError(t, err)

	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	calls := 0
	load := func(ctx context.Context) (*types.ExcludedVolumeMetrics, error) {
		calls++
		return p.ExcludedVolume(ctx)
	}

	first, err := Cached(ctx, store, true, p, KindExcludedVolume, io.Discard, load)
	require.NoError(t, err)
	second, err := Cached(ctx, store, true, p, KindExcludedVolume, io.Discard, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Models, second.Models)
	assert.Equal(t, []any{"N/A"}, second.Violations)
}
