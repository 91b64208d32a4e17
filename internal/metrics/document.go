// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics supplies the quality metrics of an entry to the report
// stages. Metric computation happens in the analysis modules; this package
// reads their output and fronts it with the metrics cache.
package metrics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ihm-report/pkg/types"
)

// documentSuffix is appended to the input stem to find the default metrics document.
const documentSuffix = ".metrics.yaml"

// Provider returns the metric records of one entry. A record the analysis
// modules did not produce comes back nil or empty, never as an error.
type Provider interface {
	// EntryID is the report identifier the records belong to.
	EntryID() string

	// Digest is a content hash of everything the records were derived from.
	Digest() string

	Composition(ctx context.Context) (types.EntryComposition, error)
	Geometry(ctx context.Context) (*types.GeometryMetrics, error)
	ExcludedVolume(ctx context.Context) (*types.ExcludedVolumeMetrics, error)
	SASData(ctx context.Context) ([]types.SASDataset, error)
	SASFit(ctx context.Context) ([]types.SASFitDataset, error)
	CrossLink(ctx context.Context) (*types.CrossLinkFit, error)
}

// EntryID derives the report identifier from the input file name.
func EntryID(inputFile string) string {
	base := filepath.Base(inputFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultDocumentPath returns <dir>/<stem>.metrics.yaml for inputFile.
func DefaultDocumentPath(inputFile string) string {
	return filepath.Join(filepath.Dir(inputFile), EntryID(inputFile)+documentSuffix)
}

// DocumentProvider serves records from a metrics document on disk.
type DocumentProvider struct {
	entryID string
	digest  string
	doc     types.MetricsDocument
}

// OpenDocument reads the metrics document at docPath for the archive at
// inputFile. The document format follows its extension: .yaml/.yml, .json
// or .toml. The digest covers both files, so editing either one
// invalidates cached records.
func OpenDocument(inputFile, docPath string) (*DocumentProvider, error) {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("reading metrics document: %w", err)
	}

	doc, err := DecodeDocument(filepath.Ext(docPath), data)
	if err != nil {
		return nil, fmt.Errorf("parsing metrics document %s: %w", docPath, err)
	}

	h := sha256.New()
	if err := hashFile(h, inputFile); err != nil {
		return nil, err
	}
	h.Write(data)

	return &DocumentProvider{
		entryID: EntryID(inputFile),
		digest:  hex.EncodeToString(h.Sum(nil)),
		doc:     doc,
	}, nil
}

// DecodeDocument parses a metrics document in the format named by ext.
func DecodeDocument(ext string, data []byte) (types.MetricsDocument, error) {
	var doc types.MetricsDocument
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return doc, err
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return doc, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return doc, err
		}
	default:
		return doc, fmt.Errorf("unsupported metrics document format %q: use .yaml, .json or .toml", ext)
	}
	return doc, nil
}

func hashFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("hashing input file %s: %w", path, err)
	}
	return nil
}

func (p *DocumentProvider) EntryID() string { return p.entryID }
func (p *DocumentProvider) Digest() string  { return p.digest }

func (p *DocumentProvider) Composition(context.Context) (types.EntryComposition, error) {
	c := p.doc.Composition
	if c.ID == "" {
		c.ID = p.entryID
	}
	return c, nil
}

func (p *DocumentProvider) Geometry(context.Context) (*types.GeometryMetrics, error) {
	g := p.doc.Geometry
	if g.Empty() {
		return nil, nil
	}
	n := len(g.Names)
	if len(g.Clashscore) != n || len(g.RamachandranOutliers) != n || len(g.SidechainOutliers) != n {
		return nil, fmt.Errorf("geometry metrics: %d models but %d/%d/%d scores",
			n, len(g.Clashscore), len(g.RamachandranOutliers), len(g.SidechainOutliers))
	}
	return g, nil
}

func (p *DocumentProvider) ExcludedVolume(context.Context) (*types.ExcludedVolumeMetrics, error) {
	e := p.doc.ExcludedVolume
	if e.Empty() {
		return nil, nil
	}
	if len(e.Violations) != len(e.Models) || len(e.Satisfaction) != len(e.Models) {
		return nil, fmt.Errorf("excluded volume metrics: %d models but %d violations and %d satisfaction values",
			len(e.Models), len(e.Violations), len(e.Satisfaction))
	}
	return e, nil
}

func (p *DocumentProvider) SASData(context.Context) ([]types.SASDataset, error) {
	return p.doc.SASData, nil
}

func (p *DocumentProvider) SASFit(context.Context) ([]types.SASFitDataset, error) {
	return p.doc.SASFit, nil
}

func (p *DocumentProvider) CrossLink(context.Context) (*types.CrossLinkFit, error) {
	c := p.doc.CrossLink
	if c.Empty() {
		return nil, nil
	}
	if len(c.Satisfaction) != len(c.Models) {
		return nil, fmt.Errorf("cross-link fit: %d models but %d satisfaction values",
			len(c.Models), len(c.Satisfaction))
	}
	return c, nil
}
