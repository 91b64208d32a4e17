// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/ihm-report/pkg/types"
)

// figureStem is the fixed part of every exported chart file name.
const figureStem = "quality_at_glance_"

// Inputs are the metric records a report charts. Any of them may be empty.
type Inputs struct {
	Geometry       *types.GeometryMetrics
	ExcludedVolume *types.ExcludedVolumeMetrics
	SASData        []types.SASDataset
	SASFit         []types.SASFitDataset
	CrossLink      *types.CrossLinkFit
}

// Result lists what a Render call produced.
type Result struct {
	// Variant is the model-quality variant that was selected.
	Variant Variant

	// ModelQualitySkipped is set when the selected variant could not be
	// drawn and the model-quality section was left out.
	ModelQualitySkipped bool

	// Figures maps each exported figure to its file base name without extension.
	Figures map[Kind]string

	// Panels lists the file names of the per-model model-quality SVGs.
	Panels []string

	// Files lists every written file in write order.
	Files []string
}

// Renderer exports the quality-at-a-glance figures of one report into a
// directory, naming files after the report identifier.
type Renderer struct {
	driver   Driver
	dir      string
	reportID string
	w        io.Writer
}

// NewRenderer returns a Renderer writing into dir. Progress goes to w.
func NewRenderer(d Driver, dir, reportID string, w io.Writer) *Renderer {
	return &Renderer{driver: d, dir: dir, reportID: reportID, w: w}
}

// Render exports the model-quality figure for the selected variant and one
// figure for each non-empty data-quality input. Export errors are returned
// as-is; non-numeric excluded-volume counts only skip the model-quality
// figure.
func (r *Renderer) Render(ctx context.Context, in Inputs) (Result, error) {
	res := Result{Figures: map[Kind]string{}}

	variant, fig, err := ModelQualityFigure(in.Geometry, in.ExcludedVolume)
	res.Variant = variant
	switch {
	case errors.Is(err, ErrNotNumeric):
		fmt.Fprintf(r.w, "  model quality: %s chart skipped (%v)\n", variant, err)
		res.ModelQualitySkipped = true
	case err != nil:
		return res, err
	default:
		if variant != VariantPlaceholder {
			for i := range fig.Panels {
				name := fmt.Sprintf("%s_%d_%s%s.svg", r.reportID, i, figureStem, KindModelQuality)
				if err := r.writeFile(ctx, &res, name, fig.Panel(i), FormatSVG); err != nil {
					return res, err
				}
				res.Panels = append(res.Panels, name)
			}
		}
		if err := r.export(ctx, &res, fig); err != nil {
			return res, err
		}
		fmt.Fprintf(r.w, "  model quality: %s chart (%d panels)\n", variant, len(fig.Panels))
	}

	var extra []Figure
	if len(in.SASData) > 0 {
		extra = append(extra, SASDataFigure(in.SASData))
	}
	if len(in.SASFit) > 0 {
		extra = append(extra, SASFitFigure(in.SASFit))
	}
	if !in.CrossLink.Empty() {
		extra = append(extra, CrossLinkFigure(in.CrossLink))
	}
	for _, f := range extra {
		if err := r.export(ctx, &res, f); err != nil {
			return res, err
		}
		fmt.Fprintf(r.w, "  %s: %d bars\n", f.Title, f.BarCount())
	}
	return res, nil
}

// export writes fig as SVG, PNG and HTML.
func (r *Renderer) export(ctx context.Context, res *Result, fig Figure) error {
	base := r.reportID + figureStem + string(fig.Kind)
	for _, format := range []Format{FormatSVG, FormatPNG, FormatHTML} {
		if err := r.writeFile(ctx, res, base+"."+string(format), fig, format); err != nil {
			return err
		}
	}
	res.Figures[fig.Kind] = base
	return nil
}

func (r *Renderer) writeFile(ctx context.Context, res *Result, name string, fig Figure, format Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(r.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := r.driver.Export(fig, format, f); err != nil {
		f.Close()
		return fmt.Errorf("exporting %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	res.Files = append(res.Files, path)
	return nil
}
