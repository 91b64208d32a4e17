// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"

	"github.com/pdiddy/ihm-report/internal/container"
	"github.com/pdiddy/ihm-report/pkg/types"
)

// pageNumbering is printed in the page header of every PDF.
const pageNumbering = "[page] of [topage]"

// PageSetup is the paper layout of a PDF document.
type PageSetup struct {
	Size         string
	MarginInches float64
	Footer       string
}

var (
	// FullReportPage lays out the full validation report.
	FullReportPage = PageSetup{Size: "Letter", MarginInches: 0.5, Footer: "IM Structure Validation Report"}
	// SummaryPage lays out the supplementary summary table.
	SummaryPage = PageSetup{Size: "A4", MarginInches: 0.75, Footer: "IM Summary Table"}
)

// Document is one PDF to produce.
type Document struct {
	// Template is the PDF source template; it also selects the native layout.
	Template string
	Setup    PageSetup
	Source   Source
	// BaseDir is the HTML bundle directory. Relative image paths in the
	// context resolve against it.
	BaseDir string
}

// FullReport describes the full validation report PDF.
func FullReport(src Source, baseDir string) Document {
	return Document{Template: FullReportTemplate, Setup: FullReportPage, Source: src, BaseDir: baseDir}
}

// SummaryTable describes the supplementary summary table PDF.
func SummaryTable(src Source, baseDir string) Document {
	return Document{Template: SummaryTableTemplate, Setup: SummaryPage, Source: src, BaseDir: baseDir}
}

// Converter produces a PDF file from a Document. Different backends
// (fpdf, wkhtmltopdf) implement this interface.
type Converter interface {
	// Name identifies the backend in progress output.
	Name() string

	// Convert writes doc as a PDF at outPath.
	Convert(ctx context.Context, doc Document, outPath string) error
}

// Intermediates is implemented by converters that write temporary files
// while converting. Callers remove them even when Convert fails midway.
type Intermediates interface {
	Intermediates(doc Document, outPath string) []string
}

// NewConverter returns the converter for backend. The wkhtmltopdf backend
// needs a container runtime and its image; the native backend needs nothing.
func NewConverter(backend types.PDFBackend, t *Templates) (Converter, error) {
	switch backend {
	case types.PDFNative, "":
		return NewNativeConverter(), nil
	case types.PDFWkhtmltopdf:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewWkhtmlConverter(rt, t)
	default:
		return nil, fmt.Errorf("unknown PDF backend %q", backend)
	}
}
