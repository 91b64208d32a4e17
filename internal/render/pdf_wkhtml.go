// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/ihm-report/internal/container"
)

const (
	imageWkhtmltopdf = "surnet/alpine-wkhtmltopdf:3.20.2-0.12.6-full"
	// workDir is where the HTML bundle is mounted inside the container.
	workDir = "/work"
)

// WkhtmlConverter renders the PDF source template to HTML and converts it
// with wkhtmltopdf in a container. It depends on a container.Runtime
// injected at construction time.
type WkhtmlConverter struct {
	runtime   container.Runtime
	templates *Templates
}

// NewWkhtmlConverter verifies that the wkhtmltopdf image exists locally.
func NewWkhtmlConverter(rt container.Runtime, t *Templates) (*WkhtmlConverter, error) {
	if err := rt.ImageExists(imageWkhtmltopdf); err != nil {
		return nil, fmt.Errorf("wkhtmltopdf image not available in %s: %w", rt.Name(), err)
	}
	return &WkhtmlConverter{runtime: rt, templates: t}, nil
}

func (c *WkhtmlConverter) Name() string { return "wkhtmltopdf/" + c.runtime.Name() }

// Convert writes a temporary HTML file into doc.BaseDir so relative image
// paths resolve, runs wkhtmltopdf on it and streams the PDF to outPath. The
// temporary file is removed before returning.
func (c *WkhtmlConverter) Convert(ctx context.Context, doc Document, outPath string) error {
	tmpName := TempHTMLName(outPath)
	tmpPath := c.Intermediates(doc, outPath)[0]
	if err := c.templates.WriteFile(tmpPath, doc.Template, doc.Source); err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	var pdf, stderr bytes.Buffer
	args := append(wkhtmlArgs(doc.Setup), path.Join(workDir, tmpName), "-")
	err := c.runtime.Run(ctx, container.RunSpec{
		Image:   imageWkhtmltopdf,
		Mounts:  []container.Mount{{Host: doc.BaseDir, Container: workDir, ReadOnly: true}},
		Workdir: workDir,
		Args:    args,
		Stdout:  &pdf,
		Stderr:  &stderr,
	})
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("converting %s: %w: %s", doc.Template, err, msg)
		}
		return fmt.Errorf("converting %s: %w", doc.Template, err)
	}
	if pdf.Len() == 0 {
		return fmt.Errorf("wkhtmltopdf produced empty output for %s", doc.Template)
	}
	return os.WriteFile(outPath, pdf.Bytes(), 0o644)
}

// Intermediates lists the temporary HTML Convert writes for doc.
func (c *WkhtmlConverter) Intermediates(doc Document, outPath string) []string {
	return []string{filepath.Join(doc.BaseDir, TempHTMLName(outPath))}
}

// TempHTMLName is the name of the intermediate HTML written next to the
// bundle while producing the PDF at outPath.
func TempHTMLName(outPath string) string {
	return strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath)) + "_temp.html"
}

// wkhtmlArgs translates a page setup into wkhtmltopdf options.
func wkhtmlArgs(s PageSetup) []string {
	margin := strconv.FormatFloat(s.MarginInches, 'f', -1, 64) + "in"
	return []string{
		"--quiet",
		"--page-size", s.Size,
		"--margin-top", margin,
		"--margin-right", margin,
		"--margin-bottom", margin,
		"--margin-left", margin,
		"--enable-javascript",
		"--enable-local-file-access",
		"--header-left", pageNumbering,
		"--header-line",
		"--header-spacing", "5",
		"--footer-center", s.Footer,
		"--footer-line",
		"--footer-spacing", "5",
	}
}
