// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns the report context into the deliverable documents:
// HTML pages, PDF documents and the JSON summary.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages lists the HTML pages of the report bundle, in navigation order.
var Pages = []string{
	"main.html",
	"data_quality.html",
	"model_quality.html",
	"model_composition.html",
	"formodeling.html",
	"about_validation.html",
	"validation_help.html",
}

// PDF source templates.
const (
	FullReportTemplate   = "full_validation_pdf.html"
	SummaryTableTemplate = "summary_validation_pdf.html"
)

// Source is the read side of the report context: keys in insertion order
// and their values.
type Source interface {
	Keys() []string
	Value(key string) (any, bool)
}

// Data flattens src into the map templates execute against.
func Data(src Source) map[string]any {
	keys := src.Keys()
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		v, _ := src.Value(k)
		m[k] = v
	}
	return m
}

// Templates is the parsed report template set. Execution fails on any key
// a template references that the context does not hold.
type Templates struct {
	set *template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
	"add1": func(i int) int { return i + 1 },
	// page adds the page title to a copy of the context map.
	"page": func(data map[string]any, title string) map[string]any {
		out := make(map[string]any, len(data)+1)
		for k, v := range data {
			out[k] = v
		}
		out["Page"] = title
		return out
	},
}

// LoadTemplates parses the embedded template set.
func LoadTemplates() (*Templates, error) {
	set, err := template.New("report").
		Option("missingkey=error").
		Funcs(funcs).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing report templates: %w", err)
	}
	return &Templates{set: set}, nil
}

// Execute renders the named template against src.
func (t *Templates) Execute(w io.Writer, name string, src Source) error {
	tmpl := t.set.Lookup(name)
	if tmpl == nil {
		return fmt.Errorf("template %s not found", name)
	}
	// Render to a buffer so a failing template leaves w untouched.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, Data(src)); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// WriteFile renders the named template into path.
func (t *Templates) WriteFile(path, name string, src Source) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, name, src); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WritePages renders every page in Pages into dir and returns the written
// paths. Progress goes to w.
func (t *Templates) WritePages(dir string, src Source, w io.Writer) ([]string, error) {
	paths := make([]string, 0, len(Pages))
	for _, name := range Pages {
		path := filepath.Join(dir, name)
		if err := t.WriteFile(path, name, src); err != nil {
			return paths, err
		}
		fmt.Fprintf(w, "  wrote %s\n", name)
		paths = append(paths, path)
	}
	return paths, nil
}
