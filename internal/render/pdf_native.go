// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	bold "github.com/go-fonts/liberation/liberationsansbold"
	italic "github.com/go-fonts/liberation/liberationsansitalic"
	regular "github.com/go-fonts/liberation/liberationsansregular"
	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/ihm-report/pkg/types"
)

const (
	mmPerInch  = 25.4
	lineHeight = 5.0
	// fontFamily is embedded as a UTF-8 font so that Å, χ and ² print as is.
	fontFamily = "LiberationSans"
)

var (
	colorHeading     = [3]int{30, 58, 95}
	colorMuted       = [3]int{110, 110, 110}
	colorTableHeader = [3]int{225, 232, 240}
	colorGrid        = [3]int{170, 170, 170}
)

// glanceOrder is the order quality-at-a-glance charts appear in.
var glanceOrder = []string{"MQ", "DQ", "FQ", "XL"}

// NativeConverter lays documents out directly with fpdf, embedding the PNG
// chart exports. It needs no external tools.
type NativeConverter struct{}

// NewNativeConverter returns the fpdf backend.
func NewNativeConverter() *NativeConverter { return &NativeConverter{} }

func (c *NativeConverter) Name() string { return "native" }

// Convert lays out doc according to its template and writes it to outPath.
func (c *NativeConverter) Convert(ctx context.Context, doc Document, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := newLayout(doc)

	var err error
	switch doc.Template {
	case FullReportTemplate:
		err = l.fullReport()
	case SummaryTableTemplate:
		err = l.summaryTable()
	default:
		return fmt.Errorf("no native layout for %s", doc.Template)
	}
	if err != nil {
		return fmt.Errorf("laying out %s: %w", doc.Template, err)
	}

	if err := l.pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(outPath), err)
	}
	return nil
}

// layout wraps an fpdf document with the report's page furniture.
type layout struct {
	pdf     *fpdf.Fpdf
	src     Source
	baseDir string
	width   float64
	bottom  float64
}

func newLayout(doc Document) *layout {
	margin := doc.Setup.MarginInches * mmPerInch
	pdf := fpdf.New("P", "mm", doc.Setup.Size, "")
	pdf.SetMargins(margin, margin+4, margin)
	pdf.SetAutoPageBreak(true, margin+4)
	pdf.AliasNbPages("")
	pdf.AddUTF8FontFromBytes(fontFamily, "", regular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", bold.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "I", italic.TTF)

	l := &layout{
		pdf:     pdf,
		src:     doc.Source,
		baseDir: doc.BaseDir,
	}
	pageW, pageH := pdf.GetPageSize()
	l.width = pageW - 2*margin
	l.bottom = pageH - margin - 4

	numbering := strings.NewReplacer("[page]", "%d", "[topage]", "{nb}").Replace(pageNumbering)
	pdf.SetHeaderFunc(func() {
		pdf.SetY(margin / 2)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 4, fmt.Sprintf(numbering, pdf.PageNo()), "B", 1, "L", false, 0, "")
		pdf.SetY(margin + 4)
	})
	pdf.SetFooterFunc(func() {
		_, h := pdf.GetPageSize()
		pdf.SetY(h - margin/2 - 4)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 4, doc.Setup.Footer, "T", 0, "C", false, 0, "")
	})
	return l
}

func (l *layout) fullReport() error {
	id, err := lookup[string](l.src, "ID")
	if err != nil {
		return err
	}
	title, err := lookup[string](l.src, "Title")
	if err != nil {
		return err
	}
	authors, err := lookup[[]string](l.src, "Authors")
	if err != nil {
		return err
	}
	date, err := lookup[string](l.src, "Date")
	if err != nil {
		return err
	}
	glance, err := lookup[map[string]string](l.src, "Quality_glance")
	if err != nil {
		return err
	}

	l.pdf.AddPage()
	l.heading(1, "Validation report for "+id)
	l.para(title, "B")
	l.para(strings.Join(authors, ", "), "")
	l.para("Generated "+date, "I")

	l.heading(2, "Quality at a glance")
	for _, kind := range glanceOrder {
		base, ok := glance[kind]
		if !ok {
			continue
		}
		if err := l.image(filepath.Join(l.baseDir, base+".png")); err != nil {
			return err
		}
	}

	sections := []struct {
		heading string
		keys    []string
	}{
		{"Model composition", []string{"Entry_composition"}},
		{"Model quality", []string{"Geometry_table", "Excluded_volume_table"}},
		{"Data quality", []string{"SAS_data_table"}},
		{"Fit to data used for modeling", []string{"SAS_fit_table", "Crosslink_table"}},
	}
	l.pdf.AddPage()
	for _, s := range sections {
		l.heading(2, s.heading)
		for _, key := range s.keys {
			t, err := lookup[types.Table](l.src, key)
			if err != nil {
				return err
			}
			l.table(t)
		}
	}
	return l.pdf.Error()
}

func (l *layout) summaryTable() error {
	id, err := lookup[string](l.src, "ID")
	if err != nil {
		return err
	}
	title, err := lookup[string](l.src, "Title")
	if err != nil {
		return err
	}
	date, err := lookup[string](l.src, "Date")
	if err != nil {
		return err
	}
	physics, err := lookup[[]string](l.src, "Physics")
	if err != nil {
		return err
	}
	supp, err := lookup[types.Table](l.src, "Supplementary_table")
	if err != nil {
		return err
	}

	l.pdf.AddPage()
	l.heading(1, "Summary table for "+id)
	l.para(title, "")
	l.para("Generated "+date, "I")
	l.heading(2, "Physical principles")
	for _, p := range physics {
		l.para("- "+p, "")
	}
	l.table(supp)
	return l.pdf.Error()
}

func (l *layout) heading(level int, text string) {
	size := 16.0
	if level > 1 {
		size = 12
	}
	l.pdf.Ln(2)
	l.pdf.SetFont(fontFamily, "B", size)
	l.pdf.SetTextColor(colorHeading[0], colorHeading[1], colorHeading[2])
	l.pdf.MultiCell(0, size/2, text, "", "L", false)
	l.pdf.Ln(1)
}

func (l *layout) para(text, style string) {
	if text == "" {
		return
	}
	l.pdf.SetFont(fontFamily, style, 10)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.MultiCell(0, lineHeight, text, "", "L", false)
}

// image places a PNG at content width, shrunk to fit one page.
func (l *layout) image(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("chart image: %w", err)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	info := l.pdf.RegisterImageOptions(path, opts)
	if info == nil || info.Width() == 0 {
		return fmt.Errorf("registering %s: %w", filepath.Base(path), l.pdf.Error())
	}

	_, top, _, _ := l.pdf.GetMargins()
	w := l.width
	h := w * info.Height() / info.Width()
	if maxH := l.bottom - top; h > maxH {
		h = maxH
		w = h * info.Width() / info.Height()
	}
	if l.pdf.GetY()+h > l.bottom {
		l.pdf.AddPage()
	}
	left, _, _, _ := l.pdf.GetMargins()
	l.pdf.ImageOptions(path, left+(l.width-w)/2, l.pdf.GetY(), w, h, false, opts, 0, "")
	l.pdf.SetY(l.pdf.GetY() + h + 4)
	return nil
}

func (l *layout) table(t types.Table) {
	if t.Empty() {
		l.para("Not available for this entry.", "I")
		l.pdf.Ln(2)
		return
	}
	cols := len(t.Header)
	for _, r := range t.Rows {
		cols = max(cols, len(r))
	}
	colW := l.width / float64(cols)
	if len(t.Header) > 0 {
		l.row(t.Header, colW, true)
	}
	for _, r := range t.Rows {
		l.row(r, colW, false)
	}
	l.pdf.Ln(3)
}

// row draws one table row, wrapping cell text and growing the row to the
// tallest cell.
func (l *layout) row(cells []string, colW float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	l.pdf.SetFont(fontFamily, style, 9)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.SetDrawColor(colorGrid[0], colorGrid[1], colorGrid[2])
	l.pdf.SetFillColor(colorTableHeader[0], colorTableHeader[1], colorTableHeader[2])

	lines := make([][]string, len(cells))
	n := 1
	for i, c := range cells {
		lines[i] = l.wrap(c, colW-2)
		n = max(n, len(lines[i]))
	}
	h := float64(n)*lineHeight + 1

	if l.pdf.GetY()+h > l.bottom {
		l.pdf.AddPage()
	}
	left, _, _, _ := l.pdf.GetMargins()
	y := l.pdf.GetY()
	rect := "D"
	if header {
		rect = "FD"
	}
	for i := range cells {
		x := left + float64(i)*colW
		l.pdf.Rect(x, y, colW, h, rect)
		for j, line := range lines[i] {
			l.pdf.SetXY(x+1, y+0.5+float64(j)*lineHeight)
			l.pdf.CellFormat(colW-2, lineHeight, line, "", 0, "L", false, 0, "")
		}
	}
	l.pdf.SetXY(left, y+h)
}

// wrap breaks text into lines no wider than w, at spaces where possible
// and between characters for words wider than w.
func (l *layout) wrap(text string, w float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			next := word
			if line != "" {
				next = line + " " + word
			}
			if l.pdf.GetStringWidth(next) <= w {
				line = next
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			for l.pdf.GetStringWidth(word) > w {
				n := l.fit(word, w)
				lines = append(lines, word[:n])
				word = word[n:]
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// fit returns the byte length of the longest prefix of word no wider than
// w, and at least one character.
func (l *layout) fit(word string, w float64) int {
	n := 0
	for i, r := range word {
		end := i + utf8.RuneLen(r)
		if l.pdf.GetStringWidth(word[:end]) > w {
			break
		}
		n = end
	}
	if n == 0 {
		_, n = utf8.DecodeRuneInString(word)
	}
	return n
}

// lookup fetches key from src as a T. Missing keys fail the same way a
// template referencing them would.
func lookup[T any](src Source, key string) (T, error) {
	var zero T
	v, ok := src.Value(key)
	if !ok {
		return zero, fmt.Errorf("map has no entry for key %q", key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("context key %q holds %T, want %T", key, v, zero)
	}
	return t, nil
}
