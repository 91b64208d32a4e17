// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Table is a rendered section table: a header row plus string cells. Report
// stages build tables from metric records; the HTML, PDF, JSON and workbook
// writers all read the same value.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Append adds one row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
