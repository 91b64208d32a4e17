// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/ihm-report/pkg/types"
)

// Sheet is one worksheet of a tables workbook.
type Sheet struct {
	Name  string
	Table types.Table
}

// WriteWorkbook saves sheets as an .xlsx workbook at path. Cells that parse
// as numbers are stored as numbers. Empty tables still get a sheet with
// their header row.
func WriteWorkbook(path string, sheets []Sheet) (err error) {
	if len(sheets) == 0 {
		return errors.New("workbook has no sheets")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("naming sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("adding sheet %q: %w", s.Name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s Sheet, headerStyle int) error {
	if len(s.Table.Header) > 0 {
		header := make([]any, len(s.Table.Header))
		for i, h := range s.Table.Header {
			header[i] = h
		}
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, "A1", end, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range s.Table.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = cellValue(c)
		}
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, start, &cells); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(s string) any {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
