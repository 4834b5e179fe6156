package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Timetable"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title in row 1, headers in row 2 and data below.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 20); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if data.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", data.Title); err != nil {
			return nil, err
		}
		if len(data.Headers) > 1 {
			if err := f.MergeCell(xlsxSheet, "A1", lastCol+"1"); err != nil {
				return nil, fmt.Errorf("merge title: %w", err)
			}
		}
		if err := f.SetCellStyle(xlsxSheet, "A1", "A1", headerStyle); err != nil {
			return nil, err
		}
	}

	for i, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(xlsxSheet, cell, header); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(xlsxSheet, "A2", lastCol+"2", headerStyle); err != nil {
		return nil, err
	}

	for r, row := range data.Rows {
		for c, value := range data.record(row) {
			cell, err := excelize.CoordinatesToCellName(c+1, r+3)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
