// Package export renders tabular data as xlsx workbooks.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DateLayout  = "2006-01-02"

	defaultWidth = 18
)

type Column struct {
	Header string
	Width  float64
}

type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]interface{}
}

// Workbook writes every sheet into one right-to-left workbook and returns
// the encoded file.
func Workbook(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, errors.New("export: no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return nil, fmt.Errorf("export: sheet %q: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	rtl := true
	if err := f.SetSheetView(sheet.Name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}

	for i, col := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, col.Header); err != nil {
			return err
		}

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := col.Width
		if width <= 0 {
			width = defaultWidth
		}
		if err := f.SetColWidth(sheet.Name, name, name, width); err != nil {
			return err
		}
	}
	if n := len(sheet.Columns); n > 0 {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range sheet.Rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.Name, cell, cellValue(val)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.InexactFloat64()
	case *decimal.Decimal:
		if val == nil {
			return ""
		}
		return val.InexactFloat64()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(DateLayout)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(DateLayout)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case nil:
		return ""
	default:
		return val
	}
}
