package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fusioncli/internal/matrix"
)

// PreviewRows caps the rows copied into the XLSX preview.
const PreviewRows = 500

// WriteXLSXPreview writes a workbook with a "features" sheet holding the first
// PreviewRows rows and a "schema" sheet describing every column.
func WriteXLSXPreview(path string, m *matrix.Matrix) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "features"); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, "features", 1, toAny(m.Header())); err != nil {
		return err
	}
	for i, r := range m.Rows {
		if i >= PreviewRows {
			break
		}
		vals := make([]any, len(r.Cells))
		for j, c := range r.Cells {
			col := m.Columns[j]
			switch {
			case col.Type == matrix.TypeTimestamp:
				vals[j] = r.Time.UTC().Format("2006-01-02 15:04:05")
			case c.IsText:
				vals[j] = c.Text
			case c.Null():
				vals[j] = nil
			case col.Type == matrix.TypeInt || col.Type == matrix.TypeBool:
				vals[j] = int64(c.Num.V)
			default:
				vals[j] = c.Num.V
			}
		}
		if err := setRow(f, "features", i+2, vals); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet("schema"); err != nil {
		return fmt.Errorf("create schema sheet: %w", err)
	}
	if err := setRow(f, "schema", 1, []any{"column", "type", "role", "group"}); err != nil {
		return err
	}
	for i, c := range m.Columns {
		if err := setRow(f, "schema", i+2, []any{c.Name, string(c.Type), string(c.Role), string(c.Group)}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	for j, v := range vals {
		if v == nil {
			continue
		}
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", name, row), v); err != nil {
			return fmt.Errorf("set %s!%s%d: %w", sheet, name, row, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
