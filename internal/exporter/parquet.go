package exporter

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"fusioncli/internal/matrix"
)

// parquetNode maps a column type to a Parquet leaf. Covariates and labels are
// optional so nulls survive.
func parquetNode(c matrix.Column) parquet.Node {
	switch c.Type {
	case matrix.TypeTimestamp:
		return parquet.Timestamp(parquet.Millisecond)
	case matrix.TypeString:
		return parquet.String()
	case matrix.TypeInt, matrix.TypeBool:
		return parquet.Optional(parquet.Int(64))
	default:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
}

// MatrixSchema builds the Parquet schema for m's columns.
func MatrixSchema(m *matrix.Matrix) *parquet.Schema {
	group := make(parquet.Group, len(m.Columns))
	for _, c := range m.Columns {
		group[c.Name] = parquetNode(c)
	}
	return parquet.NewSchema("features", group)
}

// WriteMatrixParquet writes m as a single Parquet file.
func WriteMatrixParquet(path string, m *matrix.Matrix) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	schema := MatrixSchema(m)

	// leaf order is decided by the schema, not by the header
	leaf := make(map[string]int, len(m.Columns))
	for i, p := range schema.Columns() {
		leaf[p[0]] = i
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewWriter(file, schema)
	rows := make([]parquet.Row, 0, len(m.Rows))
	for _, r := range m.Rows {
		row := make(parquet.Row, len(m.Columns))
		for j, c := range m.Columns {
			row[leaf[c.Name]] = parquetValue(c, r, j).Level(0, definition(c, r.Cells[j]), leaf[c.Name])
		}
		rows = append(rows, row)
	}
	if _, err := writer.WriteRows(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return writer.Close()
}

func definition(c matrix.Column, cell matrix.Cell) int {
	if c.Type == matrix.TypeTimestamp || c.Type == matrix.TypeString {
		return 0
	}
	if cell.Null() {
		return 0
	}
	return 1
}

func parquetValue(c matrix.Column, r matrix.Row, j int) parquet.Value {
	cell := r.Cells[j]
	switch c.Type {
	case matrix.TypeTimestamp:
		return parquet.Int64Value(r.Time.UnixMilli())
	case matrix.TypeString:
		return parquet.ByteArrayValue([]byte(cell.Text))
	}
	if cell.Null() {
		return parquet.NullValue()
	}
	if c.Type == matrix.TypeInt || c.Type == matrix.TypeBool {
		return parquet.Int64Value(int64(cell.Num.V))
	}
	return parquet.DoubleValue(cell.Num.V)
}
