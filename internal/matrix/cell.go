package matrix

import (
	"math"
	"strconv"
	"time"

	"fusioncli/internal/series"
)

// Cell is one value of a row: a nullable number or a text value.
type Cell struct {
	Num    series.Opt
	Text   string
	IsText bool
}

// NumCell wraps a nullable number.
func NumCell(o series.Opt) Cell { return Cell{Num: o} }

// TextCell wraps a text value.
func TextCell(s string) Cell { return Cell{Text: s, IsText: true} }

// Null reports whether the cell has no value.
func (c Cell) Null() bool { return !c.IsText && !c.Num.OK }

// Format renders the cell for text outputs. Nulls render empty.
func (c Cell) Format(t ColumnType) string {
	if c.IsText {
		return c.Text
	}
	if !c.Num.OK {
		return ""
	}
	switch t {
	case TypeInt, TypeBool:
		return strconv.FormatInt(int64(math.Round(c.Num.V)), 10)
	default:
		return strconv.FormatFloat(c.Num.V, 'g', -1, 64)
	}
}

// Row is one output row, stamped with the primary bar's timestamp.
type Row struct {
	Time  time.Time
	Cells []Cell
}

// Strings formats the row against its columns.
func (r Row) Strings(cols []Column) []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		t := TypeFloat
		if i < len(cols) {
			t = cols[i].Type
		}
		out[i] = c.Format(t)
	}
	return out
}

func boolOpt(b bool) series.Opt {
	if b {
		return series.Some(1)
	}
	return series.Some(0)
}
