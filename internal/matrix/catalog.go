package matrix

import (
	"fmt"
	"strings"

	apperrors "fusioncli/internal/errors"
)

// Role separates identity, covariate and label columns.
type Role string

const (
	RoleIdentity Role = "identity"
	RolePast     Role = "past"  // observed up to and including the row
	RoleKnown    Role = "known" // known in advance, e.g. from the calendar
	RoleLabel    Role = "label"
)

// ColumnType is the semantic type of a column's cells.
type ColumnType string

const (
	TypeTimestamp ColumnType = "timestamp"
	TypeString    ColumnType = "string"
	TypeFloat     ColumnType = "float"
	TypeInt       ColumnType = "int"
	TypeBool      ColumnType = "bool"
)

// Group names a family of columns.
type Group string

const (
	GroupIdentity  Group = "identity"
	GroupPrice     Group = "price"
	GroupIndicator Group = "indicator"
	GroupMacro     Group = "macro"
	GroupCross     Group = "cross_asset"
	GroupCalendar  Group = "calendar"
	GroupSurprise  Group = "surprise"
	GroupLabel     Group = "label"
)

// Column is one catalogue entry.
type Column struct {
	Name  string     `json:"name"`
	Type  ColumnType `json:"type"`
	Role  Role       `json:"role"`
	Group Group      `json:"group"`
}

const (
	ColTimestamp = "timestamp"
	ColItemID    = "item_id"
)

func past(g Group, t ColumnType, names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n, Type: t, Role: RolePast, Group: g}
	}
	return out
}

// Catalogue returns every column the job can produce, in header order.
func Catalogue(j Job) []Column {
	cols := []Column{
		{Name: ColTimestamp, Type: TypeTimestamp, Role: RoleIdentity, Group: GroupIdentity},
		{Name: ColItemID, Type: TypeString, Role: RoleIdentity, Group: GroupIdentity},
	}
	for _, b := range blocks {
		cols = append(cols, b.columns(j)...)
	}
	return cols
}

func surpriseColumn(name string) string { return name + "_release_z" }
func labelReturn(h int) string          { return fmt.Sprintf("target_ret_%dh", h) }
func labelDirection(h int) string       { return fmt.Sprintf("target_dir_%dh", h) }
func labelNormalized(h int) string      { return fmt.Sprintf("target_ret_norm_%dh", h) }

// Select keeps identity and label columns plus the named features, in
// catalogue order. An empty selection keeps everything. Unknown names are a
// configuration error.
func Select(catalogue []Column, features []string) ([]Column, error) {
	if len(features) == 0 {
		return catalogue, nil
	}

	byName := make(map[string]Column, len(catalogue))
	for _, c := range catalogue {
		byName[c.Name] = c
	}
	want := make(map[string]bool, len(features))
	var unknown []string
	for _, f := range features {
		f = strings.TrimSpace(f)
		if _, ok := byName[f]; !ok {
			unknown = append(unknown, f)
			continue
		}
		want[f] = true
	}
	if len(unknown) > 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("unknown feature column(s): %s", strings.Join(unknown, ", ")), nil).
			WithContext("unknown", unknown)
	}

	out := make([]Column, 0, len(want)+4)
	for _, c := range catalogue {
		if c.Role == RoleIdentity || c.Role == RoleLabel || want[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Names returns the column names in order.
func Names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
