package matrix

import (
	"fmt"
	"time"
)

// Descriptor is the schema document written next to a matrix. It splits
// covariates into known-in-advance and past-only sets.
type Descriptor struct {
	Job             string    `json:"job"`
	ItemIDColumn    string    `json:"item_id_column"`
	TimestampColumn string    `json:"timestamp_column"`
	Target          string    `json:"target"`
	Labels          []string  `json:"labels"`
	Freq            string    `json:"freq"`
	KnownCovariates []string  `json:"known_covariates"`
	PastCovariates  []string  `json:"past_covariates"`
	Columns         []Column  `json:"columns"`
	Rows            int       `json:"rows"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
}

// Describe builds the descriptor for m.
func Describe(m *Matrix) Descriptor {
	d := Descriptor{
		Job:             m.Job,
		ItemIDColumn:    ColItemID,
		TimestampColumn: ColTimestamp,
		Freq:            FormatFreq(m.Interval),
		Labels:          []string{},
		KnownCovariates: []string{},
		PastCovariates:  []string{},
		Columns:         m.Columns,
		Rows:            len(m.Rows),
	}
	for _, c := range m.Columns {
		switch c.Role {
		case RoleLabel:
			d.Labels = append(d.Labels, c.Name)
		case RoleKnown:
			d.KnownCovariates = append(d.KnownCovariates, c.Name)
		case RolePast:
			d.PastCovariates = append(d.PastCovariates, c.Name)
		}
	}
	if len(d.Labels) > 0 {
		d.Target = d.Labels[0]
	}
	if len(m.Rows) > 0 {
		d.Start = m.Rows[0].Time.UTC()
		d.End = m.Rows[len(m.Rows)-1].Time.UTC()
	}
	return d
}

// FormatFreq renders a bar interval as a pandas-style frequency alias.
func FormatFreq(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dD", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dmin", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
