package matrix

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fusioncli/internal/asof"
	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/phase"
)

// Matrix is a built feature matrix.
type Matrix struct {
	Job      string
	ItemID   string
	Interval time.Duration
	Columns  []Column
	Rows     []Row
}

// Header returns the column names.
func (m *Matrix) Header() []string { return Names(m.Columns) }

// NullRatio is the share of null cells among covariate columns.
func (m *Matrix) NullRatio() float64 {
	var nulls, total int
	for _, r := range m.Rows {
		for j, c := range r.Cells {
			if role := m.Columns[j].Role; role != RolePast && role != RoleKnown {
				continue
			}
			total++
			if c.Null() {
				nulls++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(nulls) / float64(total)
}

// Validate checks that every row is exactly as wide as the header. A mismatch
// is a configuration error.
func (m *Matrix) Validate() error {
	if len(m.Columns) == 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("matrix %s has no columns", m.Job), nil)
	}
	for i, r := range m.Rows {
		if len(r.Cells) != len(m.Columns) {
			return apperrors.NewConfigurationError(
				fmt.Sprintf("row %d has %d cells, header has %d", i, len(r.Cells), len(m.Columns)), nil).
				WithContext("job", m.Job)
		}
	}
	return nil
}

// Builder assembles matrices. It holds no per-build state and may be shared.
type Builder struct {
	logger     *slog.Logger
	classifier phase.Classifier
}

// NewBuilder creates a builder with the default phase windows.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{
		logger:     logger.With(slog.String("component", "matrix_builder")),
		classifier: phase.NewClassifier(),
	}
}

// WithWindows overrides the phase windows used for the calendar columns.
func (b *Builder) WithWindows(w phase.Windows) *Builder {
	b.classifier = phase.Classifier{Windows: w}
	return b
}

// Build computes every column over the primary series and assembles one row
// per primary bar. It fails before producing any row when the primary series
// is too short, when a cross instrument has no bars, or when the column
// selection is invalid.
func (b *Builder) Build(ctx context.Context, job Job, in *Inputs) (*Matrix, error) {
	start := time.Now()
	job = job.WithDefaults()
	if err := job.Validate(); err != nil {
		return nil, err
	}

	cols, err := Select(Catalogue(job), job.Features)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	primary := in.Bars[job.Primary]
	if primary.Len() < MinPrimaryBars {
		return nil, apperrors.NewDataInsufficiencyError(job.Primary.Code(), primary.Len(), MinPrimaryBars).
			WithContext("job", job.Name)
	}
	if i, ok := primary.StrictlyIncreasing(); !ok {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("%s bars not strictly increasing at index %d", job.Primary.Code(), i)).
			WithContext("job", job.Name)
	}
	for _, c := range job.Cross {
		if in.Bars[c].Len() == 0 {
			return nil, apperrors.NewDataInsufficiencyError(c.Code(), 0, 1).WithContext("job", job.Name)
		}
	}

	lagged := make(map[MacroSeries]*asof.LaggedSeries, len(job.Macro))
	for _, m := range job.Macro {
		data, ok := in.Macro[m]
		if !ok {
			b.logger.WarnContext(ctx, "macro series missing, column will be null",
				slog.String("job", job.Name), slog.String("series", m.ID()))
			continue
		}
		data.Meta = m.Meta()
		ls, err := asof.NewLaggedSeries(data)
		if err != nil {
			return nil, apperrors.NewConfigurationError("invalid macro series", err)
		}
		lagged[m] = ls
	}

	e := newEnv(job, in, lagged, b.classifier)
	f, err := computeFrame(e)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}
	rows, err := assemble(f, cols, e.times, job.Primary.Code())
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Name, err)
	}

	m := &Matrix{
		Job:      job.Name,
		ItemID:   job.Primary.Code(),
		Interval: job.Interval,
		Columns:  cols,
		Rows:     rows,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b.logger.InfoContext(ctx, "matrix built",
		slog.String("job", job.Name),
		slog.String("primary", job.Primary.Code()),
		slog.Int("rows", len(rows)),
		slog.Int("columns", len(cols)),
		slog.Float64("null_ratio", m.NullRatio()),
		slog.Duration("duration", time.Since(start)),
	)
	return m, nil
}

// assemble reads the frame into rows, one cell per selected column.
func assemble(f *frame, cols []Column, times []time.Time, itemID string) ([]Row, error) {
	sources := make([]func(i int) Cell, len(cols))
	for j, c := range cols {
		switch c.Name {
		case ColTimestamp:
			sources[j] = func(i int) Cell { return TextCell(times[i].UTC().Format(time.RFC3339)) }
		case ColItemID:
			sources[j] = func(int) Cell { return TextCell(itemID) }
		default:
			s, ok := f.get(c.Name)
			if !ok {
				return nil, apperrors.NewConfigurationError(
					fmt.Sprintf("unknown feature column %q", c.Name), nil).WithContext("column", c.Name)
			}
			sources[j] = func(i int) Cell { return NumCell(s.At(i)) }
		}
	}

	rows := make([]Row, 0, len(times))
	for i, ts := range times {
		cells := make([]Cell, 0, len(sources))
		for _, src := range sources {
			cells = append(cells, src(i))
		}
		if i > 0 && !ts.After(rows[len(rows)-1].Time) {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("row %d timestamp not increasing", i))
		}
		rows = append(rows, Row{Time: ts, Cells: cells})
	}
	return rows, nil
}
