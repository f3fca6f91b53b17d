package providers

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
	"fusioncli/pkg/contracts/domain"
)

// CSVSource reads a directory laid out as
//
//	bars/<CODE>.csv       timestamp,open,high,low,close,volume
//	macro/<SERIES_ID>.csv date,value
//	calendar.csv          date,time,impact,name,actual,forecast,previous
//
// Malformed rows are logged and skipped.
type CSVSource struct {
	dir    string
	logger *slog.Logger
}

// NewCSVSource creates a CSV source rooted at dir.
func NewCSVSource(dir string, logger *slog.Logger) *CSVSource {
	return &CSVSource{dir: dir, logger: logger.With(slog.String("component", "csv_source"))}
}

// Bars implements BarSource.
func (s *CSVSource) Bars(ctx context.Context, in matrix.Instrument) (domain.BarSeries, error) {
	path := filepath.Join(s.dir, "bars", in.Code()+".csv")
	records, err := readCSV(path)
	if err != nil {
		return domain.BarSeries{}, apperrors.NewSourceError("bars "+in.Code(), err)
	}

	bars := make([]domain.Bar, 0, len(records))
	for i, rec := range records {
		bar, err := parseBarRecord(rec, i+2)
		if err != nil {
			s.skip(ctx, path, i+2, err)
			continue
		}
		bars = append(bars, bar)
	}
	return domain.BarSeries{Instrument: in.Code(), Bars: orderBars(bars)}, nil
}

// Observations implements ObservationSource. Empty and "." values load as
// missing points.
func (s *CSVSource) Observations(ctx context.Context, ms matrix.MacroSeries) (domain.MacroSeriesData, error) {
	path := filepath.Join(s.dir, "macro", ms.ID()+".csv")
	records, err := readCSV(path)
	if err != nil {
		return domain.MacroSeriesData{}, apperrors.NewSourceError("macro "+ms.ID(), err)
	}

	data := domain.MacroSeriesData{Meta: ms.Meta(), Points: make([]domain.ObservationPoint, 0, len(records))}
	for i, rec := range records {
		if len(rec) < 2 {
			s.skip(ctx, path, i+2, fmt.Errorf("expected 2 columns, got %d", len(rec)))
			continue
		}
		date, err := parseDate(rec[0])
		if err != nil {
			s.skip(ctx, path, i+2, err)
			continue
		}
		v, err := parseNullFloat(rec[1])
		if err != nil {
			s.skip(ctx, path, i+2, err)
			continue
		}
		data.Points = append(data.Points, domain.ObservationPoint{Date: date, Value: v})
	}
	return data, nil
}

// Events implements CalendarSource. A missing calendar.csv yields no events.
func (s *CSVSource) Events(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	path := filepath.Join(s.dir, "calendar.csv")
	records, err := readCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WarnContext(ctx, "calendar file missing, calendar columns will be empty", slog.String("file", path))
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewSourceError("calendar", err)
	}

	var out []domain.CalendarEvent
	for i, rec := range records {
		e, err := parseEventRecord(rec)
		if err != nil {
			s.skip(ctx, path, i+2, err)
			continue
		}
		if inRange(e.EventDate, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *CSVSource) skip(ctx context.Context, path string, line int, err error) {
	s.logger.WarnContext(ctx, "failed to parse CSV record",
		slog.String("file", filepath.Base(path)),
		slog.Int("line", line),
		slog.String("error", err.Error()),
	)
}

// readCSV returns the data records of a headed CSV file.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()
	return readRecords(file)
}

func readRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}
	return records[1:], nil
}

func parseBarRecord(rec []string, line int) (domain.Bar, error) {
	if len(rec) < 5 {
		return domain.Bar{}, fmt.Errorf("expected at least 5 columns, got %d", len(rec))
	}
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return domain.Bar{}, err
	}
	var vals [5]float64
	names := [5]string{"open", "high", "low", "close", "volume"}
	for k := 0; k < 5; k++ {
		if k+1 >= len(rec) || strings.TrimSpace(rec[k+1]) == "" {
			if k == 4 {
				break // volume is optional
			}
			return domain.Bar{}, fmt.Errorf("empty %s (line %d)", names[k], line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[k+1]), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse %s (line %d): %w", names[k], line, err)
		}
		vals[k] = v
	}
	bar := domain.Bar{Timestamp: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}
	if !bar.IsValid() {
		return domain.Bar{}, fmt.Errorf("invalid bar at %s (line %d)", ts.Format(time.RFC3339), line)
	}
	return bar, nil
}

func parseEventRecord(rec []string) (domain.CalendarEvent, error) {
	if len(rec) < 4 {
		return domain.CalendarEvent{}, fmt.Errorf("expected at least 4 columns, got %d", len(rec))
	}
	date, err := parseDate(rec[0])
	if err != nil {
		return domain.CalendarEvent{}, err
	}
	impact, err := domain.ParseImpact(rec[2])
	if err != nil {
		return domain.CalendarEvent{}, err
	}
	e := domain.CalendarEvent{
		EventDate: date,
		EventTime: strings.TrimSpace(rec[1]),
		Impact:    impact,
		Name:      strings.TrimSpace(rec[3]),
	}
	if e.Name == "" {
		return domain.CalendarEvent{}, fmt.Errorf("empty event name")
	}
	for k, dst := range []*sql.NullFloat64{&e.Actual, &e.Forecast, &e.Previous} {
		if 4+k >= len(rec) {
			break
		}
		v, err := parseNullFloat(rec[4+k])
		if err != nil {
			return domain.CalendarEvent{}, err
		}
		*dst = v
	}
	return e, nil
}

// parseDate attempts the date layouts vendors commonly export.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02",
		"01/02/2006",
		"2006/01/02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"Jan 2, 2006",
	} {
		if d, err := time.Parse(layout, s); err == nil {
			y, m, day := d.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// parseTimestamp accepts RFC 3339, "2006-01-02 15:04:05" in UTC, and Unix
// seconds or milliseconds.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

func parseNullFloat(s string) (sql.NullFloat64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return sql.NullFloat64{}, nil
	}
	s = strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("parse value %q: %w", s, err)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

// orderBars sorts by timestamp and keeps the last bar of any duplicate.
func orderBars(bars []domain.Bar) []domain.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(b.Timestamp) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
