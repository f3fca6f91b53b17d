package providers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
	"fusioncli/pkg/contracts/domain"
)

// parquetBar is the on-disk bar row, timestamps in Unix milliseconds.
type parquetBar struct {
	Timestamp int64   `parquet:"t"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    float64 `parquet:"v"`
}

// ParquetBarSource reads bars/<CODE>.parquet under a directory.
type ParquetBarSource struct {
	dir string
}

// NewParquetBarSource creates a Parquet bar source rooted at dir.
func NewParquetBarSource(dir string) *ParquetBarSource {
	return &ParquetBarSource{dir: dir}
}

// Bars implements BarSource. Invalid bars are dropped.
func (s *ParquetBarSource) Bars(_ context.Context, in matrix.Instrument) (domain.BarSeries, error) {
	rows, err := parquet.ReadFile[parquetBar](s.path(in))
	if err != nil {
		return domain.BarSeries{}, apperrors.NewSourceError("bars "+in.Code(), err)
	}

	bars := make([]domain.Bar, 0, len(rows))
	for _, r := range rows {
		b := domain.Bar{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
		if b.IsValid() {
			bars = append(bars, b)
		}
	}
	return domain.BarSeries{Instrument: in.Code(), Bars: orderBars(bars)}, nil
}

func (s *ParquetBarSource) path(in matrix.Instrument) string {
	return filepath.Join(s.dir, "bars", in.Code()+".parquet")
}

// WriteParquetBars stores bars in the layout ParquetBarSource reads.
func WriteParquetBars(dir string, in matrix.Instrument, bars []domain.Bar) error {
	rows := make([]parquetBar, len(bars))
	for i, b := range bars {
		rows[i] = parquetBar{
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	path := filepath.Join(dir, "bars", in.Code()+".parquet")
	if err := mkdirFor(path); err != nil {
		return err
	}
	return parquet.WriteFile(path, rows)
}
