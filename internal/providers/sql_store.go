package providers

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/time/rate"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
	"fusioncli/pkg/contracts/domain"
)

// Supported SQL drivers.
const (
	DriverPostgres   = "postgres"
	DriverClickHouse = "clickhouse"
)

const calendarTable = "economic_calendar"

// SQLStore reads all three categories from a SQL database. Queries are paced
// by a token bucket so a large build does not flood the server.
type SQLStore struct {
	db      *sqlx.DB
	limiter *rate.Limiter
}

// OpenSQLStore connects with the given driver and DSN.
func OpenSQLStore(ctx context.Context, driver, dsn string, qps float64) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverClickHouse {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("unsupported SQL driver %q", driver), nil)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, apperrors.NewSourceError(driver, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewSourceError(driver, fmt.Errorf("ping: %w", err))
	}
	return NewSQLStore(db, qps), nil
}

// NewSQLStore wraps an open handle. qps <= 0 disables pacing.
func NewSQLStore(db *sqlx.DB, qps float64) *SQLStore {
	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}
	return &SQLStore{db: db, limiter: rate.NewLimiter(limit, 1)}
}

// Close releases the connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) query(ctx context.Context, dest interface{}, q string, args ...interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), args...)
}

// Bars implements BarSource.
func (s *SQLStore) Bars(ctx context.Context, in matrix.Instrument) (domain.BarSeries, error) {
	q := "SELECT ts, open, high, low, close, volume FROM " + in.Table() + " WHERE instrument = ? ORDER BY ts"
	var bars []domain.Bar
	if err := s.query(ctx, &bars, q, in.Code()); err != nil {
		return domain.BarSeries{}, apperrors.NewSourceError("bars "+in.Code(), err)
	}
	for i := range bars {
		bars[i].Timestamp = bars[i].Timestamp.UTC()
	}
	return domain.BarSeries{Instrument: in.Code(), Bars: bars}, nil
}

// Observations implements ObservationSource.
func (s *SQLStore) Observations(ctx context.Context, ms matrix.MacroSeries) (domain.MacroSeriesData, error) {
	q := "SELECT date, value FROM " + ms.Table() + " WHERE series_id = ? ORDER BY date"
	var pts []domain.ObservationPoint
	if err := s.query(ctx, &pts, q, ms.ID()); err != nil {
		return domain.MacroSeriesData{}, apperrors.NewSourceError("macro "+ms.ID(), err)
	}
	return domain.MacroSeriesData{Meta: ms.Meta(), Points: pts}, nil
}

// Events implements CalendarSource.
func (s *SQLStore) Events(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	if from.IsZero() {
		from = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	q := "SELECT event_date, event_time, impact, name, actual, forecast, previous FROM " + calendarTable +
		" WHERE event_date BETWEEN ? AND ? ORDER BY event_date, event_time"
	var events []domain.CalendarEvent
	if err := s.query(ctx, &events, q, from, to); err != nil {
		return nil, apperrors.NewSourceError("calendar", err)
	}
	out := events[:0]
	for _, e := range events {
		impact, err := domain.ParseImpact(string(e.Impact))
		if err != nil {
			continue
		}
		e.Impact = impact
		out = append(out, e)
	}
	return out, nil
}
