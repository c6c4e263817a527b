// Package stats computes summary statistics of a decoded series using an in-memory DuckDB.
package stats

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
)

// ErrNoValues is returned when a series has no finite values to summarize.
var ErrNoValues = errors.New("no finite values to summarize")

// Summarizer computes aggregate statistics for a series.
type Summarizer interface {
	Summarize(ctx context.Context, samples []models.Sample) (*models.SeriesSummary, error)
}

// DuckSummarizer loads samples into a throwaway in-memory DuckDB database per call.
// Nothing is written to disk.
type DuckSummarizer struct {
	threads int
}

// NewDuckSummarizer creates a summarizer limited to the given DuckDB worker threads.
func NewDuckSummarizer(threads int) *DuckSummarizer {
	if threads <= 0 {
		threads = 1
	}
	return &DuckSummarizer{threads: threads}
}

// Summarize returns count, min, max, mean and the first/last timestamps of the finite samples.
// First/last follow sample order, not timestamp order. NaN and infinite values are skipped.
func (s *DuckSummarizer) Summarize(ctx context.Context, samples []models.Sample) (*models.SeriesSummary, error) {
	samples = Finite(samples)
	if len(samples) == 0 {
		return nil, ErrNoValues
	}

	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		_, err := execer.ExecContext(context.Background(), fmt.Sprintf("PRAGMA threads=%d", s.threads), nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}
	db := sql.OpenDB(connector)
	defer db.Close()

	// A single connection keeps the in-memory table visible to both appender and query.
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE samples (
			seq   INTEGER NOT NULL,
			ts    TIMESTAMP NOT NULL,
			value DOUBLE NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "samples")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, sample := range samples {
			if err := appender.AppendRow(int32(i), sample.Time.UTC(), sample.Value); err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return nil, fmt.Errorf("appender error: %w", err)
	}

	var (
		summary    models.SeriesSummary
		start, end time.Time
	)
	row := conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			MIN(value),
			MAX(value),
			AVG(value),
			arg_min(ts, seq),
			arg_max(ts, seq)
		FROM samples
	`)
	if err := row.Scan(&summary.Count, &summary.Min, &summary.Max, &summary.Mean, &start, &end); err != nil {
		return nil, fmt.Errorf("summary query failed: %w", err)
	}
	summary.Start = start.UTC()
	summary.End = end.UTC()

	return &summary, nil
}

// Finite returns the samples whose values are neither NaN nor infinite, in order.
func Finite(samples []models.Sample) []models.Sample {
	out := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0) {
			out = append(out, s)
		}
	}
	return out
}

var _ Summarizer = (*DuckSummarizer)(nil)
