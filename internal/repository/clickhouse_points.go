package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	pkgch "TrendPull/pkg/clickhouse"
	applogger "TrendPull/pkg/logger"
)

const insertChunkSize = 2000

// CHPointStore implements PointStore backed by ClickHouse. Every run adds
// one row per aligned point, so the table doubles as an audit trail of how
// the index changed between runs.
type CHPointStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

var _ domrepo.PointStore = (*CHPointStore)(nil)

// NewCHPointStore creates the store on an open client.
func NewCHPointStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHPointStore {
	return &CHPointStore{client: ch, db: ch.DB(), table: table, l: l}
}

// Init creates the table when missing.
func (s *CHPointStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{createTableSQL(s.table)})
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            run_at         DateTime('UTC'),
            horizon        LowCardinality(String),
            date           Date,
            price          Float64,
            trend_index    Float64,
            match_distance Int32,
            matched        UInt8,
            keywords       Array(String)
        )
        ENGINE = MergeTree
        ORDER BY (horizon, date, run_at)
    `, table)
}

func (s *CHPointStore) StoreRun(ctx context.Context, run models.HorizonRun) error {
	for start := 0; start < run.Result.Len(); start += insertChunkSize {
		end := start + insertChunkSize
		if end > run.Result.Len() {
			end = run.Result.Len()
		}

		q, args := buildInsert(s.table, run, run.Result.Points[start:end])
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert error",
				applogger.String("table", s.table),
				applogger.String("horizon", run.Horizon),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("insert aligned points: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *CHPointStore) Close() error {
	return s.client.Close()
}

func buildInsert(table string, run models.HorizonRun, points []models.AlignedPoint) (string, []interface{}) {
	values := make([]string, 0, len(points))
	args := make([]interface{}, 0, len(points)*8)
	for _, p := range points {
		matched := uint8(0)
		if p.Matched {
			matched = 1
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			run.RunAt.UTC(),
			run.Horizon,
			p.Date.Time(),
			p.Price,
			p.Score,
			int32(p.Distance),
			matched,
			run.Keywords,
		)
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (run_at, horizon, date, price, trend_index, match_distance, matched, keywords) VALUES %s",
		table, strings.Join(values, ","),
	)
	return q, args
}
