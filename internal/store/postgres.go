package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/db"
	"github.com/homemetric/valuation-cli/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS valuations (
	id             TEXT PRIMARY KEY,
	city           TEXT NOT NULL,
	verdict        TEXT NOT NULL,
	point_estimate DOUBLE PRECISION NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	result         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_valuations_city ON valuations(city);
CREATE INDEX IF NOT EXISTS idx_valuations_verdict ON valuations(verdict);
CREATE INDEX IF NOT EXISTS idx_valuations_created_at ON valuations(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveValuation(ctx context.Context, result model.ValuationResult) (*model.ValuationRecord, error) {
	record := newRecord(result)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO valuations (id, city, verdict, point_estimate, confidence, result, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.City, string(record.Verdict),
		result.Prediction.PointEstimate, result.Prediction.Confidence,
		resultJSON, record.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert valuation")
	}
	return &record, nil
}

// SaveValuations bulk-inserts a batch via COPY.
func (s *PostgresStore) SaveValuations(ctx context.Context, results []model.ValuationResult) ([]model.ValuationRecord, error) {
	records := make([]model.ValuationRecord, 0, len(results))
	rows := make([][]any, 0, len(results))
	for _, result := range results {
		record := newRecord(result)
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal result")
		}
		records = append(records, record)
		rows = append(rows, []any{
			record.ID, record.City, string(record.Verdict),
			result.Prediction.PointEstimate, result.Prediction.Confidence,
			resultJSON, record.CreatedAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "valuations",
		[]string{"id", "city", "verdict", "point_estimate", "confidence", "result", "created_at"}, rows)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, city, verdict, result, created_at FROM valuations WHERE id = $1`, id)

	var record model.ValuationRecord
	var resultJSON []byte
	if err := row.Scan(&record.ID, &record.City, &record.Verdict, &resultJSON, &record.CreatedAt); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "id %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get valuation %s", id)
	}
	if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal valuation %s", id)
	}
	return &record, nil
}

func (s *PostgresStore) ListValuations(ctx context.Context, filter Filter) ([]model.ValuationRecord, error) {
	query := `SELECT id, city, verdict, result, created_at FROM valuations WHERE 1=1`
	var args []any

	if filter.City != "" {
		args = append(args, filter.City)
		query += ` AND city = $` + strconv.Itoa(len(args))
	}
	if filter.Verdict != "" {
		args = append(args, string(filter.Verdict))
		query += ` AND verdict = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list valuations")
	}
	defer rows.Close()

	var records []model.ValuationRecord
	for rows.Next() {
		var record model.ValuationRecord
		var resultJSON []byte
		if err := rows.Scan(&record.ID, &record.City, &record.Verdict, &resultJSON, &record.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan valuation")
		}
		if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal valuation")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByVerdict: make(map[string]int)}

	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0), COALESCE(AVG(point_estimate), 0) FROM valuations`)
	if err := row.Scan(&stats.Total, &stats.AvgConfidence, &stats.AvgPointEstimate); err != nil {
		return nil, eris.Wrap(err, "postgres: stats totals")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT verdict, COUNT(*) FROM valuations GROUP BY verdict`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats verdicts")
	}
	defer rows.Close()

	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verdict count")
		}
		stats.ByVerdict[verdict] = count
	}
	return stats, rows.Err()
}
