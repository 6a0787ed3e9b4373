package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/homemetric/valuation-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS valuations (
	id             TEXT PRIMARY KEY,
	city           TEXT NOT NULL,
	verdict        TEXT NOT NULL,
	point_estimate REAL NOT NULL,
	confidence     REAL NOT NULL,
	result         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_valuations_city ON valuations(city);
CREATE INDEX IF NOT EXISTS idx_valuations_verdict ON valuations(verdict);
CREATE INDEX IF NOT EXISTS idx_valuations_created_at ON valuations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveValuation(ctx context.Context, result model.ValuationResult) (*model.ValuationRecord, error) {
	record := newRecord(result)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO valuations (id, city, verdict, point_estimate, confidence, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.City, string(record.Verdict),
		result.Prediction.PointEstimate, result.Prediction.Confidence,
		string(resultJSON), record.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert valuation")
	}
	return &record, nil
}

func (s *SQLiteStore) SaveValuations(ctx context.Context, results []model.ValuationResult) ([]model.ValuationRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	records := make([]model.ValuationRecord, 0, len(results))
	for _, result := range results {
		record := newRecord(result)
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal result")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO valuations (id, city, verdict, point_estimate, confidence, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.City, string(record.Verdict),
			result.Prediction.PointEstimate, result.Prediction.Confidence,
			string(resultJSON), record.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: insert valuation")
		}
		records = append(records, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return records, nil
}

func (s *SQLiteStore) GetValuation(ctx context.Context, id string) (*model.ValuationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, verdict, result, created_at FROM valuations WHERE id = ?`, id)

	var record model.ValuationRecord
	var resultJSON string
	if err := row.Scan(&record.ID, &record.City, &record.Verdict, &resultJSON, &record.CreatedAt); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "id %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get valuation %s", id)
	}
	if err := json.Unmarshal([]byte(resultJSON), &record.Result); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal valuation %s", id)
	}
	return &record, nil
}

func (s *SQLiteStore) ListValuations(ctx context.Context, filter Filter) ([]model.ValuationRecord, error) {
	query := `SELECT id, city, verdict, result, created_at FROM valuations WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Verdict != "" {
		query += ` AND verdict = ?`
		args = append(args, string(filter.Verdict))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list valuations")
	}
	defer rows.Close()

	var records []model.ValuationRecord
	for rows.Next() {
		var record model.ValuationRecord
		var resultJSON string
		if err := rows.Scan(&record.ID, &record.City, &record.Verdict, &resultJSON, &record.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan valuation")
		}
		if err := json.Unmarshal([]byte(resultJSON), &record.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal valuation")
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByVerdict: make(map[string]int)}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0), COALESCE(AVG(point_estimate), 0) FROM valuations`)
	if err := row.Scan(&stats.Total, &stats.AvgConfidence, &stats.AvgPointEstimate); err != nil {
		return nil, eris.Wrap(err, "sqlite: stats totals")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT verdict, COUNT(*) FROM valuations GROUP BY verdict`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats verdicts")
	}
	defer rows.Close()

	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verdict count")
		}
		stats.ByVerdict[verdict] = count
	}
	return stats, rows.Err()
}

func newRecord(result model.ValuationResult) model.ValuationRecord {
	return model.ValuationRecord{
		ID:        uuid.New().String(),
		City:      result.CityProfile.City,
		Verdict:   result.Market.Recommendation,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
}
