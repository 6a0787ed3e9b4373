package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemetric/valuation-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresSaveValuation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO valuations`)).
		WithArgs(pgxmock.AnyArg(), "Pune", "fair", 5_176_380.0, 86.2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	record, err := s.SaveValuation(context.Background(), sampleResult("Pune", model.VerdictFair))
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Pune", record.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveValuationsBatchUsesCopy(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"valuations"},
		[]string{"id", "city", "verdict", "point_estimate", "confidence", "result", "created_at"}).
		WillReturnResult(2)

	records, err := s.SaveValuations(context.Background(), []model.ValuationResult{
		sampleResult("Pune", model.VerdictFair),
		sampleResult("Kochi", model.VerdictGoodValue),
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetValuation(t *testing.T) {
	s, mock := newMockStore(t)

	result := sampleResult("Pune", model.VerdictFair)
	resultJSON, err := json.Marshal(result)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, city, verdict, result, created_at FROM valuations WHERE id = $1`)).
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows([]string{"id", "city", "verdict", "result", "created_at"}).
			AddRow("abc", "Pune", model.VerdictFair, resultJSON, time.Now().UTC()))

	record, err := s.GetValuation(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", record.ID)
	assert.Equal(t, model.VerdictFair, record.Verdict)
	assert.InDelta(t, 5_176_380, record.Result.Prediction.PointEstimate, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetValuationNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, city, verdict, result, created_at FROM valuations WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetValuation(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListValuationsFiltered(t *testing.T) {
	s, mock := newMockStore(t)

	result := sampleResult("Pune", model.VerdictFair)
	resultJSON, err := json.Marshal(result)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`AND city = $1 ORDER BY created_at DESC LIMIT $2`)).
		WithArgs("Pune", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "city", "verdict", "result", "created_at"}).
			AddRow("abc", "Pune", model.VerdictFair, resultJSON, time.Now().UTC()))

	records, err := s.ListValuations(context.Background(), Filter{City: "Pune", Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Pune", records[0].City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStats(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*), COALESCE(AVG(confidence), 0), COALESCE(AVG(point_estimate), 0) FROM valuations`)).
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg_confidence", "avg_point_estimate"}).
			AddRow(3, 85.5, 5_000_000.0))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT verdict, COUNT(*) FROM valuations GROUP BY verdict`)).
		WillReturnRows(pgxmock.NewRows([]string{"verdict", "count"}).
			AddRow("fair", 2).
			AddRow("avoid", 1))

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.InDelta(t, 85.5, stats.AvgConfidence, 0.001)
	assert.Equal(t, 2, stats.ByVerdict["fair"])
	assert.Equal(t, 1, stats.ByVerdict["avoid"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS valuations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
