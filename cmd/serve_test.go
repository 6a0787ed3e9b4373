package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemetric/valuation-cli/internal/cities"
	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
	"github.com/homemetric/valuation-cli/internal/monitoring"
	"github.com/homemetric/valuation-cli/internal/store"
	"github.com/homemetric/valuation-cli/internal/valuation"
)

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()

	engine, err := valuation.New(
		config.ValuationConfig{VarianceFraction: 0.12, CrimeDamping: 0.05, BaseConfidence: 85, ConfidenceJitter: 5},
		config.MarketConfig{},
		config.RecommendConfig{StrongBuyMax: -10, GoodValueMax: -5, FairMax: 5, OverpricedMax: 15},
		valuation.DefaultArtifact(),
		valuation.WithSeed(42),
	)
	require.NoError(t, err)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "valuations.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	runtime := monitoring.NewRuntime()
	resolver := cities.NewResolver(cities.DefaultTable(), nil, 0)
	resolver.OnEnrich(runtime.RecordEnrichment)

	return &appEnv{
		engine:   engine,
		resolver: resolver,
		store:    st,
		runtime:  runtime,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ensemble", body["method"])
}

func TestCreateValuation(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	rec := doRequest(t, router, http.MethodPost, "/api/valuations", `{"city":"Pune"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record model.ValuationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Pune", record.City)
	assert.InDelta(t, 5_176_380, record.Result.Prediction.PointEstimate, 1)
	assert.Equal(t, "ensemble", record.Result.Prediction.Method)
	assert.NotEmpty(t, record.Result.Market.Recommendation)
}

func TestCreateValuationBadJSON(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doRequest(t, router, http.MethodPost, "/api/valuations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateValuationValidationError(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doRequest(t, router, http.MethodPost, "/api/valuations", `{"area":-10,"city":"Pune"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "area")
}

func TestGetValuation(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	created := doRequest(t, router, http.MethodPost, "/api/valuations", `{"city":"Mumbai"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	var record model.ValuationRecord
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &record))

	rec := doRequest(t, router, http.MethodGet, "/api/valuations/"+record.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched model.ValuationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, record.ID, fetched.ID)
	assert.Equal(t, "Mumbai", fetched.City)
}

func TestGetValuationNotFound(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doRequest(t, router, http.MethodGet, "/api/valuations/no-such-id", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListValuations(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	for _, city := range []string{"Pune", "Pune", "Mumbai"} {
		rec := doRequest(t, router, http.MethodPost, "/api/valuations", `{"city":"`+city+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/valuations?city=Pune", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Valuations []model.ValuationRecord `json:"valuations"`
		Count      int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	for _, r := range body.Valuations {
		assert.Equal(t, "Pune", r.City)
	}
}

func TestListCities(t *testing.T) {
	router := newRouter(newTestEnv(t))

	rec := doRequest(t, router, http.MethodGet, "/api/cities", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Cities []model.CityProfile `json:"cities"`
		Count  int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Greater(t, body.Count, 50)
	assert.Equal(t, len(body.Cities), body.Count)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	router := newRouter(env)

	created := doRequest(t, router, http.MethodPost, "/api/valuations", `{"city":"Pune"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := doRequest(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap monitoring.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, int64(1), snap.Served)
	assert.Equal(t, int64(0), snap.Fallbacks)
	assert.Greater(t, snap.AvgConfidence, 0.0)
}
