package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/seismic-data-etl/internal/adapter/http"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockIngester struct {
	res   pipeline.IngestResult
	err   error
	limit int
}

func (m *mockIngester) Ingest(_ context.Context, maxRecords int) (pipeline.IngestResult, error) {
	m.limit = maxRecords
	return m.res, m.err
}

type mockLister struct {
	res   pipeline.ListResult
	err   error
	limit int
}

func (m *mockLister) List(_ context.Context, topN int) (pipeline.ListResult, error) {
	m.limit = topN
	return m.res, m.err
}

func newTestServer(ing *mockIngester, lst *mockLister, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", ing, lst, httpadapter.Limits{}, &mockReadiness{err: readyErr}, slog.Default())
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleEvent() domain.SeismicEvent {
	fe := int64(1700000000000)
	lat := decimal.RequireFromString("-12.34")
	return domain.SeismicEvent{Code: "2024-0001", FechaEvento: &fe, Lat: &lat, IngresadoTS: 1700000001000, Source: domain.DefaultSource}
}

func TestIngestReturnsRecords(t *testing.T) {
	ing := &mockIngester{res: pipeline.IngestResult{IngestedCount: 1, Items: []domain.SeismicEvent{sampleEvent()}}}
	rec := get(t, newTestServer(ing, &mockLister{}, nil), "/igp/sismos/ingestar?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 5, ing.limit)

	var body struct {
		Ingresados int              `json:"ingresados"`
		Items      []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Ingresados)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "2024-0001", body.Items[0]["code"])
	assert.Equal(t, "-12.34", body.Items[0]["lat"])
}

func TestIngestDefaultLimit(t *testing.T) {
	ing := &mockIngester{res: pipeline.IngestResult{Items: []domain.SeismicEvent{}}}
	rec := get(t, newTestServer(ing, &mockLister{}, nil), "/igp/sismos/ingestar")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, ing.limit)
	assert.JSONEq(t, `{"ingresados":0,"items":[]}`, rec.Body.String())
}

func TestConfiguredDefaultLimits(t *testing.T) {
	ing := &mockIngester{}
	lst := &mockLister{}
	srv := httpadapter.NewServer(":0", ing, lst, httpadapter.Limits{Ingest: 25, List: 4}, &mockReadiness{}, slog.Default())

	get(t, srv, "/igp/sismos/ingestar?limit=2")
	assert.Equal(t, 2, ing.limit)

	get(t, srv, "/igp/sismos/ingestar")
	get(t, srv, "/igp/sismos/listar")
	assert.Equal(t, 25, ing.limit)
	assert.Equal(t, 4, lst.limit)
}

func TestListReturnsRecords(t *testing.T) {
	lst := &mockLister{res: pipeline.ListResult{Count: 1, Items: []domain.SeismicEvent{sampleEvent()}}}
	rec := get(t, newTestServer(&mockIngester{}, lst, nil), "/igp/sismos/listar?limit=3")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, lst.limit)

	var body struct {
		Count int              `json:"count"`
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "2024-0001", body.Items[0]["code"])
}

func TestInvalidLimit(t *testing.T) {
	tests := []string{"abc", "0", "-1", "1001", "2.5"}
	for _, limit := range tests {
		t.Run(limit, func(t *testing.T) {
			ing := &mockIngester{}
			rec := get(t, newTestServer(ing, &mockLister{}, nil), "/igp/sismos/listar?limit="+limit)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], "limit")
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"fetch", &domain.FetchError{Err: errors.New("refused")}, http.StatusBadGateway, domain.KindFetch},
		{"fetch timeout", &domain.FetchError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, domain.KindFetch},
		{"write", &domain.WriteError{FailedKeys: []string{"A", "C"}, Err: errors.New("unprocessed")}, http.StatusBadGateway, domain.KindWrite},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &mockIngester{err: tt.err}
			rec := get(t, newTestServer(ing, &mockLister{}, nil), "/igp/sismos/ingestar")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["error"])
			if tt.kind == "" {
				assert.NotContains(t, body, "kind")
			} else {
				assert.Equal(t, tt.kind, body["kind"])
			}
		})
	}
}

func TestWriteErrorIncludesFailedKeys(t *testing.T) {
	ing := &mockIngester{err: &domain.WriteError{FailedKeys: []string{"A", "C"}, Err: errors.New("unprocessed")}}
	rec := get(t, newTestServer(ing, &mockLister{}, nil), "/igp/sismos/ingestar")

	var body struct {
		FailedKeys []string `json:"failed_keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"A", "C"}, body.FailedKeys)
}

func TestListScanErrorReturns503(t *testing.T) {
	lst := &mockLister{err: &domain.ScanError{Err: errors.New("throttled")}}
	rec := get(t, newTestServer(&mockIngester{}, lst, nil), "/igp/sismos/listar")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.KindScan, body["kind"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&mockIngester{}, &mockLister{}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/igp/sismos/listar", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockIngester{}, &mockLister{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockIngester{}, &mockLister{}, nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockIngester{}, &mockLister{}, fmt.Errorf("table not found")), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockIngester{}, &mockLister{}, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
