package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/qmeta/internal/graph"
	"github.com/samcharles93/qmeta/internal/meta"
	"github.com/samcharles93/qmeta/internal/qaoa"
	"github.com/samcharles93/qmeta/internal/report"
)

func testReport(t *testing.T) *report.Report {
	t.Helper()
	g := graph.Graph{Nodes: 3, Edges: []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 0, V: 2}}}
	c, err := qaoa.New(g, 1)
	require.NoError(t, err)
	m, err := meta.NewModel(meta.DefaultConfig())
	require.NoError(t, err)
	opts := report.DefaultOptions()
	opts.LandscapePoints = 5
	opts.Shots = 16
	r, err := report.Build(context.Background(), m, c, opts)
	require.NoError(t, err)
	return r
}

func newTestEcho(store *ReportStore) *echo.Echo {
	e := echo.New()
	NewServer(store, nil).Register(e)
	return e
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestReportEndpoints(t *testing.T) {
	t.Parallel()

	store := NewReportStore()
	r := testReport(t)
	id, err := store.Add(r)
	require.NoError(t, err)
	e := newTestEcho(store)

	rec := doGet(t, e, "/api/reports")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Data []Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, id, list.Data[0].ID)
	assert.Equal(t, 3, list.Data[0].Nodes)
	assert.Equal(t, 2.0, list.Data[0].MaxCut)

	rec = doGet(t, e, "/api/reports/"+id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.Trajectory.Costs, got.Trajectory.Costs)

	rec = doGet(t, e, "/api/reports/"+id+"/plot.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestReportErrors(t *testing.T) {
	t.Parallel()
	e := newTestEcho(NewReportStore())

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/api/reports/not-a-uuid", http.StatusBadRequest, "invalid report id"},
		{"/api/reports/7d4c2f0e-2b8e-4a53-9c1a-0c6f3e7b9a10", http.StatusNotFound, "report not found"},
		{"/api/reports/7d4c2f0e-2b8e-4a53-9c1a-0c6f3e7b9a10/plot.svg", http.StatusNotFound, "not_found_error"},
	}
	for _, tc := range tests {
		rec := doGet(t, e, tc.path)
		assert.Equal(t, tc.status, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), tc.body, tc.path)
	}
}

func TestIndexAndHealth(t *testing.T) {
	t.Parallel()
	e := newTestEcho(nil)

	rec := doGet(t, e, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/reports")

	rec = doGet(t, e, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"reports":0`)
}

func TestStoreOrderingAndValidation(t *testing.T) {
	t.Parallel()
	store := NewReportStore()

	first := testReport(t)
	second := testReport(t)
	_, err := store.Add(first)
	require.NoError(t, err)
	_, err = store.Add(second)
	require.NoError(t, err)
	_, err = store.Add(first)
	require.NoError(t, err)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = store.Add(&report.Report{ID: "bogus"})
	assert.Error(t, err)
	_, err = store.Add(nil)
	assert.Error(t, err)

	blank := &report.Report{}
	id, err := store.Add(blank)
	require.NoError(t, err)
	assert.Equal(t, id, blank.ID)
	assert.Equal(t, 3, store.Len())
}

func TestPreload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := testReport(t)
	r.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Save(filepath.Join(dir, r.ID+".json")))

	store := NewReportStore()
	n, err := store.Preload(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, ok := store.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, r.MaxCut, got.MaxCut)

	n, err = store.Preload(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
