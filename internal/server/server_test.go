package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	graphpkg "github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolution"
	"github.com/Ramsey-B/fern/pkg/routes/entities"
	"github.com/Ramsey-B/fern/pkg/routes/graph"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/resolutions"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type recordingWriter struct {
	mu      sync.Mutex
	single  []models.GraphMutation
	batches [][]models.GraphMutation
	err     error
}

func (w *recordingWriter) Write(_ context.Context, m models.GraphMutation) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.single = append(w.single, m)
	return w.err
}

func (w *recordingWriter) WriteBatch(_ context.Context, ms []models.GraphMutation) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, ms)
	return w.err
}

// byTmpID resolves every mention to store id tmpId*10
var byTmpID = resolution.DisambiguatorFunc(func(_ context.Context, rc models.ResolutionContext) ([]models.ResolvedPair, error) {
	if rc.Current.Name == "" {
		return nil, nil
	}
	return []models.ResolvedPair{{
		Mention: rc.Current,
		Entity: models.CanonicalEntity{
			ID:       rc.Current.TmpID * 10,
			Name:     rc.Current.Name,
			Type:     rc.Current.Type,
			TenantID: rc.TenantID,
		},
	}}, nil
})

type fakeEntities struct{ entity *models.CanonicalEntity }

func (f fakeEntities) Get(_ context.Context, tenantID, entityType string, id int64) (*models.CanonicalEntity, error) {
	if f.entity == nil || f.entity.ID != id {
		return nil, nil
	}
	return f.entity, nil
}

type fakeRelationships struct {
	gotDirection string
	gotTenant    string
}

func (f *fakeRelationships) GetRelationships(_ context.Context, tenantID, _ string, _ int64, direction string) ([]graphpkg.Relationship, error) {
	f.gotDirection = direction
	f.gotTenant = tenantID
	return nil, nil
}

type fakeLister struct {
	gotPage, gotPageSize int
}

func (f *fakeLister) ListByIngestion(_ context.Context, tenantID, ingestionID string, page, pageSize int) (*models.ResolutionRecordList, error) {
	f.gotPage, f.gotPageSize = page, pageSize
	return &models.ResolutionRecordList{
		Items:    []models.ResolutionRecord{{TenantID: tenantID, IngestionID: ingestionID, TmpID: 10, EntityID: 100}},
		Total:    1,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

type testServer struct {
	e             *echo.Echo
	writer        *recordingWriter
	relationships *fakeRelationships
	lister        *fakeLister
	checker       *health.Checker
}

func newTestServer(t *testing.T, gateway resolution.Disambiguator) *testServer {
	t.Helper()
	logger := testLogger()
	ts := &testServer{
		writer:        &recordingWriter{},
		relationships: &fakeRelationships{},
		lister:        &fakeLister{},
		checker:       health.NewChecker("test"),
	}
	svc := resolution.NewService(
		resolution.NewCollector(gateway, resolution.CollectorConfig{}, logger),
		resolution.NewExecutor(ts.writer, logger),
		logger,
	)
	ts.e = New(Options{
		Entities:    entities.NewHandler(svc),
		Graph:       graph.NewHandler(fakeEntities{entity: &models.CanonicalEntity{ID: 100, Name: "Acme", Type: "Company"}}, ts.relationships),
		Resolutions: resolutions.NewHandler(ts.lister),
		Health:      ts.checker,
	}, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderTenantID, "tenant-1")
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetOrAddEntities(t *testing.T) {
	t.Run("links declared relations and correlates mentions", func(t *testing.T) {
		ts := newTestServer(t, byTmpID)

		rec := ts.do(t, http.MethodPost, "/api/v1/get-or-add-entities", map[string]any{
			"content":     "Ann works for Acme",
			"ingestionId": "ing-1",
			"entities": []map[string]any{
				{"tmpId": 1, "type": "Company", "name": "Acme"},
				{"tmpId": 2, "type": "Person", "name": "Ann", "relations": []map[string]any{{"name": "WORKS_FOR", "to": 1}}},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

		var resp models.ResponseList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Response, 2)
		assert.Equal(t, int64(1), resp.Response[0].TmpID)
		assert.Equal(t, int64(20), resp.Response[1].Entity.ID)
		assert.Equal(t, "tenant-1", resp.Response[1].Entity.TenantID)

		require.Len(t, ts.writer.single, 1)
		assert.Equal(t, models.GraphMutation{SourceID: 20, SourceType: "Person", TargetID: 10, TargetType: "Company", Relation: "WORKS_FOR"}, ts.writer.single[0])
		assert.Empty(t, ts.writer.batches)
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		ts := newTestServer(t, byTmpID)

		rec := ts.do(t, http.MethodPost, "/api/v1/get-or-add-entities", map[string]any{"entities": []any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeError(t, rec).RequestID)
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, byTmpID)

		rec := ts.do(t, http.MethodPost, "/api/v1/get-or-add-entities", "not an object")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("gateway failure fails the batch", func(t *testing.T) {
		ts := newTestServer(t, resolution.DisambiguatorFunc(func(context.Context, models.ResolutionContext) ([]models.ResolvedPair, error) {
			return nil, errors.New("gateway down")
		}))

		rec := ts.do(t, http.MethodPost, "/api/v1/get-or-add-entities", map[string]any{
			"entities": []map[string]any{{"tmpId": 7, "type": "Company", "name": "Acme"}},
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "7")
		assert.Empty(t, ts.writer.single)
	})

	t.Run("commit failure fails the batch", func(t *testing.T) {
		ts := newTestServer(t, byTmpID)
		ts.writer.err = errors.New("bolt connection reset")

		rec := ts.do(t, http.MethodPost, "/api/v1/get-or-add-entities", map[string]any{
			"entities": []map[string]any{
				{"tmpId": 1, "type": "Company", "name": "Acme"},
				{"tmpId": 2, "type": "Person", "name": "Ann", "relations": []map[string]any{{"name": "WORKS_FOR", "to": 1}}},
			},
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestGraphRoutes(t *testing.T) {
	ts := newTestServer(t, byTmpID)

	t.Run("entity", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/graph/entities/Company/100", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name":"Acme"`)
	})

	t.Run("missing entity", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/graph/entities/Company/5", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/graph/entities/Company/abc/relationships", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("relationships default to both directions", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/graph/entities/Company/100/relationships", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		assert.Equal(t, graphpkg.DirectionBoth, ts.relationships.gotDirection)
		assert.Equal(t, "tenant-1", ts.relationships.gotTenant)
	})

	t.Run("invalid direction", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/graph/entities/Company/100/relationships?direction=sideways", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResolutionRoutes(t *testing.T) {
	ts := newTestServer(t, byTmpID)

	rec := ts.do(t, http.MethodGet, "/api/v1/ingestions/ing-1/resolutions?page=2&page_size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list models.ResolutionRecordList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "ing-1", list.Items[0].IngestionID)
	assert.Equal(t, "tenant-1", list.Items[0].TenantID)
	assert.Equal(t, 2, ts.lister.gotPage)
	assert.Equal(t, 10, ts.lister.gotPageSize)

	rec = ts.do(t, http.MethodGet, "/api/v1/ingestions/ing-1/resolutions?page=first", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthRoutes(t *testing.T) {
	ts := newTestServer(t, byTmpID)
	ts.checker.AddCheck("graph", func(context.Context) error { return nil })

	rec := ts.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"graph":{"status":"healthy"`)

	rec = ts.do(t, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ts.checker.SetReady(true)
	rec = ts.do(t, http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.checker.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	rec = ts.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsRoute(t *testing.T) {
	ts := newTestServer(t, byTmpID)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fern_")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, byTmpID)

	rec := ts.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec).RequestID)
}
