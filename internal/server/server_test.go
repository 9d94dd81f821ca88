package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/novelsearch/internal/opensearch"
	"github.com/ca-srg/novelsearch/internal/search"
	"github.com/ca-srg/novelsearch/internal/types"
)

type stubEngine struct {
	result *opensearch.FacetedSearchResult
	err    error
}

func (s *stubEngine) FacetedSearch(ctx context.Context, indexName string, body map[string]interface{}) (*opensearch.FacetedSearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubHealth struct {
	err error
}

func (s *stubHealth) HealthCheck(ctx context.Context) error {
	return s.err
}

func newTestServer(engine search.Engine, health HealthChecker) *Server {
	cfg := &types.Config{ServerAddr: ":0"}
	service := search.NewService(engine, "smart-novel")
	return New(cfg, service, health)
}

func fixtureResult(t *testing.T, n int) *opensearch.FacetedSearchResult {
	t.Helper()
	result := &opensearch.FacetedSearchResult{Total: n}
	for i := 0; i < n; i++ {
		raw, err := json.Marshal(map[string]interface{}{
			"title":        fmt.Sprintf("novel %d", i),
			"author":       "author",
			"url":          fmt.Sprintf("https://novels.example.com/%d", i),
			"site_name":    "novels.example.com",
			"genre":        "fantasy",
			"updated_time": int64(1700000000000),
			"tag":          []string{"dragon"},
		})
		require.NoError(t, err)
		result.Hits = append(result.Hits, opensearch.FacetedSearchHit{
			ID:     fmt.Sprintf("doc-%d", i),
			Source: raw,
		})
	}
	return result
}

func TestHandleSearchSuccess(t *testing.T) {
	srv := newTestServer(&stubEngine{result: fixtureResult(t, 2)}, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"search_text":"dragon"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp search.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 2, resp.Total)
}

func TestHandleSearchValidationError(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"limit":0}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "Validation error")
	assert.Contains(t, body["message"], "limit")
}

func TestHandleSearchConnectionError(t *testing.T) {
	engine := &stubEngine{err: opensearch.NewSearchError(types.ErrorTypeConnection, "connection to OpenSearch refused")}
	srv := newTestServer(engine, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Database connection error", body["message"])
}

func TestHandleSearchDataIntegrityError(t *testing.T) {
	result := fixtureResult(t, 1)
	// strip a required field from the stored document
	result.Hits[0].Source = json.RawMessage(`{"author":"a"}`)
	srv := newTestServer(&stubEngine{result: result}, &stubHealth{})

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Data error", body["message"])
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&stubEngine{result: fixtureResult(t, 0)}, &stubHealth{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHealthUnavailable(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubHealth{err: fmt.Errorf("cluster unreachable")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
