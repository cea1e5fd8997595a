package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-engine/internal/config"
	"github.com/sells-group/risk-engine/internal/model"
	"github.com/sells-group/risk-engine/internal/projector"
	"github.com/sells-group/risk-engine/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "risk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(t.Context()))

	engine := projector.New(config.DefaultScoringConfig(), 2)
	return newRouter(st, engine), st
}

func TestServe_Healthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_AnalyzeAndFetch(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{
		"event": {
			"id": "evt-serve-1",
			"type": "climatic",
			"subtype": "inondation",
			"title": "Crue de la Garonne",
			"geographic_scope": {"lat": 44.84, "lon": -0.58}
		},
		"graph": {
			"sites": [{
				"id": "site-bdx",
				"name": "Usine Bordeaux",
				"country": "France",
				"lat": 44.84,
				"lon": -0.58,
				"strategic_importance": "HIGH",
				"daily_revenue": 100000
			}],
			"suppliers": [],
			"relationships": []
		}
	}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, model.RiskLevelCritical, resp.Summary.OverallRiskLevel)
	require.Len(t, resp.Projections, 1)
	assert.True(t, resp.Projections[0].IsConcerned)

	// The analysis is persisted and retrievable by event id.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/evt-serve-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var analysis model.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "evt-serve-1", analysis.EventID)
	assert.Len(t, analysis.Projections, 1)
}

func TestServe_AnalyzeRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing event id", `{"event":{"type":"climatic"},"graph":{"sites":[{"id":"s1"}]}}`},
		{"unknown type", `{"event":{"id":"e1","type":"cosmic"},"graph":{"sites":[{"id":"s1"}]}}`},
		{"empty graph", `{"event":{"id":"e1","type":"climatic"},"graph":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServe_AnalysisNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyses/no-such-event", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no analysis")
}
