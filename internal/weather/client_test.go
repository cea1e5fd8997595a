package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-engine/internal/model"
)

const forecastJSON = `{
	"daily": {
		"time": ["2026-09-02", "2026-09-03", "2026-09-04"],
		"precipitation_sum": [60.0, 2.0, 12.0],
		"windspeed_10m_max": [95.0, 20.0, 40.0],
		"snowfall_sum": [0.0, 0.0, 0.0],
		"temperature_2m_max": [22.0, 24.0, 23.0],
		"temperature_2m_min": [12.0, 11.0, 10.0]
	}
}`

func floatPtr(v float64) *float64 { return &v }

func TestFetchRisk_DerivesAlertsFromForecast(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, ForecastDays: 16, RatePerSec: 1000})
	wr, err := c.FetchRisk(context.Background(), "site-1", 43.6047, 1.4442)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "latitude=43.6047")
	assert.Contains(t, gotQuery, "forecast_days=16")

	// Day 1 is a storm (wind 95 + rain 60), day 3 a low rain alert.
	assert.True(t, wr.HasRisk)
	assert.Equal(t, 2, wr.AlertsCount)
	assert.Equal(t, model.SeverityHigh, wr.MaxSeverity)
	assert.Equal(t, 1, wr.AlertsByType[string(AlertStorm)])
	assert.Equal(t, 1, wr.AlertsByType[string(AlertHeavyRain)])
}

func TestFetchRisk_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxRetries: 2, RatePerSec: 1000})
	_, err := c.FetchRisk(context.Background(), "site-1", 43.6, 1.44)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 502")
}

func TestFetchRisk_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxRetries: 3, RatePerSec: 1000})
	wr, err := c.FetchRisk(context.Background(), "site-1", 43.6, 1.44)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, wr.HasRisk)
}

func TestPrefetchRisks_SkipsEntitiesWithoutCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, RatePerSec: 1000})
	sites := []model.Site{
		{ID: "site-1", Lat: floatPtr(43.6), Lon: floatPtr(1.44)},
		{ID: "site-2"}, // no coordinates
	}
	suppliers := []model.Supplier{
		{ID: "sup-1", Lat: floatPtr(48.85), Lon: floatPtr(2.35)},
	}

	risks, err := c.PrefetchRisks(context.Background(), sites, suppliers)
	require.NoError(t, err)
	assert.Len(t, risks, 2)
	assert.Contains(t, risks, "site-1")
	assert.Contains(t, risks, "sup-1")
	assert.NotContains(t, risks, "site-2")
}

func TestPrefetchRisks_FetchFailureDegradesToNoRisk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxRetries: 1, RatePerSec: 1000})
	sites := []model.Site{{ID: "site-1", Lat: floatPtr(43.6), Lon: floatPtr(1.44)}}

	risks, err := c.PrefetchRisks(context.Background(), sites, nil)
	require.NoError(t, err)
	require.Contains(t, risks, "site-1")
	assert.False(t, risks["site-1"].HasRisk)
}
