package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/risk-engine/internal/model"
)

// ClientOptions configures the forecast client.
type ClientOptions struct {
	BaseURL      string
	ForecastDays int
	Timeout      time.Duration
	MaxRetries   int
	RatePerSec   float64
	Concurrency  int
}

// Client pulls daily forecasts from an Open-Meteo-compatible endpoint and
// converts them into per-entity weather risk. All fetching happens before
// the engine is invoked; the engine only ever sees the resulting map.
type Client struct {
	baseURL      string
	forecastDays int
	maxRetries   int
	concurrency  int
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a forecast client with sane defaults for unset options.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = 16
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Client{
		baseURL:      opts.BaseURL,
		forecastDays: opts.ForecastDays,
		maxRetries:   opts.MaxRetries,
		concurrency:  opts.Concurrency,
		httpClient:   &http.Client{Timeout: opts.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// forecastResponse mirrors the daily block of the Open-Meteo JSON payload.
type forecastResponse struct {
	Daily struct {
		Time           []string  `json:"time"`
		Precipitation  []float64 `json:"precipitation_sum"`
		WindSpeedMax   []float64 `json:"windspeed_10m_max"`
		Snowfall       []float64 `json:"snowfall_sum"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// FetchRisk fetches the forecast for one coordinate and scores it.
func (c *Client) FetchRisk(ctx context.Context, entityID string, lat, lon float64) (model.WeatherRisk, error) {
	days, err := c.fetchDaily(ctx, lat, lon)
	if err != nil {
		return model.WeatherRisk{EntityID: entityID}, err
	}
	return Score(entityID, DeriveAlerts(days)), nil
}

// entityCoord is the minimal view the prefetch needs of an entity.
type entityCoord struct {
	id  string
	lat float64
	lon float64
}

// PrefetchRisks fetches weather risk for every entity with coordinates in
// the graph, concurrently and rate-limited. Entities without coordinates are
// skipped; per-entity fetch failures degrade to has_risk=false so a flaky
// forecast provider never blocks an analysis.
func (c *Client) PrefetchRisks(ctx context.Context, sites []model.Site, suppliers []model.Supplier) (map[string]model.WeatherRisk, error) {
	var coords []entityCoord
	for _, s := range sites {
		if s.Lat != nil && s.Lon != nil {
			coords = append(coords, entityCoord{id: s.ID, lat: *s.Lat, lon: *s.Lon})
		}
	}
	for _, s := range suppliers {
		if s.Lat != nil && s.Lon != nil {
			coords = append(coords, entityCoord{id: s.ID, lat: *s.Lat, lon: *s.Lon})
		}
	}

	var mu sync.Mutex
	risks := make(map[string]model.WeatherRisk, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, ec := range coords {
		g.Go(func() error {
			wr, err := c.FetchRisk(gctx, ec.id, ec.lat, ec.lon)
			if err != nil {
				zap.L().Warn("weather: fetch failed, entity treated as no-risk",
					zap.String("entity_id", ec.id),
					zap.Error(err),
				)
				wr = model.WeatherRisk{EntityID: ec.id}
			}
			mu.Lock()
			risks[ec.id] = wr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "weather: prefetch")
	}

	zap.L().Info("weather: prefetch complete",
		zap.Int("entities", len(coords)),
		zap.Int("with_risk", countWithRisk(risks)),
	)
	return risks, nil
}

func countWithRisk(risks map[string]model.WeatherRisk) int {
	n := 0
	for _, wr := range risks {
		if wr.HasRisk {
			n++
		}
	}
	return n
}

func (c *Client) fetchDaily(ctx context.Context, lat, lon float64) ([]DailyForecast, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("daily", "precipitation_sum,windspeed_10m_max,snowfall_sum,temperature_2m_max,temperature_2m_min")
	q.Set("forecast_days", fmt.Sprintf("%d", c.forecastDays))
	q.Set("timezone", "UTC")
	reqURL := c.baseURL + "?" + q.Encode()

	var body []byte
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "weather: rate limiter")
		}
		body, lastErr = c.doGet(ctx, reqURL)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}
		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		zap.L().Debug("weather: retrying fetch",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "weather: fetch canceled")
		case <-time.After(backoff):
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "weather: decode forecast")
	}

	days := make([]DailyForecast, 0, len(resp.Daily.Time))
	for i, day := range resp.Daily.Time {
		d := DailyForecast{Day: day}
		if i < len(resp.Daily.Precipitation) {
			d.PrecipitationMM = resp.Daily.Precipitation[i]
		}
		if i < len(resp.Daily.WindSpeedMax) {
			d.WindSpeedMaxKMH = resp.Daily.WindSpeedMax[i]
		}
		if i < len(resp.Daily.Snowfall) {
			d.SnowfallCM = resp.Daily.Snowfall[i]
		}
		if i < len(resp.Daily.TemperatureMax) {
			d.TemperatureMaxC = resp.Daily.TemperatureMax[i]
		}
		if i < len(resp.Daily.TemperatureMin) {
			d.TemperatureMinC = resp.Daily.TemperatureMin[i]
		}
		days = append(days, d)
	}
	return days, nil
}

func (c *Client) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "weather: build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weather: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("weather: forecast API returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "weather: read body")
	}
	return body, nil
}
