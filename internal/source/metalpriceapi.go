package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// MetalpriceAPI fetches daily spot prices from metalpriceapi.com. The API
// quotes XAU per USD, so rates are inverted to USD per troy ounce. Covers the
// trailing year plus the current day.
type MetalpriceAPI struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	// Lookback is how far back the timeframe request reaches. Defaults to 365 days.
	Lookback time.Duration
}

// NewMetalpriceAPI creates the adapter. The API key is required.
func NewMetalpriceAPI(client *http.Client, apiKey string) (*MetalpriceAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("metalpriceapi: api key not set")
	}
	return &MetalpriceAPI{
		Client:   client,
		BaseURL:  "https://api.metalpriceapi.com",
		APIKey:   apiKey,
		Lookback: 365 * 24 * time.Hour,
	}, nil
}

func (m *MetalpriceAPI) Name() string { return "metalpriceapi" }
func (m *MetalpriceAPI) Granularity() model.Granularity { return model.GranularityDaily }

// Coverage is the rolling lookback window ending today.
func (m *MetalpriceAPI) Coverage() (time.Time, time.Time) {
	end := model.TruncateToDay(time.Now())
	return model.TruncateToDay(end.Add(-m.Lookback)), end
}

type metalpriceTimeframe struct {
	Success bool                          `json:"success"`
	Rates   map[string]map[string]float64 `json:"rates"`
}

type metalpriceLatest struct {
	Success bool               `json:"success"`
	Rates   map[string]float64 `json:"rates"`
}

// Fetch combines the trailing-year timeframe with today's latest quote,
// keeping the latest quote when both cover today. A failed timeframe request
// degrades to the latest quote alone; the fetch fails only when today's quote
// is missing and there is no history to fall back on.
func (m *MetalpriceAPI) Fetch(ctx context.Context) ([]model.PricePoint, error) {
	byDate := make(map[time.Time]model.PricePoint)

	end := model.TruncateToDay(time.Now())
	start := model.TruncateToDay(end.Add(-m.Lookback))

	history, err := m.fetchTimeframe(ctx, start, end)
	if err != nil {
		log.Printf("[WARN] metalpriceapi: timeframe fetch failed: %v", err)
	}
	for _, p := range history {
		byDate[p.Date] = p
	}

	// The latest endpoint wins over the timeframe for today's date.
	latest, err := m.fetchLatest(ctx)
	if err != nil {
		if len(byDate) == 0 {
			return nil, fmt.Errorf("metalpriceapi: no latest quote and no history: %w", err)
		}
		log.Printf("[WARN] metalpriceapi: latest fetch failed, keeping timeframe data: %v", err)
	} else {
		byDate[latest.Date] = latest
	}

	points := make([]model.PricePoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, p)
	}
	sortByDate(points)
	return points, nil
}

func (m *MetalpriceAPI) fetchTimeframe(ctx context.Context, start, end time.Time) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("api_key", m.APIKey)
	q.Set("start_date", start.Format(model.DateLayout))
	q.Set("end_date", end.Format(model.DateLayout))
	q.Set("base", "USD")
	q.Set("currencies", "XAU")

	var body metalpriceTimeframe
	if err := m.getJSON(ctx, "/v1/timeframe?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("metalpriceapi: timeframe request unsuccessful")
	}

	var points []model.PricePoint
	for dateStr, rates := range body.Rates {
		date, err := time.Parse(model.DateLayout, dateStr)
		if err != nil {
			continue
		}
		rate, ok := rates["XAU"]
		if !ok || rate == 0 {
			continue
		}
		points = append(points, m.point(model.TruncateToDay(date), rate))
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("metalpriceapi: no rates in timeframe response")
	}
	return points, nil
}

func (m *MetalpriceAPI) fetchLatest(ctx context.Context) (model.PricePoint, error) {
	q := url.Values{}
	q.Set("api_key", m.APIKey)
	q.Set("base", "USD")
	q.Set("currencies", "XAU")

	var body metalpriceLatest
	if err := m.getJSON(ctx, "/v1/latest?"+q.Encode(), &body); err != nil {
		return model.PricePoint{}, err
	}
	if !body.Success {
		return model.PricePoint{}, fmt.Errorf("metalpriceapi: latest request unsuccessful")
	}
	rate, ok := body.Rates["XAU"]
	if !ok || rate == 0 {
		return model.PricePoint{}, fmt.Errorf("metalpriceapi: XAU rate missing from latest response")
	}
	return m.point(model.TruncateToDay(time.Now()), rate), nil
}

// point inverts an XAU-per-USD rate into USD per troy ounce.
func (m *MetalpriceAPI) point(date time.Time, rate float64) model.PricePoint {
	price := decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(rate), 4)
	return model.PricePoint{
		Date:        date,
		Price:       price,
		Currency:    "USD",
		Granularity: model.GranularityDaily,
		Source:      m.Name(),
	}
}

func (m *MetalpriceAPI) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("metalpriceapi fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metalpriceapi: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("metalpriceapi decode: %w", err)
	}
	return nil
}
