package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// fredSeriesID is the London Bullion Market 3pm fixing in USD per troy ounce,
// daily from 1968-04-01.
const fredSeriesID = "GOLDPMGBD228NLBM"

// FRED fetches daily London fixing prices from the St. Louis Fed API.
type FRED struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Start   time.Time
}

// NewFRED creates the adapter. The API key is required.
func NewFRED(client *http.Client, apiKey string) (*FRED, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fred: api key not set")
	}
	return &FRED{
		Client:  client,
		BaseURL: "https://api.stlouisfed.org",
		APIKey:  apiKey,
		Start:   model.NewDate(1968, time.April, 1),
	}, nil
}

func (f *FRED) Name() string { return "fred" }
func (f *FRED) Granularity() model.Granularity { return model.GranularityDaily }

func (f *FRED) Coverage() (time.Time, time.Time) { return f.Start, time.Time{} }

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func (f *FRED) Fetch(ctx context.Context) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("series_id", fredSeriesID)
	q.Set("api_key", f.APIKey)
	q.Set("file_type", "json")
	q.Set("observation_start", f.Start.Format(model.DateLayout))
	q.Set("observation_end", model.TruncateToDay(time.Now()).Format(model.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/fred/series/observations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fred fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fred: status %d", resp.StatusCode)
	}

	var body fredResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fred decode: %w", err)
	}
	if len(body.Observations) == 0 {
		return nil, fmt.Errorf("fred: no observations returned")
	}

	points := make([]model.PricePoint, 0, len(body.Observations))
	for _, obs := range body.Observations {
		if obs.Value == "." {
			continue // market holiday placeholder
		}
		date, err := time.Parse(model.DateLayout, obs.Date)
		if err != nil {
			continue
		}
		price, err := decimal.NewFromString(obs.Value)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{
			Date:        model.TruncateToDay(date),
			Price:       price,
			Currency:    "USD",
			Granularity: model.GranularityDaily,
			Source:      f.Name(),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("fred: no valid observations")
	}

	sortByDate(points)
	return points, nil
}
