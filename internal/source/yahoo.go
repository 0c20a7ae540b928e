package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// Yahoo fetches daily gold futures closes (GC=F) from the Yahoo Finance chart
// API. Covers the years after the World Bank monthly data ends.
type Yahoo struct {
	Client  *http.Client
	BaseURL string
	Ticker  string
	// Start bounds the request window; defaults to 2025-01-01, where the
	// monthly coverage stops.
	Start time.Time
}

// NewYahoo creates the gold futures adapter.
func NewYahoo(client *http.Client) *Yahoo {
	return &Yahoo{
		Client:  client,
		BaseURL: "https://query1.finance.yahoo.com",
		Ticker:  "GC=F",
		Start:   model.NewDate(2025, time.January, 1),
	}
}

func (y *Yahoo) Name() string { return "yahoo_finance" }
func (y *Yahoo) Granularity() model.Granularity { return model.GranularityDaily }

func (y *Yahoo) Coverage() (time.Time, time.Time) { return y.Start, time.Time{} }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (y *Yahoo) Fetch(ctx context.Context) ([]model.PricePoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		y.BaseURL, url.PathEscape(y.Ticker), y.Start.Unix(), time.Now().Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data returned")
	}
	quote := result.Indicators.Quote[0]

	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		c := toFloat(quote.Close[i])
		if c == 0 {
			continue // skip null bars (holidays etc.)
		}
		points = append(points, model.PricePoint{
			Date:        model.TruncateToDay(time.Unix(ts, 0)),
			Price:       decimal.NewFromFloat(c).Round(2),
			Currency:    "USD",
			Granularity: model.GranularityDaily,
			Source:      y.Name(),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo: all bars null")
	}

	sortByDate(points)
	return points, nil
}
