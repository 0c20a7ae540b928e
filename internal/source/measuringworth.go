package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// measuringWorthSeries maps series variants to their coverage. The export
// endpoint only returns the years that exist, but sending sane bounds keeps
// the responses small.
var measuringWorthSeries = map[string]struct {
	startYear int
	endYear   int // 0 means current year
}{
	"British":    {1257, 1945},
	"goldsilver": {1687, 0},
	"london":     {1718, 0},
	"us":         {1786, 2020},
	"newyork":    {1791, 0},
}

// MeasuringWorth fetches annual gold prices from measuringworth.com. The
// British series is quoted in pounds sterling throughout; the London series
// switches from GBP to USD in 1950. Downstream normalization converts the GBP
// years before merging.
type MeasuringWorth struct {
	Client  *http.Client
	BaseURL string
	Series  string // "British", "london", "us", "newyork", "goldsilver"
}

// NewMeasuringWorth creates the adapter for one series variant.
func NewMeasuringWorth(client *http.Client, series string) (*MeasuringWorth, error) {
	if _, ok := measuringWorthSeries[series]; !ok {
		return nil, fmt.Errorf("measuringworth: unknown series %q", series)
	}
	return &MeasuringWorth{
		Client:  client,
		BaseURL: "https://www.measuringworth.com/datasets/gold/export.php",
		Series:  series,
	}, nil
}

func (m *MeasuringWorth) Name() string {
	return "measuringworth_" + strings.ToLower(m.Series)
}

func (m *MeasuringWorth) Granularity() model.Granularity { return model.GranularityAnnual }

// Coverage reports the series variant's documented year range. Open-ended
// series have no end bound.
func (m *MeasuringWorth) Coverage() (time.Time, time.Time) {
	bounds := measuringWorthSeries[m.Series]
	start := model.NewDate(bounds.startYear, time.January, 1)
	if bounds.endYear == 0 {
		return start, time.Time{}
	}
	return start, model.NewDate(bounds.endYear, time.December, 31)
}

// Fetch downloads the CSV export. The file starts with a note and a citation
// line before the header, so rows are skipped until the first column parses as
// a year.
func (m *MeasuringWorth) Fetch(ctx context.Context) ([]model.PricePoint, error) {
	bounds := measuringWorthSeries[m.Series]
	endYear := bounds.endYear
	if endYear == 0 {
		endYear = time.Now().Year()
	}

	q := url.Values{}
	q.Set("year_source", strconv.Itoa(bounds.startYear))
	q.Set("year_result", strconv.Itoa(endYear))
	q.Set(m.Series, "on")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("measuringworth fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("measuringworth: status %d", resp.StatusCode)
	}

	return m.parse(resp.Body)
}

func (m *MeasuringWorth) parse(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // note and citation rows have a single column

	var points []model.PricePoint
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("measuringworth parse: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue // note, citation, or header row
		}
		raw := strings.ReplaceAll(strings.TrimSpace(row[1]), ",", "")
		if raw == "" {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{
			Date:        model.NewDate(year, time.January, 1),
			Price:       price,
			Currency:    m.currencyFor(year),
			Granularity: model.GranularityAnnual,
			Source:      m.Name(),
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("measuringworth: no data rows in %s series export", m.Series)
	}
	sortByDate(points)
	return points, nil
}

func (m *MeasuringWorth) currencyFor(year int) string {
	switch m.Series {
	case "British":
		return "GBP"
	case "london":
		if year < 1950 {
			return "GBP"
		}
		return "USD"
	default:
		return "USD"
	}
}
