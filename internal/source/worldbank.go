package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

const worldBankPinkSheetURL = "https://thedocs.worldbank.org/en/doc/5d903e848db1d1b83e0ec8f744e55570-0350012021/related/CMO-Historical-Data-Monthly.xlsx"

// WorldBank fetches monthly gold prices from the World Bank commodity price
// workbook (the "Pink Sheet"), covering 1960 to the present.
type WorldBank struct {
	Client *http.Client
	URL    string
}

// NewWorldBank creates the Pink Sheet adapter.
func NewWorldBank(client *http.Client) *WorldBank {
	return &WorldBank{Client: client, URL: worldBankPinkSheetURL}
}

func (w *WorldBank) Name() string { return "worldbank" }
func (w *WorldBank) Granularity() model.Granularity { return model.GranularityMonthly }

// Coverage starts where the Pink Sheet monthly data begins.
func (w *WorldBank) Coverage() (time.Time, time.Time) {
	return model.NewDate(1960, time.January, 1), time.Time{}
}

func (w *WorldBank) Fetch(ctx context.Context) ([]model.PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("worldbank fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("worldbank: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("worldbank read body: %w", err)
	}
	return w.parse(body)
}

// parse extracts the GOLD column from the "Monthly Prices" sheet. The sheet
// has four banner rows, then a header row of commodity codes; month labels are
// written as 1960M01.
func (w *WorldBank) parse(data []byte) ([]model.PricePoint, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("worldbank open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Monthly Prices")
	if err != nil {
		return nil, fmt.Errorf("worldbank read sheet: %w", err)
	}

	goldCol := -1
	headerRow := -1
	for ri, row := range rows {
		for ci, cell := range row {
			upper := strings.ToUpper(strings.TrimSpace(cell))
			if strings.Contains(upper, "GOLD") && !strings.Contains(upper, "OUNCE") {
				goldCol = ci
				headerRow = ri
				break
			}
		}
		if goldCol >= 0 {
			break
		}
	}
	if goldCol < 0 {
		return nil, fmt.Errorf("worldbank: gold column not found in Monthly Prices sheet")
	}

	var points []model.PricePoint
	for _, row := range rows[headerRow+1:] {
		if len(row) <= goldCol {
			continue
		}
		date, err := parseWorldBankMonth(row[0])
		if err != nil {
			continue
		}
		raw := strings.ReplaceAll(strings.TrimSpace(row[goldCol]), ",", "")
		if raw == "" || raw == ".." {
			continue
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{
			Date:        date,
			Price:       price.Round(2),
			Currency:    "USD",
			Granularity: model.GranularityMonthly,
			Source:      w.Name(),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("worldbank: no usable rows in workbook")
	}

	sortByDate(points)
	return points, nil
}

// parseWorldBankMonth handles the 1960M01 label format.
func parseWorldBankMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006M01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return model.TruncateToDay(t), nil
}
