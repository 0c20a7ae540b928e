package fx

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

func TestNormalize_USDPassthrough(t *testing.T) {
	var n Normalizer
	p := model.PricePoint{
		Date:        model.NewDate(2025, 1, 2),
		Price:       decimal.RequireFromString("2640.50"),
		Currency:    "USD",
		Granularity: model.GranularityDaily,
		Source:      "yahoo_finance",
	}
	out, err := n.Normalize(p)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !out.Price.Equal(p.Price) || out.Currency != "USD" {
		t.Errorf("USD point changed: %+v", out)
	}
}

func TestNormalize_GBPConversion(t *testing.T) {
	var n Normalizer

	tests := []struct {
		year int
		gbp  string
		want string // gbp * era rate
	}{
		{1718, "3.89", "17.2716"},  // 4.44 mint parity era
		{1850, "3.89", "18.9443"},  // 4.87 gold standard era
		{1949, "8.65", "24.22"},    // 2.80 post-devaluation
	}
	for _, tt := range tests {
		p := model.PricePoint{
			Date:        model.NewDate(tt.year, 1, 1),
			Price:       decimal.RequireFromString(tt.gbp),
			Currency:    "GBP",
			Granularity: model.GranularityAnnual,
			Source:      "measuringworth_london",
		}
		out, err := n.Normalize(p)
		if err != nil {
			t.Fatalf("year %d: %v", tt.year, err)
		}
		if out.Currency != "USD" {
			t.Errorf("year %d: currency = %q", tt.year, out.Currency)
		}
		if out.Price.String() != tt.want {
			t.Errorf("year %d: price = %s, want %s", tt.year, out.Price, tt.want)
		}
	}
}

func TestNormalize_UnknownCurrency(t *testing.T) {
	var n Normalizer
	p := model.PricePoint{
		Date:     model.NewDate(2000, 1, 1),
		Price:    decimal.New(100, 0),
		Currency: "CHF",
		Source:   "test",
	}
	if _, err := n.Normalize(p); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}

func TestNormalizeSeries_DoesNotMutateInput(t *testing.T) {
	var n Normalizer
	s := model.SourceSeries{
		Source:      "measuringworth_british",
		Granularity: model.GranularityAnnual,
		Points: []model.PricePoint{
			{
				Date:        model.NewDate(1300, 1, 1),
				Price:       decimal.RequireFromString("0.85"),
				Currency:    "GBP",
				Granularity: model.GranularityAnnual,
				Source:      "measuringworth_british",
			},
		},
	}
	out, err := n.NormalizeSeries(s)
	if err != nil {
		t.Fatalf("normalize series: %v", err)
	}
	if s.Points[0].Currency != "GBP" {
		t.Error("input series was mutated")
	}
	if out.Points[0].Currency != "USD" {
		t.Errorf("output not normalized: %+v", out.Points[0])
	}
}
