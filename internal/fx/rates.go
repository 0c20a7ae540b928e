// Package fx converts historical price points into USD before they are merged.
package fx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// gbpUSDByEra holds annual-average GBP/USD rates for the years where
// MeasuringWorth reports gold in pounds sterling. Before the float era the
// pound was pegged for long stretches, so a flat rate per era is adequate for
// normalizing annual data.
//
// Rates are USD per 1 GBP.
var gbpUSDByEra = []struct {
	fromYear int
	rate     decimal.Decimal
}{
	{1257, decimal.RequireFromString("4.44")},  // pre-1791 mint parity approximation
	{1791, decimal.RequireFromString("4.55")},
	{1821, decimal.RequireFromString("4.87")},  // gold standard parity
	{1914, decimal.RequireFromString("4.76")},
	{1920, decimal.RequireFromString("3.85")},
	{1925, decimal.RequireFromString("4.86")},  // return to gold
	{1931, decimal.RequireFromString("4.03")},
	{1940, decimal.RequireFromString("4.03")},  // Bretton Woods peg
	{1949, decimal.RequireFromString("2.80")},  // devaluation
}

// Normalizer converts price points into USD using a historical rate table.
// The zero value uses the built-in table.
type Normalizer struct{}

// Normalize returns a copy of p priced in USD. USD points pass through
// unchanged. An unsupported currency is an error; the merge step would reject
// the point anyway, so failing here keeps the contract violation close to its
// cause.
func (n Normalizer) Normalize(p model.PricePoint) (model.PricePoint, error) {
	switch p.Currency {
	case "USD":
		return p, nil
	case "GBP":
		rate, err := gbpUSDRate(p.Date.Year())
		if err != nil {
			return model.PricePoint{}, err
		}
		out := p
		out.Price = p.Price.Mul(rate).Round(4)
		out.Currency = "USD"
		return out, nil
	default:
		return model.PricePoint{}, fmt.Errorf("fx: no rate table for currency %q (source %s, date %s)",
			p.Currency, p.Source, p.Date.Format(model.DateLayout))
	}
}

// NormalizeSeries converts every point of a series to USD, returning a new
// series. The input is not modified.
func (n Normalizer) NormalizeSeries(s model.SourceSeries) (model.SourceSeries, error) {
	out := model.SourceSeries{Source: s.Source, Granularity: s.Granularity, Points: make([]model.PricePoint, len(s.Points))}
	for i, p := range s.Points {
		np, err := n.Normalize(p)
		if err != nil {
			return model.SourceSeries{}, fmt.Errorf("normalize %s: %w", s.Source, err)
		}
		out.Points[i] = np
	}
	return out, nil
}

func gbpUSDRate(year int) (decimal.Decimal, error) {
	if year < gbpUSDByEra[0].fromYear {
		return decimal.Decimal{}, fmt.Errorf("fx: year %d before GBP rate table", year)
	}
	rate := gbpUSDByEra[0].rate
	for _, era := range gbpUSDByEra {
		if year >= era.fromYear {
			rate = era.rate
		}
	}
	return rate, nil
}
