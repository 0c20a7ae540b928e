package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Granularity is the time resolution of a data source's points.
type Granularity string

const (
	GranularityAnnual  Granularity = "annual"
	GranularityMonthly Granularity = "monthly"
	GranularityDaily   Granularity = "daily"
)

// DateLayout is the canonical date format used in CSV files and map keys.
const DateLayout = "2006-01-02"

// NewDate returns the given calendar day at midnight UTC. All PricePoint dates
// must be built through this so that date equality works as map-key equality.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateToDay drops the time-of-day component, keeping the calendar date in UTC.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// PricePoint is one observation of the gold price. Immutable once produced by
// an adapter.
type PricePoint struct {
	Date        time.Time
	Price       decimal.Decimal
	Currency    string
	Granularity Granularity
	Source      string
}

// SourceSeries is an ordered run of points from a single source, all sharing
// the same granularity. Dates are non-decreasing.
type SourceSeries struct {
	Source      string
	Granularity Granularity
	Points      []PricePoint
}

// Start returns the first date of the series, or the zero time when empty.
func (s SourceSeries) Start() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[0].Date
}

// End returns the last date of the series, or the zero time when empty.
func (s SourceSeries) End() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}
