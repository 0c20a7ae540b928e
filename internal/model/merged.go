package model

import "time"

// MergedSeries is the reconciled output: exactly one point per date, sorted
// ascending by date, all prices in USD.
type MergedSeries struct {
	points []PricePoint
	byDate map[time.Time]int
}

// NewMergedSeries builds a MergedSeries from points that are already
// date-unique and sorted ascending. The slice is not copied.
func NewMergedSeries(points []PricePoint) MergedSeries {
	idx := make(map[time.Time]int, len(points))
	for i, p := range points {
		idx[p.Date] = i
	}
	return MergedSeries{points: points, byDate: idx}
}

// Points returns the merged points in chronological order. Callers must not
// mutate the returned slice.
func (m MergedSeries) Points() []PricePoint { return m.points }

// Len returns the number of dates in the series.
func (m MergedSeries) Len() int { return len(m.points) }

// At looks up the point for a calendar date.
func (m MergedSeries) At(date time.Time) (PricePoint, bool) {
	i, ok := m.byDate[TruncateToDay(date)]
	if !ok {
		return PricePoint{}, false
	}
	return m.points[i], true
}

// Start returns the earliest date, or the zero time when empty.
func (m MergedSeries) Start() time.Time {
	if len(m.points) == 0 {
		return time.Time{}
	}
	return m.points[0].Date
}

// End returns the latest date, or the zero time when empty.
func (m MergedSeries) End() time.Time {
	if len(m.points) == 0 {
		return time.Time{}
	}
	return m.points[len(m.points)-1].Date
}

// SourceStats summarizes one source's contribution to a dataset.
type SourceStats struct {
	Count int    `json:"count"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// StatsBySource computes per-source record counts and date ranges for the
// points actually present in the merged series.
func (m MergedSeries) StatsBySource() map[string]SourceStats {
	return statsFor(m.points)
}

func statsFor(points []PricePoint) map[string]SourceStats {
	stats := make(map[string]SourceStats)
	for _, p := range points {
		s, ok := stats[p.Source]
		if !ok {
			s = SourceStats{
				Start: p.Date.Format(DateLayout),
				End:   p.Date.Format(DateLayout),
			}
		}
		s.Count++
		d := p.Date.Format(DateLayout)
		if d < s.Start {
			s.Start = d
		}
		if d > s.End {
			s.End = d
		}
		stats[p.Source] = s
	}
	return stats
}

// FullSourceRanges computes per-source coverage across all input series,
// before any deduplication.
func FullSourceRanges(seriesList []SourceSeries) map[string]SourceStats {
	var all []PricePoint
	for _, s := range seriesList {
		all = append(all, s.Points...)
	}
	return statsFor(all)
}
