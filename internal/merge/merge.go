// Package merge reconciles overlapping gold price series of different
// granularities into one canonical series with a deterministic precedence rule.
package merge

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// ErrCurrencyNotNormalized is returned when a point reaches the merge step in a
// currency other than USD. This always indicates a bug in the normalization
// step, so the whole run is aborted rather than merging mixed currencies.
var ErrCurrencyNotNormalized = errors.New("merge: price point not normalized to USD")

// Policy ranks (source, granularity) pairs. Finer granularity always beats a
// coarser one; the explicit source ordering breaks ties within a tier.
// Loaded once per run and immutable thereafter.
type Policy struct {
	// PriorityOrder lists granularity tiers best-first, e.g. daily, monthly, annual.
	PriorityOrder []model.Granularity
	// Sources lists source names best-first for same-tier conflicts.
	Sources []string
}

// DefaultPolicy prefers daily over monthly over annual, with no explicit
// source ordering.
func DefaultPolicy() Policy {
	return Policy{
		PriorityOrder: []model.Granularity{
			model.GranularityDaily,
			model.GranularityMonthly,
			model.GranularityAnnual,
		},
	}
}

// rank orders candidates: smaller is better. Granularities or sources absent
// from the policy sort after every listed one.
type rank struct {
	tier   int
	source int
}

func (r rank) less(o rank) bool {
	if r.tier != o.tier {
		return r.tier < o.tier
	}
	return r.source < o.source
}

// Rank computes the precedence rank of a point under the policy.
func (p Policy) Rank(pt model.PricePoint) (tier, source int) {
	r := p.rankOf(pt)
	return r.tier, r.source
}

func (p Policy) rankOf(pt model.PricePoint) rank {
	r := rank{tier: len(p.PriorityOrder), source: len(p.Sources)}
	for i, g := range p.PriorityOrder {
		if g == pt.Granularity {
			r.tier = i
			break
		}
	}
	for i, s := range p.Sources {
		if s == pt.Source {
			r.source = i
			break
		}
	}
	return r
}

type candidate struct {
	point  model.PricePoint
	rank   rank
	series int // index into the input list, for same-source last-write-wins
}

// Merge reconciles the input series into a single deduplicated, chronologically
// ordered series. Inputs are treated as read-only and may overlap arbitrarily.
//
// For each date the best-ranked point survives. Rank ties go to the series
// listed first in the input; duplicate dates within one series keep the last
// point encountered. An empty input list yields an empty series.
//
// Merge fails only when a point arrives in a non-USD currency; zero or
// negative prices and out-of-range dates are merged like any other value.
func Merge(seriesList []model.SourceSeries, policy Policy) (model.MergedSeries, error) {
	best := make(map[time.Time]candidate)

	for si, series := range seriesList {
		for _, pt := range series.Points {
			if pt.Currency != "USD" {
				return model.MergedSeries{}, fmt.Errorf(
					"%w: source %q date %s currency %q",
					ErrCurrencyNotNormalized, pt.Source, pt.Date.Format(model.DateLayout), pt.Currency)
			}
			c := candidate{point: pt, rank: policy.rankOf(pt), series: si}
			cur, ok := best[pt.Date]
			if !ok || c.rank.less(cur.rank) || (c.series == cur.series && !cur.rank.less(c.rank)) {
				best[pt.Date] = c
			}
		}
	}

	points := make([]model.PricePoint, 0, len(best))
	for _, c := range best {
		points = append(points, c.point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return model.NewMergedSeries(points), nil
}
