// Package source contains the adapters that fetch gold price records from the
// public data providers feeding the merged dataset.
package source

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// Source is one provider of gold price records. Fetch returns points sorted by
// ascending date, all carrying the source's name and granularity. Coverage is
// the source's advertised date range; a zero bound means unbounded on that
// side. Points outside the advertised range are still merged, the orchestration
// only flags them.
type Source interface {
	Name() string
	Granularity() model.Granularity
	Coverage() (start, end time.Time)
	Fetch(ctx context.Context) ([]model.PricePoint, error)
}

// NewHTTPClient builds the shared client used by all adapters, honoring an
// optional proxy URL.
func NewHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}
}

func sortByDate(points []model.PricePoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
}
