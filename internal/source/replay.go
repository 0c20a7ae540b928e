package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// Replay re-reads a source's persisted backfill CSV so the cheap daily refresh
// keeps that source's history, and its attribution, without re-fetching it.
// Points carry the replayed source's own name and granularity, so they rank
// exactly as the live source would; on overlapping dates the live source wins
// the tie by being listed first.
type Replay struct {
	Path       string
	SourceName string
	Gran       model.Granularity
}

// NewReplay creates the adapter for one source's backfill/<name>_latest.csv.
func NewReplay(path, sourceName string, g model.Granularity) *Replay {
	return &Replay{Path: path, SourceName: sourceName, Gran: g}
}

func (r *Replay) Name() string { return r.SourceName }
func (r *Replay) Granularity() model.Granularity { return r.Gran }

// Coverage is unbounded: the file holds whatever the live source last produced.
func (r *Replay) Coverage() (time.Time, time.Time) { return time.Time{}, time.Time{} }

func (r *Replay) Fetch(_ context.Context) ([]model.PricePoint, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("replay open: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	var points []model.PricePoint
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay parse: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		date, err := time.Parse(model.DateLayout, row[0])
		if err != nil {
			continue // header row
		}
		price, err := decimal.NewFromString(row[1])
		if err != nil {
			continue
		}
		currency := "USD"
		if len(row) >= 3 && row[2] != "" {
			currency = row[2]
		}
		points = append(points, model.PricePoint{
			Date:        model.TruncateToDay(date),
			Price:       price,
			Currency:    currency,
			Granularity: r.Gran,
			Source:      r.SourceName,
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("replay: no rows in %s", r.Path)
	}

	sortByDate(points)
	return points, nil
}
