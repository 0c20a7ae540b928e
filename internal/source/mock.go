package source

import (
	"context"
	"time"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// MockSource returns fixed data for development and testing. Zero coverage
// bounds mean unbounded.
type MockSource struct {
	SourceName  string
	Gran        model.Granularity
	CovStart    time.Time
	CovEnd      time.Time
	Points      []model.PricePoint
	Err         error
	FetchCalled int
}

func (m *MockSource) Name() string { return m.SourceName }
func (m *MockSource) Granularity() model.Granularity { return m.Gran }

func (m *MockSource) Coverage() (time.Time, time.Time) { return m.CovStart, m.CovEnd }

func (m *MockSource) Fetch(_ context.Context) ([]model.PricePoint, error) {
	m.FetchCalled++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Points, nil
}
