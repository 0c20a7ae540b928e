package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

const measuringWorthExport = `"MeasuringWorth Gold Price export"
"Citation: Lawrence H. Officer and Samuel H. Williamson, 'The Price of Gold, 1718-2024', MeasuringWorth, 2025"
Year,London Market Price
1718,3.89
1719,3.89
1949,"1,234.56"
1950,34.72
1960,35.27
`

func TestMeasuringWorth_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "on", r.URL.Query().Get("london"))
		require.Equal(t, "1718", r.URL.Query().Get("year_source"))
		w.Write([]byte(measuringWorthExport))
	}))
	defer srv.Close()

	mw, err := NewMeasuringWorth(srv.Client(), "london")
	require.NoError(t, err)
	mw.BaseURL = srv.URL

	points, err := mw.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 5)

	// Note, citation, and header rows are skipped; thousands separators handled.
	require.True(t, points[0].Date.Equal(model.NewDate(1718, 1, 1)))
	require.Equal(t, "3.89", points[0].Price.String())
	require.Equal(t, "1234.56", points[2].Price.String())
	require.Equal(t, "measuringworth_london", points[0].Source)
	require.Equal(t, model.GranularityAnnual, points[0].Granularity)

	// The London series is GBP before 1950 and USD from 1950 on.
	require.Equal(t, "GBP", points[2].Currency)
	require.Equal(t, "USD", points[3].Currency)
	require.Equal(t, "USD", points[4].Currency)
}

func TestMeasuringWorth_BritishAlwaysGBP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("note\ncitation\nYear,Price\n1257,0.89\n1945,8.60\n"))
	}))
	defer srv.Close()

	mw, err := NewMeasuringWorth(srv.Client(), "British")
	require.NoError(t, err)
	mw.BaseURL = srv.URL

	points, err := mw.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, "measuringworth_british", points[0].Source)
	for _, p := range points {
		require.Equal(t, "GBP", p.Currency)
	}
}

func TestMeasuringWorth_UnknownSeries(t *testing.T) {
	_, err := NewMeasuringWorth(http.DefaultClient, "paris")
	require.Error(t, err)
}

func TestMeasuringWorth_EmptyExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("note\ncitation\nYear,Price\n"))
	}))
	defer srv.Close()

	mw, err := NewMeasuringWorth(srv.Client(), "london")
	require.NoError(t, err)
	mw.BaseURL = srv.URL

	_, err = mw.Fetch(context.Background())
	require.Error(t, err)
}
