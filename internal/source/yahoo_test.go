package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

func TestYahoo_Fetch(t *testing.T) {
	t1 := model.NewDate(2025, 1, 2).Unix()
	t2 := model.NewDate(2025, 1, 3).Unix()
	t3 := model.NewDate(2025, 1, 6).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/v8/finance/chart/GC=F")
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"close":[2640.5,null,2642.0]}]}}]}}`, t1, t2, t3)
	}))
	defer srv.Close()

	y := NewYahoo(srv.Client())
	y.BaseURL = srv.URL

	points, err := y.Fetch(context.Background())
	require.NoError(t, err)
	// The null bar on 2025-01-03 is skipped.
	require.Len(t, points, 2)
	require.True(t, points[0].Date.Equal(model.NewDate(2025, 1, 2)))
	require.Equal(t, "2640.5", points[0].Price.String())
	require.True(t, points[1].Date.Equal(model.NewDate(2025, 1, 6)))
	require.Equal(t, "yahoo_finance", points[0].Source)
	require.Equal(t, "USD", points[0].Currency)
	require.Equal(t, model.GranularityDaily, points[0].Granularity)
}

func TestYahoo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(srv.Client())
	y.BaseURL = srv.URL

	_, err := y.Fetch(context.Background())
	require.ErrorContains(t, err, "No data found")
}

func TestYahoo_DefaultWindowStartsIn2025(t *testing.T) {
	y := NewYahoo(http.DefaultClient)
	require.True(t, y.Start.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
