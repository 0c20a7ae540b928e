package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

func TestFRED_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fred/series/observations", r.URL.Path)
		require.Equal(t, fredSeriesID, r.URL.Query().Get("series_id"))
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"observations":[
			{"date":"1968-04-01","value":"37.90"},
			{"date":"1968-04-02","value":"."},
			{"date":"1968-04-03","value":"37.75"}
		]}`))
	}))
	defer srv.Close()

	f, err := NewFRED(srv.Client(), "test-key")
	require.NoError(t, err)
	f.BaseURL = srv.URL

	points, err := f.Fetch(context.Background())
	require.NoError(t, err)
	// Holiday placeholder "." rows are dropped.
	require.Len(t, points, 2)
	require.True(t, points[0].Date.Equal(model.NewDate(1968, 4, 1)))
	require.Equal(t, "37.9", points[0].Price.String())
	require.Equal(t, "fred", points[0].Source)
	require.Equal(t, model.GranularityDaily, points[0].Granularity)
}

func TestFRED_RequiresKey(t *testing.T) {
	_, err := NewFRED(http.DefaultClient, "")
	require.Error(t, err)
}

func TestFRED_AllPlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations":[{"date":"1968-04-02","value":"."}]}`))
	}))
	defer srv.Close()

	f, err := NewFRED(srv.Client(), "test-key")
	require.NoError(t, err)
	f.BaseURL = srv.URL

	_, err = f.Fetch(context.Background())
	require.Error(t, err)
}
