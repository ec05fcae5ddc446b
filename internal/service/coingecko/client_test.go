package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPull/internal/domain/models"
	xhttp "TrendPull/pkg/http"
)

func ms(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC).UnixMilli()
}

func TestFetch(t *testing.T) {
	var gotPath, gotDays, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDays = r.URL.Query().Get("days")
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prices": [
			[` + itoa(ms(2023, 12, 31, 0)) + `, 41000.0],
			[` + itoa(ms(2024, 1, 1, 0)) + `, 42000.123],
			[` + itoa(ms(2024, 1, 2, 0)) + `, 43000.5],
			[` + itoa(ms(2024, 1, 2, 15)) + `, 43100.987]
		]}`))
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(), srv.URL+"/", WithAPIKey("demo"), WithCoin("bitcoin", "usd"))
	from := models.NewDate(2024, time.January, 1)
	to := models.NewDate(2024, time.January, 2)

	s, err := c.Fetch(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, "/coins/bitcoin/market_chart", gotPath)
	assert.Equal(t, "1", gotDays)
	assert.Equal(t, "demo", gotKey)
	assert.Equal(t, []models.Point{
		{Date: from, Value: 42000.12},
		{Date: to, Value: 43100.99},
	}, s.Points())
}

func TestFetchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(), srv.URL)
	_, err := c.Fetch(context.Background(), models.NewDate(2024, 1, 1), models.NewDate(2024, 6, 1))
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestFetchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices": []}`))
	}))
	defer srv.Close()

	_, err := New(xhttp.NewClient(), srv.URL).Fetch(context.Background(), models.NewDate(2024, 1, 1), models.NewDate(2024, 1, 2))
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
