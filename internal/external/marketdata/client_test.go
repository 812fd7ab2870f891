package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/httputil"
	"github.com/dkwon/alphadesk/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func newTestClient(t *testing.T, handler http.Handler, cfg config.TrainingConfig) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := testLogger()
	httpClient := httputil.New(&config.Config{Env: "test"}, log).DisableRetry()
	return NewClient(httpClient, log, cfg).WithBaseURL(server.URL), server
}

func chartJSON(symbol string, timestamps []int64, closes []string) string {
	ts := ""
	for i, v := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprint(v)
	}
	quote := ""
	for i, v := range closes {
		if i > 0 {
			quote += ","
		}
		quote += v
	}
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"symbol":"%s"},
		"timestamp":[%s],
		"indicators":{"quote":[{
			"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]
		}]}
	}],"error":null}}`, symbol, ts, quote, quote, quote, quote, quote)
}

func TestDailySeries(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartJSON("AAPL",
			[]int64{base, base + day, base + 2*day},
			[]string{"100.5", "101.25", "99.75"}))
	}), config.TrainingConfig{})

	series, err := client.DailySeries(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, "AAPL", series.Ticker)
	assert.Equal(t, 100.5, series.Bars[0].Close)
	assert.True(t, series.Bars[0].Date.Before(series.Bars[1].Date))
}

func TestDailySeriesSkipsNullSessions(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON("MSFT",
			[]int64{base, base + day, base + 2*day},
			[]string{"410.0", "null", "415.5"}))
	}), config.TrainingConfig{})

	series, err := client.DailySeries(context.Background(), "MSFT")
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 410.0, series.Bars[0].Close)
	assert.Equal(t, 415.5, series.Bars[1].Close)
}

func TestDailySeriesAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}), config.TrainingConfig{})

	_, err := client.DailySeries(context.Background(), "GONE")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "delisted")
}

func TestDailySeriesHTTPError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}), config.TrainingConfig{})

	_, err := client.DailySeries(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestMarketContext(t *testing.T) {
	day := int64(86400)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/^GSPC":
			fmt.Fprint(w, chartJSON("^GSPC", []int64{base, base + day}, []string{"5100", "5120"}))
		case "/v8/finance/chart/^VIX":
			fmt.Fprint(w, chartJSON("^VIX", []int64{base, base + day}, []string{"14.2", "26.8"}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}), config.TrainingConfig{BenchmarkSymbol: "^GSPC", VolIndexSymbol: "^VIX"})

	market, err := client.MarketContext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, market)
	assert.Equal(t, 2, market.Benchmark.Len())
	assert.Equal(t, 26.8, market.VolIndex.Bars[1].Close)
}

func TestMarketContextDisabled(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when symbols are unset")
	}), config.TrainingConfig{})

	market, err := client.MarketContext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, market)
}
