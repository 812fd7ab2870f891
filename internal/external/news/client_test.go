package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := testLogger()
	httpClient := httputil.New(&config.Config{Env: "test"}, log).DisableRetry()
	return NewClient(httpClient, log, config.MarketDataConfig{}).WithBaseURL(server.URL)
}

const newsPage = `<html><body>
<div class="stream">
	<h3><a href="/news/apple-beats-earnings.html">Apple beats earnings estimates</a></h3>
	<h3><a href="https://example.com/external-story">Supplier raises full-year outlook</a></h3>
	<h3><a href="/news/apple-beats-earnings.html">Apple beats earnings estimates</a></h3>
	<h3><a href="/news/iphone-demand.html">iPhone demand steady in Q2</a></h3>
	<h3></h3>
</div>
</body></html>`

func TestHeadlines(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAPL/news", r.URL.Path)
		fmt.Fprint(w, newsPage)
	}))

	headlines, err := client.Headlines(context.Background(), "AAPL", 0)
	require.NoError(t, err)

	require.Len(t, headlines, 3, "blank and duplicate titles dropped")
	assert.Equal(t, "Apple beats earnings estimates", headlines[0].Title)
	assert.Contains(t, headlines[0].Link, "/news/apple-beats-earnings.html")
	assert.Equal(t, "https://example.com/external-story", headlines[1].Link)
}

func TestHeadlinesLimit(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, newsPage)
	}))

	headlines, err := client.Headlines(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	assert.Len(t, headlines, 2)
}

func TestHeadlinesEmptyPage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))

	_, err := client.Headlines(context.Background(), "AAPL", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestHeadlinesHTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.Headlines(context.Background(), "AAPL", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestTitles(t *testing.T) {
	titles := Titles([]Headline{{Title: "a"}, {Title: "b"}})
	assert.Equal(t, []string{"a", "b"}, titles)
}
