package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/features"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/httputil"
	"github.com/dkwon/alphadesk/pkg/logger"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"

	// defaultRange covers the full training window with slack for
	// non-trading days; the caller caps the bar count afterwards.
	defaultRange = "10y"
)

// Client fetches daily OHLCV series from a Yahoo-chart-compatible API.
// All quote traffic goes through this client so the shared rate limit
// actually binds.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	benchmarkSymbol string
	volIndexSymbol  string
}

// NewClient creates a market data client. The underlying HTTP client
// should carry a rate limit; quote endpoints throttle hard.
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.TrainingConfig) *Client {
	return &Client{
		httpClient:      httpClient,
		logger:          log,
		baseURL:         defaultBaseURL,
		benchmarkSymbol: cfg.BenchmarkSymbol,
		volIndexSymbol:  cfg.VolIndexSymbol,
	}
}

// WithBaseURL overrides the API host, used against test servers
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// chartResponse mirrors the chart API payload. Quote arrays use
// pointers because the API emits nulls for halted sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailySeries fetches the daily bar history for a ticker
func (c *Client) DailySeries(ctx context.Context, ticker string) (*contracts.Series, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d&events=history",
		c.baseURL, url.PathEscape(ticker), defaultRange)

	var payload chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &payload); err != nil {
		return nil, fmt.Errorf("%w: chart fetch for %s: %v", contracts.ErrDataUnavailable, ticker, err)
	}

	series, err := parseChart(&payload, ticker)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   series.Len(),
	}).Debug("Fetched daily series")
	return series, nil
}

// MarketContext fetches the benchmark and volatility index series. Both
// symbols must be configured; an empty symbol disables the block.
func (c *Client) MarketContext(ctx context.Context) (*features.MarketContext, error) {
	if c.benchmarkSymbol == "" || c.volIndexSymbol == "" {
		return nil, nil
	}

	bench, err := c.DailySeries(ctx, c.benchmarkSymbol)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", c.benchmarkSymbol, err)
	}
	vol, err := c.DailySeries(ctx, c.volIndexSymbol)
	if err != nil {
		return nil, fmt.Errorf("volatility index %s: %w", c.volIndexSymbol, err)
	}

	return &features.MarketContext{Benchmark: bench, VolIndex: vol}, nil
}

// parseChart converts the chart payload into a sorted bar series,
// dropping sessions with any null field.
func parseChart(payload *chartResponse, ticker string) (*contracts.Series, error) {
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", contracts.ErrDataUnavailable,
			ticker, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: empty chart result", contracts.ErrDataUnavailable, ticker)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s: no quote block", contracts.ErrDataUnavailable, ticker)
	}
	quote := result.Indicators.Quote[0]

	series := &contracts.Series{Ticker: ticker}
	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		closePx := at(quote.Close, i)
		volume := at(quote.Volume, i)
		if open == nil || high == nil || low == nil || closePx == nil || volume == nil {
			continue
		}
		series.Bars = append(series.Bars, contracts.Bar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closePx,
			Volume: *volume,
		})
	}
	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no usable sessions", contracts.ErrDataUnavailable, ticker)
	}

	sort.SliceStable(series.Bars, func(a, b int) bool {
		return series.Bars[a].Date.Before(series.Bars[b].Date)
	})
	return series, nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}
