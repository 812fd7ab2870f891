package features

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

// syntheticSeries builds a deterministic random-walk OHLCV series
func syntheticSeries(ticker string, n int, seed int64) *contracts.Series {
	rng := rand.New(rand.NewSource(seed))
	s := &contracts.Series{Ticker: ticker}
	price := 100.0
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		open := price
		price *= 1 + rng.NormFloat64()*0.015
		high := math.Max(open, price) * (1 + rng.Float64()*0.01)
		low := math.Min(open, price) * (1 - rng.Float64()*0.01)
		s.Bars = append(s.Bars, contracts.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 1e6 * (0.5 + rng.Float64()),
		})
		date = date.AddDate(0, 0, 1)
	}
	return s
}

func TestGenerateShape(t *testing.T) {
	engine := NewEngine(testLogger(), Options{})
	series := syntheticSeries("AAPL", 300, 7)

	frame, err := engine.Generate(series, nil)
	require.NoError(t, err)

	// The widest window (20-day) plus the targetless final bar drop
	// 21 rows in total.
	assert.Equal(t, 279, frame.Len())
	assert.Equal(t, series.Bars[20].Date, frame.Dates[0])
	assert.Equal(t, series.Bars[298].Date, frame.Dates[frame.Len()-1])

	require.NotNil(t, frame.Latest)
	assert.Equal(t, series.Bars[299].Date, frame.LatestDate)
	assert.Equal(t, series.Bars[299].Close, frame.LatestClose)

	require.NoError(t, frame.Schema.Validate(frame.Schema.Names))
	assert.Len(t, frame.Rows[0], len(frame.Schema.Names))
	assert.Len(t, frame.Latest, len(frame.Schema.Names))
	assert.NotContains(t, frame.Schema.Names, "Bench_Return")

	// Target is the following bar's close, never the row's own
	for i, next := range frame.NextCloses {
		assert.Greater(t, next, 0.0)
		assert.NotEqual(t, frame.Closes[i], 0.0)
	}
	assert.Equal(t, series.Bars[21].Close, frame.NextCloses[0])
}

func TestGenerateNoLookahead(t *testing.T) {
	engine := NewEngine(testLogger(), Options{})
	series := syntheticSeries("MSFT", 300, 11)

	full, err := engine.Generate(series, nil)
	require.NoError(t, err)

	prefix, err := engine.Generate(&contracts.Series{
		Ticker: series.Ticker,
		Bars:   series.Bars[:250],
	}, nil)
	require.NoError(t, err)

	// Every row present in both frames is identical: no feature value
	// depends on bars after the row's own date.
	byDate := make(map[time.Time][]float64, full.Len())
	for i, d := range full.Dates {
		byDate[d] = full.Rows[i]
	}
	for i, d := range prefix.Dates {
		fullRow, ok := byDate[d]
		require.True(t, ok, "prefix row %s missing from full frame", d.Format("2006-01-02"))
		assert.Equal(t, fullRow, prefix.Rows[i], "row %s diverges", d.Format("2006-01-02"))
	}
}

func TestGenerateRejectsShortSeries(t *testing.T) {
	engine := NewEngine(testLogger(), Options{})

	_, err := engine.Generate(syntheticSeries("TSLA", 10, 3), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	_, err = engine.Generate(nil, nil)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestGenerateRejectsTooFewRetainedRows(t *testing.T) {
	engine := NewEngine(testLogger(), Options{})

	// 25 bars pass the input check but only 4 rows survive the window drop
	_, err := engine.Generate(syntheticSeries("NVDA", 25, 5), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestGenerateLongWindows(t *testing.T) {
	engine := NewEngine(testLogger(), Options{UseLongWindows: true})
	series := syntheticSeries("AMZN", 300, 13)

	frame, err := engine.Generate(series, nil)
	require.NoError(t, err)
	assert.Contains(t, frame.Schema.Names, "High52W_Ratio")
	assert.Contains(t, frame.Schema.Names, "Low52W_Ratio")

	// 52-week ratios need 50 observations, so the drop widens
	assert.Equal(t, series.Bars[49].Date, frame.Dates[0])

	hiIdx := -1
	for i, name := range frame.Schema.Names {
		if name == "High52W_Ratio" {
			hiIdx = i
		}
	}
	require.GreaterOrEqual(t, hiIdx, 0)
	for _, row := range frame.Rows {
		assert.LessOrEqual(t, row[hiIdx], 1.0+1e-9)
	}

	_, err = engine.Generate(syntheticSeries("AMZN", 40, 13), nil)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable, "long windows raise the minimum input length")
}

func TestGenerateMarketContext(t *testing.T) {
	log := testLogger()
	series := syntheticSeries("META", 300, 17)

	// Benchmark misses one date in the middle; forward-fill bridges it
	bench := syntheticSeries("^GSPC", 300, 19)
	bench.Bars = append(bench.Bars[:100:100], bench.Bars[101:]...)
	volIdx := syntheticSeries("^VIX", 300, 23)

	engine := NewEngine(log, Options{})
	frame, err := engine.Generate(series, &MarketContext{Benchmark: bench, VolIndex: volIdx})
	require.NoError(t, err)

	for _, name := range []string{"Bench_Return", "Rel_Strength", "Vol_Index", "Market_Stress"} {
		assert.Contains(t, frame.Schema.Names, name)
	}

	benchIdx := -1
	stressIdx := -1
	for i, name := range frame.Schema.Names {
		switch name {
		case "Bench_Return":
			benchIdx = i
		case "Market_Stress":
			stressIdx = i
		}
	}
	require.GreaterOrEqual(t, benchIdx, 0)
	require.GreaterOrEqual(t, stressIdx, 0)

	// The forward-filled gap day repeats the prior benchmark close, so
	// its benchmark return is exactly zero.
	gapDate := series.Bars[100].Date
	for i, d := range frame.Dates {
		if d.Equal(gapDate) {
			assert.Equal(t, 0.0, frame.Rows[i][benchIdx])
		}
		stress := frame.Rows[i][stressIdx]
		assert.True(t, stress == 0 || stress == 1)
	}
}

func TestGenerateMarketContextPolicy(t *testing.T) {
	series := syntheticSeries("GOOG", 300, 29)

	strict := NewEngine(testLogger(), Options{RequireMarketContext: true})
	_, err := strict.Generate(series, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	// Default policy degrades: incomplete context drops the block
	lax := NewEngine(testLogger(), Options{})
	frame, err := lax.Generate(series, &MarketContext{Benchmark: syntheticSeries("^GSPC", 300, 31)})
	require.NoError(t, err)
	assert.NotContains(t, frame.Schema.Names, "Vol_Index")
}

func TestGenerateZeroFillsInfinities(t *testing.T) {
	engine := NewEngine(testLogger(), Options{})
	series := syntheticSeries("INTC", 300, 37)

	// A zero-volume day makes the next day's volume change infinite
	series.Bars[150].Volume = 0

	frame, err := engine.Generate(series, nil)
	require.NoError(t, err)

	for _, row := range frame.Rows {
		for j, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0),
				"non-finite value survived at column %s", frame.Schema.Names[j])
		}
	}
}
