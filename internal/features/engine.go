package features

import (
	"fmt"
	"math"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/pkg/logger"
)

const (
	// epsilon guards ratio denominators that can legitimately reach zero
	epsilon = 1e-10

	// stressLevel is the volatility-index close above which the market
	// is flagged as stressed.
	stressLevel = 25.0

	defaultMinBars = 20
	longMinBars    = 50
	minOutputRows  = 10

	tradingDaysPerYear = 252
)

// Options controls optional feature blocks.
type Options struct {
	// MinBars overrides the minimum input length (defaults to 20, or 50
	// when long windows are enabled).
	MinBars int

	// UseLongWindows adds the 52-week high/low ratio columns.
	UseLongWindows bool

	// RequireMarketContext makes a missing market-context block a hard
	// failure instead of a logged degradation.
	RequireMarketContext bool
}

// MarketContext carries the secondary index series used for the
// market-wide feature block.
type MarketContext struct {
	Benchmark *contracts.Series
	VolIndex  *contracts.Series
}

func (m *MarketContext) complete() bool {
	return m != nil &&
		m.Benchmark != nil && m.Benchmark.Len() > 0 &&
		m.VolIndex != nil && m.VolIndex.Len() > 0
}

// Frame is the engineered output for one ticker: one row per retained
// bar, aligned dates, the current close per row, and the next-day close
// target. Latest is the most recent bar's feature vector, which has no
// target yet and is the row inference predicts from.
type Frame struct {
	Schema contracts.FeatureSchema

	Dates      []time.Time
	Rows       [][]float64
	Closes     []float64
	NextCloses []float64

	Latest      []float64
	LatestDate  time.Time
	LatestClose float64
}

// Len returns the number of retained training rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Engine turns a raw OHLCV series into the model feature matrix.
// All columns are price-scale-invariant ratios apart from the raw Close
// anchor, and every value is computed from the row's own bar and earlier
// bars only.
type Engine struct {
	logger *logger.Logger
	opts   Options
}

// NewEngine creates a new feature engine
func NewEngine(log *logger.Logger, opts Options) *Engine {
	if opts.MinBars <= 0 {
		opts.MinBars = defaultMinBars
		if opts.UseLongWindows {
			opts.MinBars = longMinBars
		}
	}
	return &Engine{logger: log, opts: opts}
}

// column is one named engineered series, full input length, NaN where
// the window is unresolved.
type column struct {
	name   string
	values []float64
}

// Generate computes the feature matrix, next-close target, and latest
// inference row for the series. Market context is optional; when absent
// the context columns are omitted (or the call fails, depending on
// Options.RequireMarketContext).
func (e *Engine) Generate(series *contracts.Series, market *MarketContext) (*Frame, error) {
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", contracts.ErrDataUnavailable)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrDataUnavailable, err)
	}
	n := series.Len()
	if n < e.opts.MinBars {
		return nil, fmt.Errorf("%w: %s has %d bars, need at least %d",
			contracts.ErrDataUnavailable, series.Ticker, n, e.opts.MinBars)
	}

	withMarket := market.complete()
	if !withMarket {
		if e.opts.RequireMarketContext {
			return nil, fmt.Errorf("%w: market context required but unavailable", contracts.ErrDataUnavailable)
		}
		if market != nil {
			e.logger.WithField("ticker", series.Ticker).
				Warn("Market context incomplete, continuing without context features")
		}
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closeP := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range series.Bars {
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closeP[i] = b.Close
		volume[i] = b.Volume
	}

	cols := e.buildColumns(open, high, low, closeP, volume)
	if withMarket {
		cols = append(cols, e.marketColumns(series, closeP, market)...)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	schema := contracts.NewFeatureSchema(names)

	// Next-day close target; the final bar has none.
	target := make([]float64, n)
	for i := range target {
		if i == n-1 {
			target[i] = math.NaN()
			continue
		}
		target[i] = closeP[i+1]
	}

	frame := &Frame{Schema: schema}
	latestIdx := -1
	for i := 0; i < n; i++ {
		resolved := true
		for _, c := range cols {
			if math.IsNaN(c.values[i]) {
				resolved = false
				break
			}
		}
		if !resolved {
			continue
		}
		latestIdx = i
		if math.IsNaN(target[i]) {
			continue
		}
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.values[i]
		}
		frame.Dates = append(frame.Dates, series.Bars[i].Date)
		frame.Rows = append(frame.Rows, row)
		frame.Closes = append(frame.Closes, closeP[i])
		frame.NextCloses = append(frame.NextCloses, target[i])
	}

	if len(frame.Rows) < minOutputRows {
		return nil, fmt.Errorf("%w: %s retained only %d rows after dropping unresolved windows, need %d",
			contracts.ErrInsufficientHistory, series.Ticker, len(frame.Rows), minOutputRows)
	}

	if latestIdx >= 0 {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c.values[latestIdx]
		}
		frame.Latest = row
		frame.LatestDate = series.Bars[latestIdx].Date
		frame.LatestClose = closeP[latestIdx]
	}

	e.zeroFillNonFinite(series.Ticker, frame)

	e.logger.WithFields(map[string]interface{}{
		"ticker":         series.Ticker,
		"input_bars":     n,
		"rows":           frame.Len(),
		"features":       len(names),
		"market_context": withMarket,
	}).Debug("Generated feature matrix")

	return frame, nil
}

// buildColumns computes the always-present feature set, in schema order.
func (e *Engine) buildColumns(open, high, low, closeP, volume []float64) []column {
	n := len(closeP)
	cols := make([]column, 0, 36)
	add := func(name string, values []float64) {
		cols = append(cols, column{name: name, values: values})
	}

	// Raw close stays in as the anchor for next-day price level.
	add("Close", closeP)

	add("Lag1_Ratio", ratio(shift(closeP, 1), closeP, 0))
	add("Lag2_Ratio", ratio(shift(closeP, 2), closeP, 0))

	for _, w := range []int{5, 10, 14} {
		add(fmt.Sprintf("MA%d_Ratio", w), ratio(rollingMean(closeP, w), closeP, 0))
	}
	for _, span := range []int{5, 10, 14} {
		add(fmt.Sprintf("EMA%d_Ratio", span), ratio(ewm(closeP, span), closeP, 0))
	}

	dailyReturn := pctChange(closeP, 1)
	add("Daily_Return", dailyReturn)

	annualize := math.Sqrt(tradingDaysPerYear)
	vol5 := scale(rollingStd(dailyReturn, 5), annualize)
	vol10 := scale(rollingStd(dailyReturn, 10), annualize)
	add("Volatility5", vol5)
	add("Volatility10", vol10)

	// Intraday range, body, and shadow ratios
	hlPct := make([]float64, n)
	coPct := make([]float64, n)
	hcPct := make([]float64, n)
	clPct := make([]float64, n)
	for i := 0; i < n; i++ {
		hlPct[i] = (high[i] - low[i]) / closeP[i]
		coPct[i] = (closeP[i] - open[i]) / open[i]
		hcPct[i] = (high[i] - closeP[i]) / closeP[i]
		clPct[i] = (closeP[i] - low[i]) / closeP[i]
	}
	add("High_Low_Pct", hlPct)
	add("Close_Open_Pct", coPct)
	add("High_Close_Pct", hcPct)
	add("Close_Low_Pct", clPct)

	add("Volume_Ratio_5", ratio(volume, rollingMean(volume, 5), epsilon))
	add("Volume_Ratio_10", ratio(volume, rollingMean(volume, 10), epsilon))
	add("Volume_Change", pctChange(volume, 1))

	add("RSI14", rsi(closeP, 14))
	add("MACD_Ratio", ratio(sub(ewm(closeP, 12), ewm(closeP, 26)), closeP, 0))
	add("ATR_Pct", ratio(atr(high, low, closeP, 14), closeP, 0))
	add("OBV_Ratio", obvRatio(closeP, volume, 20))

	add("ROC5", pctChange(closeP, 5))
	add("ROC10", pctChange(closeP, 10))
	add("ROC20", pctChange(closeP, 20))
	add("Momentum_3", pctChange(closeP, 3))
	add("Momentum_7", pctChange(closeP, 7))

	add("Vol_of_Vol10", rollingStd(vol10, 10))

	bbWidth, bbPosition := bollinger(closeP, 20)
	add("BB_Width20", bbWidth)
	add("BB_Position20", bbPosition)

	add("Up_Streak", upStreak(closeP))

	if e.opts.UseLongWindows {
		yearHigh, yearLow := rollingMaxMin(closeP, tradingDaysPerYear, longMinBars)
		add("High52W_Ratio", ratio(closeP, yearHigh, epsilon))
		add("Low52W_Ratio", ratio(closeP, yearLow, epsilon))
	}

	return cols
}

// marketColumns builds the benchmark/volatility block aligned to the
// primary calendar by forward-fill.
func (e *Engine) marketColumns(series *contracts.Series, closeP []float64, market *MarketContext) []column {
	bench := forwardFill(series, market.Benchmark)
	volIdx := forwardFill(series, market.VolIndex)

	benchReturn := pctChange(bench, 1)
	dailyReturn := pctChange(closeP, 1)

	n := len(closeP)
	relStrength := make([]float64, n)
	stress := make([]float64, n)
	for i := 0; i < n; i++ {
		relStrength[i] = dailyReturn[i] - benchReturn[i]
		if math.IsNaN(volIdx[i]) {
			stress[i] = math.NaN()
			continue
		}
		if volIdx[i] > stressLevel {
			stress[i] = 1
		}
	}

	return []column{
		{name: "Bench_Return", values: benchReturn},
		{name: "Rel_Strength", values: relStrength},
		{name: "Vol_Index", values: volIdx},
		{name: "Market_Stress", values: stress},
	}
}

// zeroFillNonFinite replaces any residual NaN/Inf with 0, logging how
// many values were touched. A known approximation carried over from the
// row-drop step: infinities (zero-volume days) survive it.
func (e *Engine) zeroFillNonFinite(ticker string, frame *Frame) {
	var patched int
	clean := func(row []float64) {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[j] = 0
				patched++
			}
		}
	}
	for _, row := range frame.Rows {
		clean(row)
	}
	if frame.Latest != nil {
		clean(frame.Latest)
	}
	if patched > 0 {
		e.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"values": patched,
		}).Warn("Non-finite feature values zero-filled")
	}
}

// ratio divides num by denom element-wise, adding eps to the denominator
func ratio(num, denom []float64, eps float64) []float64 {
	out := make([]float64, len(num))
	for i := range out {
		out[i] = num[i] / (denom[i] + eps)
	}
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] - b[i]
	}
	return out
}

func scale(x []float64, k float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = x[i] * k
	}
	return out
}

// rsi computes the rolling-mean gain/loss RSI, bounded 0-100.
// The epsilon keeps an all-gain window from dividing by zero.
func rsi(closeP []float64, period int) []float64 {
	delta := diff(closeP)
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		// The unresolved first delta counts as neither gain nor loss
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}
	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := make([]float64, len(closeP))
	for i := range out {
		rs := avgGain[i] / (avgLoss[i] + epsilon)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// atr computes the average true range over the period. The first bar's
// true range falls back to its high-low span.
func atr(high, low, closeP []float64, period int) []float64 {
	prevClose := shift(closeP, 1)
	tr := make([]float64, len(closeP))
	for i := range tr {
		tr[i] = high[i] - low[i]
		if math.IsNaN(prevClose[i]) {
			continue
		}
		if d := math.Abs(high[i] - prevClose[i]); d > tr[i] {
			tr[i] = d
		}
		if d := math.Abs(low[i] - prevClose[i]); d > tr[i] {
			tr[i] = d
		}
	}
	return rollingMean(tr, period)
}

// obvRatio computes On-Balance Volume normalized by its own rolling
// mean, bounding an otherwise unbounded cumulative sum.
func obvRatio(closeP, volume []float64, window int) []float64 {
	delta := diff(closeP)
	signed := make([]float64, len(delta))
	for i, d := range delta {
		switch {
		case math.IsNaN(d):
			signed[i] = math.NaN()
		case d > 0:
			signed[i] = volume[i]
		case d < 0:
			signed[i] = -volume[i]
		}
	}
	obv := cumsumSkipNaN(signed)
	obvMean := rollingMean(obv, window)
	return ratio(obv, obvMean, epsilon)
}

// bollinger returns the 2-sigma band width relative to the middle band
// and the close's position within the band.
func bollinger(closeP []float64, window int) (width, position []float64) {
	mid := rollingMean(closeP, window)
	sd := rollingStd(closeP, window)
	width = make([]float64, len(closeP))
	position = make([]float64, len(closeP))
	for i := range closeP {
		span := 4 * sd[i]
		width[i] = span / mid[i]
		position[i] = (closeP[i] - (mid[i] - 2*sd[i])) / (span + epsilon)
	}
	return width, position
}

// upStreak counts consecutive up closes ending at each row
func upStreak(closeP []float64) []float64 {
	out := make([]float64, len(closeP))
	for i := 1; i < len(closeP); i++ {
		if closeP[i] > closeP[i-1] {
			out[i] = out[i-1] + 1
		}
	}
	return out
}

// forwardFill projects a secondary series onto the primary calendar,
// carrying the last close observed on or before each primary date.
// Dates before the secondary series starts stay NaN.
func forwardFill(primary *contracts.Series, secondary *contracts.Series) []float64 {
	out := make([]float64, primary.Len())
	j := 0
	last := math.NaN()
	for i, bar := range primary.Bars {
		for j < len(secondary.Bars) && !secondary.Bars[j].Date.After(bar.Date) {
			last = secondary.Bars[j].Close
			j++
		}
		out[i] = last
	}
	return out
}
