package contracts

import (
	"fmt"
	"time"
)

// Bar is a single daily OHLCV observation
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered daily bar series for one symbol.
// Bars are strictly increasing by date with no duplicates; consumers
// treat the slice as read-only.
type Series struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars
func (s *Series) Len() int {
	return len(s.Bars)
}

// Closes returns the close column
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Tail returns a copy of the series keeping only the most recent n bars
func (s *Series) Tail(n int) *Series {
	if n <= 0 || n >= len(s.Bars) {
		return s
	}
	return &Series{
		Ticker: s.Ticker,
		Bars:   s.Bars[len(s.Bars)-n:],
	}
}

// Validate checks the ordering invariant
func (s *Series) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("series %s: bars out of order at index %d (%s >= %s)",
				s.Ticker, i,
				s.Bars[i-1].Date.Format("2006-01-02"),
				s.Bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// FinancialSnapshot holds two consecutive annual statement periods for one
// company: metric name -> value. A missing metric is simply absent from the
// map.
type FinancialSnapshot struct {
	Ticker string             `json:"ticker"`
	Latest map[string]float64 `json:"latest"`
	Prev   map[string]float64 `json:"prev"`
}
