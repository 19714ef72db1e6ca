package models

import "time"

// Bar represents a single daily bar of price data. AdjClose is the
// dividend/split adjusted close, kept separate from the raw close.
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// QuoteSeries is the full available daily history for one symbol.
// Invariant: Bars are sorted by date, strictly increasing, and every bar is
// complete (normalization drops incomplete rows before the series is built).
type QuoteSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (qs *QuoteSeries) Len() int { return len(qs.Bars) }

// AdjCloses returns the adjusted-close column in date order.
func (qs *QuoteSeries) AdjCloses() []float64 {
	out := make([]float64, len(qs.Bars))
	for i, b := range qs.Bars {
		out[i] = b.AdjClose
	}
	return out
}

// Dates returns the date column in order.
func (qs *QuoteSeries) Dates() []time.Time {
	out := make([]time.Time, len(qs.Bars))
	for i, b := range qs.Bars {
		out[i] = b.Date
	}
	return out
}
