package models

import "time"

// Table is a windowed view over a quote series: a contiguous suffix of the
// series projected to adjusted close plus zero or more overlay columns.
// Window holds the effective window size after clamping so callers can
// reflect the value actually applied.
type Table struct {
	Symbol  string      `json:"symbol"`
	Dates   []time.Time `json:"dates"`
	Columns []Column    `json:"columns"`
	Window  int         `json:"window"`
}

// Column is a single named series aligned to the table's dates. Overlay
// positions without enough preceding history are nil (JSON null), never
// zero. Period is the effective overlay period, 0 for the base column.
type Column struct {
	Name   string     `json:"name"`
	Period int        `json:"period,omitempty"`
	Values []*float64 `json:"values"`
}

// ColumnStats is the descriptive-statistics projection of one table column,
// computed over its defined values only.
type ColumnStats struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
}
