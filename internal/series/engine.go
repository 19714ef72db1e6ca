// Package series computes windowed views and rolling-mean overlays over a
// quote series. Everything here is pure computation: no I/O, no caching.
package series

import (
	"fmt"

	"github.com/finboardhq/finboard/pkg/models"
)

// Window and overlay bounds. Out-of-range requests are clamped, not
// rejected; the effective values are reported back in the Table.
const (
	MinWindow = 30
	MaxWindow = 2000
	MinPeriod = 5
	MaxPeriod = 500
)

// BaseColumn is the name of the primary displayed column.
const BaseColumn = "Adj Close"

// OverlaySpec requests one simple-moving-average overlay column.
type OverlaySpec struct {
	Period int `json:"period"`
}

// WindowedView selects the last windowSize bars of the series and projects
// them to adjusted close plus one SMA column per overlay. Each overlay is
// computed over the FULL series and then restricted to the window, so early
// window positions still have values when enough history precedes the
// window. Overlays are independent of each other.
func WindowedView(qs *models.QuoteSeries, windowSize int, overlays []OverlaySpec) *models.Table {
	n := qs.Len()
	w := ClampWindow(windowSize, n)

	start := n - w
	dates := qs.Dates()[start:]

	adj := qs.AdjCloses()
	base := models.Column{Name: BaseColumn, Values: toPtrs(adj[start:])}

	columns := make([]models.Column, 0, 1+len(overlays))
	columns = append(columns, base)

	for _, ov := range overlays {
		p := ClampPeriod(ov.Period)
		full := sma(adj, p)
		columns = append(columns, models.Column{
			Name:   fmt.Sprintf("SMA %d", p),
			Period: p,
			Values: full[start:],
		})
	}

	return &models.Table{
		Symbol:  qs.Symbol,
		Dates:   dates,
		Columns: columns,
		Window:  w,
	}
}

// ClampWindow clamps a requested window size to [MinWindow, min(MaxWindow,
// seriesLen)]. For series shorter than MinWindow the whole series is the
// window.
func ClampWindow(windowSize, seriesLen int) int {
	upper := MaxWindow
	if seriesLen < upper {
		upper = seriesLen
	}
	lower := MinWindow
	if upper < lower {
		lower = upper
	}
	if windowSize < lower {
		return lower
	}
	if windowSize > upper {
		return upper
	}
	return windowSize
}

// ClampPeriod clamps an overlay period to [MinPeriod, MaxPeriod].
func ClampPeriod(period int) int {
	if period < MinPeriod {
		return MinPeriod
	}
	if period > MaxPeriod {
		return MaxPeriod
	}
	return period
}

// sma computes the simple moving average with a rolling sum. Positions with
// fewer than period preceding values are nil, never zero.
func sma(data []float64, period int) []*float64 {
	n := len(data)
	result := make([]*float64, n)
	if n < period || period <= 0 {
		return result
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	v := sum / float64(period)
	result[period-1] = &v

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		v := sum / float64(period)
		result[i] = &v
	}

	return result
}

func toPtrs(data []float64) []*float64 {
	out := make([]*float64, len(data))
	for i := range data {
		v := data[i]
		out[i] = &v
	}
	return out
}
