package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// chartJSON renders a minimal chart API response for n daily bars starting
// at the given epoch. Bar i closes at base+i with adjclose base+i-0.5.
func chartJSON(symbol string, start int64, n int, base float64) string {
	ts, opens, highs, lows, closes, adjs, vols := "", "", "", "", "", "", ""
	for i := 0; i < n; i++ {
		if i > 0 {
			ts += ","
			opens += ","
			highs += ","
			lows += ","
			closes += ","
			adjs += ","
			vols += ","
		}
		c := base + float64(i)
		ts += fmt.Sprintf("%d", start+int64(i)*86400)
		opens += fmt.Sprintf("%.2f", c-1)
		highs += fmt.Sprintf("%.2f", c+1)
		lows += fmt.Sprintf("%.2f", c-2)
		closes += fmt.Sprintf("%.2f", c)
		adjs += fmt.Sprintf("%.2f", c-0.5)
		vols += "1000"
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q,"currency":"USD"},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}],
		"adjclose":[{"adjclose":[%s]}]}}],"error":null}}`,
		symbol, ts, opens, highs, lows, closes, vols, adjs)
}

func newYahooTestServer(t *testing.T, calls *int64) *Yahoo {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		symbol := r.URL.Path[len("/v8/finance/chart/"):]
		switch symbol {
		case "ZZZZ-INVALID":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		default:
			fmt.Fprint(w, chartJSON(symbol, 1700000000, 5, 100))
		}
	}))
	t.Cleanup(ts.Close)

	y := NewYahoo(0)
	y.BaseURL = ts.URL
	return y
}

func TestYahooFetch(t *testing.T) {
	var calls int64
	y := newYahooTestServer(t, &calls)

	qs, err := y.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if qs.Symbol != "AAPL" {
		t.Errorf("Symbol = %q", qs.Symbol)
	}
	if qs.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", qs.Len())
	}

	// Strictly increasing dates, adjusted close kept separate from close.
	for i, b := range qs.Bars {
		if i > 0 && !qs.Bars[i-1].Date.Before(b.Date) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
		if b.AdjClose == b.Close {
			t.Errorf("bar %d: adjclose folded into close", i)
		}
	}
	if qs.Bars[0].Close != 100 || qs.Bars[4].AdjClose != 103.5 {
		t.Errorf("unexpected values: %+v", qs.Bars)
	}
}

func TestYahooFetchCachesPerSymbol(t *testing.T) {
	var calls int64
	y := newYahooTestServer(t, &calls)

	first, err := y.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	second, err := y.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := y.Fetch(context.Background(), "MSFT"); err != nil {
		t.Fatal(err)
	}

	if calls != 2 {
		t.Errorf("upstream called %d times, want 2 (one per distinct symbol)", calls)
	}
	if first != second {
		t.Error("expected the cached series object on the second call")
	}
}

func TestYahooFetchNotFound(t *testing.T) {
	var calls int64
	y := newYahooTestServer(t, &calls)

	_, err := y.Fetch(context.Background(), "ZZZZ-INVALID")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestYahooPrefetch(t *testing.T) {
	var calls int64
	y := newYahooTestServer(t, &calls)

	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN"}
	if err := y.Prefetch(context.Background(), symbols); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if calls != int64(len(symbols)) {
		t.Errorf("upstream called %d times, want %d", calls, len(symbols))
	}

	// Everything is warm now.
	for _, s := range symbols {
		if _, err := y.Fetch(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	if calls != int64(len(symbols)) {
		t.Error("Fetch after Prefetch hit the network")
	}
}

func TestNormalizeBarsDropsIncompleteRows(t *testing.T) {
	open, high, low, close_ := 100.0, 105.0, 98.0, 103.0
	adj := 102.5
	vol := int64(1000)

	result := chartResult{
		Timestamp: []int64{1700000000, 1700086400, 1700172800},
		Indicators: chartIndicators{
			Quote: []chartOHLCV{{
				Open:   []*float64{&open, nil, &open},
				High:   []*float64{&high, &high, &high},
				Low:    []*float64{&low, &low, &low},
				Close:  []*float64{&close_, &close_, &close_},
				Volume: []*int64{&vol, &vol, nil},
			}},
			AdjClose: []chartAdjClose{{AdjClose: []*float64{&adj, &adj, &adj}}},
		},
	}

	bars := normalizeBars(result)
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1 (incomplete rows dropped)", len(bars))
	}
	if bars[0].Open != 100 || bars[0].AdjClose != 102.5 || bars[0].Volume != 1000 {
		t.Errorf("bar = %+v", bars[0])
	}
}

func TestNormalizeBarsDedupesDates(t *testing.T) {
	v1, v2 := 100.0, 200.0
	vol := int64(1)

	// Two timestamps on the same UTC day; the later bar wins.
	day := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	result := chartResult{
		Timestamp: []int64{day.Unix() + 3600, day.Unix() + 7200},
		Indicators: chartIndicators{
			Quote: []chartOHLCV{{
				Open:   []*float64{&v1, &v2},
				High:   []*float64{&v1, &v2},
				Low:    []*float64{&v1, &v2},
				Close:  []*float64{&v1, &v2},
				Volume: []*int64{&vol, &vol},
			}},
			AdjClose: []chartAdjClose{{AdjClose: []*float64{&v1, &v2}}},
		},
	}

	bars := normalizeBars(result)
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	if bars[0].Close != 200 {
		t.Errorf("Close = %v, want the later bar's 200", bars[0].Close)
	}
	if !bars[0].Date.Equal(day) {
		t.Errorf("Date = %v, want %v", bars[0].Date, day)
	}
}

func TestNormalizeBarsEmpty(t *testing.T) {
	if bars := normalizeBars(chartResult{}); bars != nil {
		t.Fatalf("expected nil bars, got %d", len(bars))
	}
}
