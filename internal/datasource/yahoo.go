package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finboardhq/finboard/pkg/models"
)

// DefaultQuotesBaseURL is the quote provider's chart API base.
const DefaultQuotesBaseURL = "https://query1.finance.yahoo.com"

// Yahoo retrieves historical daily OHLCV series from the Yahoo Finance
// chart API. Series are fetched with range=max and cached per symbol.
type Yahoo struct {
	BaseURL string
	cache   *Cache
}

// NewYahoo creates a quote repository. ttl <= 0 caches each symbol for the
// process lifetime.
func NewYahoo(ttl time.Duration) *Yahoo {
	return &Yahoo{
		BaseURL: DefaultQuotesBaseURL,
		cache:   NewCache(ttl),
	}
}

// Cache exposes the underlying cache for clock injection and manual refresh.
func (y *Yahoo) Cache() *Cache { return y.cache }

// --- Chart API response types ---

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta       `json:"meta"`
	Timestamp  []int64         `json:"timestamp"`
	Indicators chartIndicators `json:"indicators"`
}

type chartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type chartIndicators struct {
	Quote    []chartOHLCV    `json:"quote"`
	AdjClose []chartAdjClose `json:"adjclose"`
}

type chartOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type chartAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// Fetch returns the maximum available daily history for the given symbol.
// Adjusted close is kept as its own field, never folded into close. Bars
// with any missing field are dropped; the returned series has strictly
// increasing dates. Unknown symbols fail with ErrSymbolNotFound.
func (y *Yahoo) Fetch(ctx context.Context, symbol string) (*models.QuoteSeries, error) {
	cacheKey := "quotes:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.QuoteSeries), nil
	}

	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=max&interval=1d&includeAdjustedClose=true",
		y.BaseURL, symbol,
	)
	body, _, err := doGet(ctx, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == 404 {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("quotes %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp chartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse chart response: %w", err)
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
		}
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	series := &models.QuoteSeries{
		Symbol: symbol,
		Bars:   normalizeBars(resp.Chart.Result[0]),
	}

	y.cache.Set(cacheKey, series)
	return series, nil
}

// Prefetch warms the per-symbol cache for several symbols concurrently.
// The first error aborts the group and is returned.
func (y *Yahoo) Prefetch(ctx context.Context, symbols []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, s := range symbols {
		g.Go(func() error {
			_, err := y.Fetch(ctx, s)
			return err
		})
	}
	return g.Wait()
}

// --- Helpers ---

// normalizeBars flattens the chart framing to the fixed bar schema: complete
// rows only, one bar per date, dates strictly increasing.
func normalizeBars(result chartResult) []models.Bar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	at := func(vals []*float64, i int) *float64 {
		if i < len(vals) {
			return vals[i]
		}
		return nil
	}

	byDate := make(map[time.Time]models.Bar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open := at(q.Open, i)
		high := at(q.High, i)
		low := at(q.Low, i)
		close_ := at(q.Close, i)
		adj := at(adjCloses, i)
		var vol *int64
		if i < len(q.Volume) {
			vol = q.Volume[i]
		}

		// Strict completeness: a bar with any missing field is dropped.
		if open == nil || high == nil || low == nil || close_ == nil || adj == nil || vol == nil {
			continue
		}

		// Intraday timestamps collapse to the trading date; on a duplicate
		// date the later bar wins.
		date := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		byDate[date] = models.Bar{
			Date:     date,
			Open:     *open,
			High:     *high,
			Low:      *low,
			Close:    *close_,
			AdjClose: *adj,
			Volume:   *vol,
		}
	}

	bars := make([]models.Bar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}
