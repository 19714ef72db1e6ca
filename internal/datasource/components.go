package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finboardhq/finboard/pkg/models"
)

// DefaultComponentsURL is the public page carrying the S&P 500 constituents
// table.
const DefaultComponentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

const componentsCacheKey = "components"

// Components retrieves and parses the constituent list of the index from its
// public HTML source. The parsed list is cached; with a zero TTL it lives
// for the whole process.
type Components struct {
	URL   string
	cache *Cache
}

// NewComponents creates a components repository. ttl <= 0 caches for the
// process lifetime.
func NewComponents(ttl time.Duration) *Components {
	return &Components{
		URL:   DefaultComponentsURL,
		cache: NewCache(ttl),
	}
}

// Cache exposes the underlying cache for clock injection and manual refresh.
func (c *Components) Cache() *Cache { return c.cache }

// Fetch returns the full constituent list, keyed uniquely by symbol.
// Repeated calls within the cache window return the same object without a
// network call.
func (c *Components) Fetch(ctx context.Context) (*models.ComponentList, error) {
	if cached, ok := c.cache.Get(componentsCacheKey); ok {
		return cached.(*models.ComponentList), nil
	}

	body, _, err := doGet(ctx, c.URL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("components %s: %w", c.URL, err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse components HTML: %w", err)
	}

	list, err := parseComponentsTable(doc)
	if err != nil {
		return nil, err
	}

	c.cache.Set(componentsCacheKey, list)
	return list, nil
}

// parseComponentsTable extracts the first table in the document into
// company records, mapping columns by header text.
func parseComponentsTable(doc *goquery.Document) (*models.ComponentList, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &ErrParse{Source: "components", Reason: "no table found in document"}
	}

	// Header row: mapping from cell index to column role.
	colIdx := make(map[string]int)
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case header == "symbol":
			colIdx["symbol"] = i
		case header == "security":
			colIdx["security"] = i
		case strings.Contains(header, "sub-industry"):
			colIdx["sub_industry"] = i
		case strings.Contains(header, "sector"):
			colIdx["sector"] = i
		case strings.Contains(header, "headquarters"):
			colIdx["headquarters"] = i
		case strings.Contains(header, "date added"):
			colIdx["date_added"] = i
		case header == "cik":
			colIdx["cik"] = i
		case header == "founded":
			colIdx["founded"] = i
		}
	})

	symCol, ok := colIdx["symbol"]
	if !ok {
		return nil, &ErrParse{Source: "components", Reason: "symbol column not found"}
	}

	var (
		companies []models.Company
		seen      = make(map[string]bool)
		parseErr  *ErrParse
	)
	table.Find("tr").Each(func(rowNum int, row *goquery.Selection) {
		if parseErr != nil || rowNum == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return // header or separator row
		}

		cellText := func(role string) string {
			i, ok := colIdx[role]
			if !ok || i >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		symbol := strings.TrimSpace(cells.Eq(symCol).Text())
		if symbol == "" {
			parseErr = &ErrParse{Source: "components", Reason: fmt.Sprintf("row %d: empty symbol", rowNum)}
			return
		}
		if seen[symbol] {
			parseErr = &ErrParse{Source: "components", Reason: "duplicate symbol: " + symbol}
			return
		}
		seen[symbol] = true

		companies = append(companies, models.Company{
			Symbol:       symbol,
			Security:     cellText("security"),
			Sector:       cellText("sector"),
			SubIndustry:  cellText("sub_industry"),
			Headquarters: cellText("headquarters"),
			DateAdded:    cellText("date_added"),
			CIK:          cellText("cik"),
			Founded:      cellText("founded"),
		})
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(companies) == 0 {
		return nil, &ErrParse{Source: "components", Reason: "table has no data rows"}
	}

	return models.NewComponentList(companies), nil
}
