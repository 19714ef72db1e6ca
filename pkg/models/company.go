// Package models defines the core data structures used throughout finboard.
package models

import "sort"

// Company represents one constituent row of the index components table.
type Company struct {
	Symbol       string `json:"symbol"`        // e.g., "AAPL"
	Security     string `json:"security"`      // e.g., "Apple Inc."
	Sector       string `json:"sector"`        // GICS sector, e.g., "Information Technology"
	SubIndustry  string `json:"sub_industry"`  // GICS sub-industry
	Headquarters string `json:"headquarters"`  // e.g., "Cupertino, California"
	DateAdded    string `json:"date_added"`    // e.g., "1982-11-30"
	CIK          string `json:"cik"`           // SEC central index key
	Founded      string `json:"founded"`       // e.g., "1977"
}

// ComponentList is the full constituent list, keyed uniquely by symbol.
// Companies preserves the source table order; lookups go through the index.
type ComponentList struct {
	Companies []Company `json:"companies"`

	bySymbol map[string]int
}

// NewComponentList builds a list with its symbol index. Symbols must already
// be unique; duplicate detection happens at parse time.
func NewComponentList(companies []Company) *ComponentList {
	idx := make(map[string]int, len(companies))
	for i, c := range companies {
		idx[c.Symbol] = i
	}
	return &ComponentList{Companies: companies, bySymbol: idx}
}

// Get returns the company for the given symbol.
func (cl *ComponentList) Get(symbol string) (Company, bool) {
	i, ok := cl.bySymbol[symbol]
	if !ok {
		return Company{}, false
	}
	return cl.Companies[i], true
}

// Has reports whether the symbol is a known constituent.
func (cl *ComponentList) Has(symbol string) bool {
	_, ok := cl.bySymbol[symbol]
	return ok
}

// Symbols returns all symbols sorted lexicographically, the order used for
// selection lists.
func (cl *ComponentList) Symbols() []string {
	out := make([]string, 0, len(cl.Companies))
	for _, c := range cl.Companies {
		out = append(out, c.Symbol)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of constituents.
func (cl *ComponentList) Len() int { return len(cl.Companies) }
