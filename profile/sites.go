package profile

import "time"

// defaultSelectors covers table markup across heterogeneous financial pages:
// plain tables, ARIA tables, and the class-name conventions the big sites use.
var defaultSelectors = []string{
	"table",
	`[role="table"]`,
	`[class*="table"]`,
	`[class*="data-table"]`,
	`[class*="grid"]`,
	`[class*="financial"]`,
	`[data-testid*="table"]`,
}

// defaultKeywords is the generic financial vocabulary used when no site
// entry matches.
var defaultKeywords = []string{
	"dividend", "yield", "earnings", "revenue", "profit",
	"ex-dividend", "payment date", "record date",
	"quarterly", "annual", "financial", "income",
	"balance sheet", "cash flow", "market cap",
	"price", "volume", "change", "high", "low",
}

// Generic is the fallback profile returned for unmatched hosts.
var Generic = Profile{
	Name:           "generic",
	TableSelectors: defaultSelectors,
	Keywords:       defaultKeywords,
	Timeout:        30 * time.Second,
	WaitTime:       10 * time.Second,
	DownloadDelay:  3 * time.Second,
	RequiresRender: false,
	MinScore:       5,
}

// sites is the static profile table, keyed by site name. Per-site timing
// reflects how heavy each site's client-side rendering is.
var sites = map[string]Profile{
	"morningstar": {
		Name: "morningstar",
		TableSelectors: []string{
			"table",
			`[class*="table"]`,
			`[class*="dividend"]`,
			`[class*="data-table"]`,
			`[role="table"]`,
			`[data-testid*="table"]`,
			`[data-testid*="dividend"]`,
		},
		Keywords: []string{
			"dividend", "yield", "ex-dividend", "payment date", "record date",
			"quarterly", "annual", "dividend per share", "payout ratio",
			"dividend growth", "trailing yield", "forward yield",
		},
		Timeout:        45 * time.Second,
		WaitTime:       15 * time.Second,
		DownloadDelay:  3 * time.Second,
		RequiresRender: true,
		MinScore:       5,
	},
	"yahoo": {
		Name: "yahoo",
		TableSelectors: []string{
			"table",
			`[data-test*="quote"]`,
			`[data-test*="financials"]`,
			`[class*="table"]`,
			`[class*="data-table"]`,
			`[data-symbol]`,
			"section[data-testid]",
		},
		Keywords: []string{
			"market cap", "volume", "avg volume", "beta", "eps",
			"revenue", "profit margin", "operating margin", "return on equity",
			"price/earnings", "price/book", "debt/equity", "current ratio",
		},
		Timeout:        30 * time.Second,
		WaitTime:       10 * time.Second,
		DownloadDelay:  2 * time.Second,
		RequiresRender: true,
		MinScore:       5,
	},
	"marketwatch": {
		Name: "marketwatch",
		TableSelectors: []string{
			"table",
			`[class*="table"]`,
			`[class*="data-table"]`,
			".region--primary table",
			`[data-module*="financials"]`,
		},
		Keywords: []string{
			"last price", "change", "volume", "market cap",
			"dividend yield", "p/e ratio", "earnings",
		},
		Timeout:        25 * time.Second,
		WaitTime:       8 * time.Second,
		DownloadDelay:  2 * time.Second,
		RequiresRender: false,
		MinScore:       5,
	},
	"google": {
		Name: "google",
		TableSelectors: []string{
			"table",
			`[class*="table"]`,
			"[jsname]",
			"[data-aid]",
		},
		Keywords: []string{
			"price", "change", "volume", "market cap",
			"p/e ratio", "dividend yield",
		},
		Timeout:        20 * time.Second,
		WaitTime:       6 * time.Second,
		DownloadDelay:  time.Second,
		RequiresRender: false,
		MinScore:       5,
	},
}

// ByName returns the profile registered under the given site name, falling
// back to the generic profile for unknown names.
func ByName(name string) Profile {
	if p, ok := sites[name]; ok {
		return p
	}
	return Generic
}
