package profile

import (
	"fmt"
	"strings"
)

// URL builders for the registered sites. Symbol-based callers (CLI, API
// symbol mode) use these instead of hand-assembling URLs.

// PageURL builds the page URL for a symbol on a registered site. Unknown
// sites and page kinds fall back to the site's quote-style page.
func PageURL(site, symbol, page string) string {
	switch site {
	case "yahoo":
		return yahooURL(symbol, page)
	case "marketwatch":
		return marketwatchURL(symbol, page)
	case "google":
		return googleURL(symbol)
	default:
		return morningstarURL(symbol, page)
	}
}

func morningstarURL(symbol, page string) string {
	switch page {
	case "dividends", "financials", "quote", "analysis", "chart":
	default:
		page = "quote"
	}
	return fmt.Sprintf("https://www.morningstar.com/stocks/xnas/%s/%s",
		strings.ToLower(symbol), page)
}

func yahooURL(symbol, page string) string {
	base := "https://finance.yahoo.com/quote/" + strings.ToUpper(symbol)
	if page == "" || page == "quote" {
		return base
	}
	return base + "/" + page
}

func marketwatchURL(symbol, page string) string {
	base := "https://www.marketwatch.com/investing/stock/" + strings.ToLower(symbol)
	if page == "" || page == "quote" {
		return base
	}
	return base + "/" + page
}

// googleURL always targets the quote page; Google Finance has no per-page
// symbol routes worth distinguishing.
func googleURL(symbol string) string {
	return fmt.Sprintf("https://www.google.com/finance/quote/%s:NASDAQ",
		strings.ToUpper(symbol))
}
