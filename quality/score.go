// Package quality estimates how much usable financial data a block of
// content contains. The score drives the orchestrator's decision to escalate
// from the fast fetch path to full browser rendering.
package quality

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/finsight-hq/finsight/profile"
)

// Weights for each signal class. Keywords weigh most: pages that talk about
// dividends and yields are worth rendering even when the numbers themselves
// arrive late via JavaScript.
const (
	weightCurrency   = 2
	weightPercentage = 1
	weightDate       = 1
	weightKeyword    = 3
	weightTable      = 5
)

var (
	currencyRe = regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d+)?|\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|JPY|CAD|AUD)\b`)
	percentRe  = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?\s?(?:%|percent)`)
	dateRe     = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}`)
)

// Score grades content for financial-data density against a profile.
// It is a pure function of its inputs: non-negative, deterministic, and
// monotonic (an extra matching substring never lowers the score).
func Score(content string, p profile.Profile) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}

	score := weightCurrency * len(currencyRe.FindAllString(content, -1))
	score += weightPercentage * len(percentRe.FindAllString(content, -1))
	score += weightDate * len(dateRe.FindAllString(content, -1))

	lower := strings.ToLower(content)
	for _, kw := range p.Keywords {
		score += weightKeyword * strings.Count(lower, strings.ToLower(kw))
	}

	if hasTable(content, p.TableSelectors) {
		score += weightTable
	}
	return score
}

// LooksFinancial reports whether a fragment of visible text contains at
// least one currency, percentage, date, or keyword signal. The extractor
// uses it to flag tables as financial.
func LooksFinancial(text string, keywords []string) bool {
	if currencyRe.MatchString(text) || percentRe.MatchString(text) || dateRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// hasTable reports whether any profile table selector matches at least one
// element. Content that is not parseable HTML simply earns no table bonus.
func hasTable(content string, selectors []string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return false
	}
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}
