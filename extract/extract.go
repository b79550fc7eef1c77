// Package extract pulls structured financial facts out of page HTML using a
// site profile: currency amounts, percentages, dates, keyword mentions, and
// parsed tables. Extraction is pure, so the same HTML and profile always
// produce the same fact sequence.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
)

var (
	symbolCurrencyRe = regexp.MustCompile(`([$€£¥])\s?(\d[\d,]*(?:\.\d+)?)`)
	codeCurrencyRe   = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s?(USD|EUR|GBP|JPY|CAD|AUD)\b`)
	percentRe        = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s?(?:%|percent)`)
	dateRe           = regexp.MustCompile(`(?i)\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}`)
	spaceRe          = regexp.MustCompile(`\s+`)
)

var symbolCodes = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

// Facts extracts every financial fact from the HTML in document order: text
// facts first, by position in the visible text, then tables in selector
// precedence order.
func Facts(htmlStr string, p profile.Profile) []models.Fact {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		// Unparseable input degrades to plain-text matching.
		return textFacts(htmlStr, p)
	}

	text := visibleText(doc)
	facts := textFacts(text, p)
	facts = append(facts, tableFacts(doc, p)...)
	return facts
}

// match is one positioned text hit, ordered by offset before conversion.
type match struct {
	start int
	fact  models.Fact
}

func textFacts(text string, p profile.Profile) []models.Fact {
	var matches []match

	for _, loc := range symbolCurrencyRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		matches = append(matches, match{loc[0], models.Fact{
			Kind:     models.FactCurrency,
			Raw:      raw,
			Value:    parseAmount(text[loc[4]:loc[5]]),
			Currency: symbolCodes[text[loc[2]:loc[3]]],
			Context:  snippet(text, loc[0], loc[1]),
		}})
	}
	for _, loc := range codeCurrencyRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		matches = append(matches, match{loc[0], models.Fact{
			Kind:     models.FactCurrency,
			Raw:      raw,
			Value:    parseAmount(text[loc[2]:loc[3]]),
			Currency: text[loc[4]:loc[5]],
			Context:  snippet(text, loc[0], loc[1]),
		}})
	}
	for _, loc := range percentRe.FindAllStringSubmatchIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		matches = append(matches, match{loc[0], models.Fact{
			Kind:    models.FactPercentage,
			Raw:     raw,
			Value:   parseAmount(text[loc[2]:loc[3]]),
			Context: snippet(text, loc[0], loc[1]),
		}})
	}
	for _, loc := range dateRe.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		matches = append(matches, match{loc[0], models.Fact{
			Kind:    models.FactDate,
			Raw:     raw,
			ISODate: normalizeDate(raw),
			Context: snippet(text, loc[0], loc[1]),
		}})
	}

	// Keyword offsets must index the original text. Searching a ToLower
	// copy skews them whenever a rune's lowercase form has a different
	// byte length, so the scan folds case in place instead.
	for _, kw := range p.Keywords {
		if kw == "" {
			continue
		}
		for from := 0; ; {
			start, end := foldIndex(text, kw, from)
			if start < 0 {
				break
			}
			matches = append(matches, match{start, models.Fact{
				Kind:    models.FactKeyword,
				Raw:     text[start:end],
				Term:    kw,
				Context: snippet(text, start, end),
			}})
			from = end
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	facts := make([]models.Fact, 0, len(matches))
	for _, m := range matches {
		facts = append(facts, m.fact)
	}
	return facts
}

// foldIndex returns the byte range of the first case-insensitive occurrence
// of needle in text at or after from, or (-1, -1) when there is none. The
// returned offsets always index text itself.
func foldIndex(text, needle string, from int) (int, int) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(text); i++ {
		if !utf8.RuneStart(text[i]) {
			continue
		}
		if n, ok := foldPrefix(text[i:], needle); ok {
			return i, i + n
		}
	}
	return -1, -1
}

// foldPrefix reports whether s begins with needle under rune-wise case
// folding, and how many bytes of s that prefix spans.
func foldPrefix(s, needle string) (int, bool) {
	n := 0
	for _, nr := range needle {
		sr, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(sr) != unicode.ToLower(nr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// parseAmount converts "1,234.56" to its float value. Matched text is always
// digits, commas, and at most one dot, so the zero fallback is unreachable in
// practice.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeDate converts a matched date string to YYYY-MM-DD, or returns ""
// when the string is ambiguous.
func normalizeDate(raw string) string {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// snippet returns a short, whitespace-collapsed window of text around a match.
func snippet(text string, start, end int) string {
	const margin = 40
	lo := start - margin
	if lo < 0 {
		lo = 0
	}
	hi := end + margin
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(text[lo:hi], " "))
}

func visibleText(doc *goquery.Document) string {
	clone := doc.Clone()
	clone.Find("script, style, noscript").Remove()
	body := clone.Find("body")
	if body.Length() == 0 {
		return spaceRe.ReplaceAllString(clone.Text(), " ")
	}
	return spaceRe.ReplaceAllString(body.Text(), " ")
}
