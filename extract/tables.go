package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
	"github.com/finsight-hq/finsight/quality"
)

// tableFacts parses every element matched by the profile's table selectors.
// Selectors are tried in profile order; an element claimed by an earlier
// selector is not re-emitted for a later one.
func tableFacts(doc *goquery.Document, p profile.Profile) []models.Fact {
	seen := make(map[*html.Node]bool)
	var facts []models.Fact

	for _, sel := range p.TableSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			node := s.Get(0)
			if seen[node] {
				return
			}
			seen[node] = true

			record := parseTable(s, sel, p.Keywords)
			if record == nil {
				return
			}
			facts = append(facts, models.Fact{
				Kind:  models.FactTable,
				Table: record,
			})
		})
	}
	return facts
}

// parseTable reads one matched element into a TableRecord. Elements with no
// recognizable row structure yield nil.
func parseTable(s *goquery.Selection, selector string, keywords []string) *models.TableRecord {
	rowSel, cellSel, headerSel := "tr", "td", "th"
	if s.Find("tr").Length() == 0 {
		// ARIA grid markup, common on JavaScript-rendered quote pages.
		rowSel, cellSel, headerSel = `[role="row"]`, `[role="cell"], [role="gridcell"]`, `[role="columnheader"]`
	}

	var header []string
	var rows [][]string
	s.Find(rowSel).Each(func(_ int, row *goquery.Selection) {
		if heads := cellTexts(row.Find(headerSel)); len(heads) > 0 && header == nil {
			header = heads
			return
		}
		if cells := cellTexts(row.Find(cellSel)); len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if header == nil && len(rows) == 0 {
		return nil
	}

	return &models.TableRecord{
		Header:         header,
		Rows:           rows,
		SourceSelector: selector,
		Financial:      quality.LooksFinancial(s.Text(), keywords),
	}
}

func cellTexts(cells *goquery.Selection) []string {
	var out []string
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, strings.TrimSpace(spaceRe.ReplaceAllString(c.Text(), " ")))
	})
	return out
}
