package models

// FactKind discriminates the variants of an extracted financial fact.
type FactKind string

const (
	FactCurrency   FactKind = "currency"
	FactDate       FactKind = "date"
	FactPercentage FactKind = "percentage"
	FactKeyword    FactKind = "keyword"
	FactTable      FactKind = "table"
)

// Fact is one normalized unit of financial information extracted from a page.
// Facts are immutable and ordered by position of discovery in the document,
// so re-extracting identical HTML yields an identical sequence.
type Fact struct {
	Kind FactKind `json:"kind"`

	// Raw is the matched source text, retained for traceability.
	Raw string `json:"raw,omitempty"`

	// Value holds the numeric value for currency and percentage facts.
	Value float64 `json:"value,omitempty"`

	// Currency is the ISO-style currency code for currency facts (e.g. "USD").
	Currency string `json:"currency,omitempty"`

	// ISODate is the normalized YYYY-MM-DD form for date facts. Empty when
	// the raw text was ambiguous and could not be normalized.
	ISODate string `json:"iso_date,omitempty"`

	// Term and Context describe keyword facts: the profile keyword that
	// matched and a short surrounding snippet for human review.
	Term    string `json:"term,omitempty"`
	Context string `json:"context,omitempty"`

	// Table is set only for table facts.
	Table *TableRecord `json:"table,omitempty"`
}

// TableRecord is a parsed table: one header row plus data rows, tagged with
// the profile selector that matched it.
type TableRecord struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`

	// SourceSelector is the profile selector that located this table.
	SourceSelector string `json:"source_selector"`

	// Financial reports whether any cell matched a currency, percentage,
	// date, or profile-keyword pattern. Non-financial tables are still
	// returned so callers keep the raw structure.
	Financial bool `json:"financial"`
}
