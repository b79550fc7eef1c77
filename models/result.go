package models

import "time"

// Method identifies an acquisition path.
type Method string

const (
	MethodFast     Method = "fast"
	MethodRendered Method = "rendered"
)

// Attempt records one try of an acquisition method. It is immutable once
// scored; the orchestrator retains the full sequence for diagnostics.
type Attempt struct {
	Method    Method `json:"method"`
	ElapsedMs int64  `json:"elapsed_ms"`

	// StatusCode is the HTTP status for fast attempts, or the best-effort
	// navigation status for rendered attempts (0 when unavailable).
	StatusCode int `json:"status_code,omitempty"`

	// Title is the page title this attempt observed.
	Title string `json:"title,omitempty"`

	// Score is the content quality score of this attempt (0 on failure).
	Score int `json:"score"`

	// Challenge is the final challenge state of a rendered attempt
	// ("none", "resolved", "exhausted"); empty for fast attempts.
	Challenge string `json:"challenge,omitempty"`

	// Error is set when the attempt failed outright.
	Error *ErrorDetail `json:"error,omitempty"`

	// Content is the raw content this attempt produced. Kept off the wire;
	// the chosen attempt's content surfaces through Result.RawHTML.
	Content string `json:"-"`

	// ContentLength mirrors len(Content) for diagnostics.
	ContentLength int `json:"content_length"`
}

// Result is the final artifact of one acquisition. The caller owns it
// exclusively after return; the engine keeps no reference.
type Result struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Success    bool      `json:"success"`
	Method     Method    `json:"method,omitempty"`
	Score      int       `json:"score"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	AcquiredAt time.Time `json:"acquired_at"`

	// Facts is the ordered sequence of extracted financial facts.
	Facts []Fact `json:"facts"`

	// Attempts lists every acquisition attempt in execution order
	// (fast always precedes rendered).
	Attempts []Attempt `json:"attempts"`

	// Errors accumulates recoverable attempt-level failures. Non-empty
	// Errors with Success=true means a later attempt recovered.
	Errors []ErrorDetail `json:"errors,omitempty"`

	// RawHTML is the chosen attempt's content, kept for traceability.
	RawHTML string `json:"-"`
}

// FactsOfKind filters the fact sequence by kind, preserving order.
func (r *Result) FactsOfKind(kind FactKind) []Fact {
	var out []Fact
	for _, f := range r.Facts {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Tables returns the table records in discovery order.
func (r *Result) Tables() []*TableRecord {
	var out []*TableRecord
	for _, f := range r.Facts {
		if f.Kind == FactTable && f.Table != nil {
			out = append(out, f.Table)
		}
	}
	return out
}
