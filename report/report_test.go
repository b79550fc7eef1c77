package report

import (
	"strings"
	"testing"
)

var samplePage = `<html><head><title>AAPL Dividend History</title></head><body>
<article>
<h1>Dividend History</h1>
<p>` + strings.Repeat("Apple pays a quarterly dividend to shareholders of record. ", 4) + `</p>
<table>
<tr><th>Ex-Date</th><th>Amount</th></tr>
<tr><td>2024-02-09</td><td>$0.24</td></tr>
</table>
</article>
</body></html>`

func TestRender_None(t *testing.T) {
	r := NewRenderer()
	for _, format := range []string{"", FormatNone} {
		got, err := r.Render(samplePage, "https://example.com/aapl", format)
		if err != nil || got != "" {
			t.Errorf("Render(%q) = %q, %v; want empty, nil", format, got, err)
		}
	}
}

func TestRender_MarkdownKeepsTables(t *testing.T) {
	r := NewRenderer()
	got, err := r.Render(samplePage, "https://example.com/aapl", FormatMarkdown)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "$0.24") || !strings.Contains(got, "2024-02-09") {
		t.Errorf("markdown lost table data:\n%s", got)
	}
	if !strings.Contains(got, "|") {
		t.Errorf("markdown has no table rows:\n%s", got)
	}
}

func TestRender_Text(t *testing.T) {
	r := NewRenderer()
	got, err := r.Render(samplePage, "https://example.com/aapl", FormatText)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "quarterly dividend") {
		t.Errorf("text output missing body copy:\n%s", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("text output contains markup:\n%s", got)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(samplePage, "https://example.com/aapl", "pdf"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestRender_ShortContentFallsBack(t *testing.T) {
	r := NewRenderer()
	raw := `<html><body><p>tiny</p></body></html>`
	got, err := r.Render(raw, "https://example.com/x", FormatHTML)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "tiny") {
		t.Errorf("fallback lost the original content: %q", got)
	}
}
