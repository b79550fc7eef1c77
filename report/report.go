// Package report renders the winning attempt's HTML into the content formats
// the API exposes alongside extracted facts: cleaned HTML, plain text, or
// Markdown with tables preserved.
package report

import (
	"fmt"
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// Supported content formats.
const (
	FormatNone     = "none"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatHTML     = "html"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to raw HTML.
const minContentLength = 50

// Renderer converts raw page HTML to a requested content format. The
// embedded Markdown converter is goroutine-safe, so one Renderer serves all
// requests.
type Renderer struct {
	conv *converter.Converter
}

// NewRenderer builds a Renderer with table-preserving Markdown output.
// Financial pages are mostly tables; collapsing them would destroy the data.
func NewRenderer() *Renderer {
	return &Renderer{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					// Minimal padding keeps wide dividend tables compact.
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Render produces the requested format from rawHTML. FormatNone returns "".
func (r *Renderer) Render(rawHTML, sourceURL, format string) (string, error) {
	switch format {
	case "", FormatNone:
		return "", nil
	case FormatHTML:
		article, _ := extractArticle(rawHTML, sourceURL)
		return article.Content, nil
	case FormatText:
		article, _ := extractArticle(rawHTML, sourceURL)
		return strings.TrimSpace(article.TextContent), nil
	case FormatMarkdown:
		article, _ := extractArticle(rawHTML, sourceURL)
		domain := ""
		if u, err := nurl.Parse(sourceURL); err == nil {
			domain = u.Hostname()
		}
		md, err := r.conv.ConvertString(article.Content, converter.WithDomain(domain))
		if err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return strings.TrimSpace(md), nil
	default:
		return "", fmt.Errorf("unknown content format %q", format)
	}
}

// extractArticle runs the Mozilla Readability algorithm on rawHTML.
//
// Fallback behaviour (rendering must never fail just because readability
// choked): invalid URL, extraction error, or near-empty output all return
// the raw HTML unchanged. The second return reports whether readability
// succeeded.
func extractArticle(rawHTML, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML), false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, falling back to raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML), false
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return fallbackArticle(rawHTML), false
	}

	return article, true
}

func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: rawHTML,
	}
}
