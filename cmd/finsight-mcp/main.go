// Package main provides an MCP stdio server exposing the finsight API as
// tools, so agents can acquire financial pages without speaking HTTP.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// acquireRequest mirrors the finsight API request model.
type acquireRequest struct {
	URL           string `json:"url,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	Site          string `json:"site,omitempty"`
	Page          string `json:"page,omitempty"`
	Method        string `json:"method,omitempty"`
	ContentFormat string `json:"content_format,omitempty"`
}

// acquireResponse mirrors the finsight API response model.
type acquireResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Result  *struct {
		URL    string `json:"url"`
		Title  string `json:"title"`
		Method string `json:"method"`
		Score  int    `json:"score"`
		Facts  []struct {
			Kind     string  `json:"kind"`
			Raw      string  `json:"raw"`
			Value    float64 `json:"value"`
			Currency string  `json:"currency"`
			ISODate  string  `json:"iso_date"`
			Term     string  `json:"term"`
			Context  string  `json:"context"`
			Table    *struct {
				Header []string   `json:"header"`
				Rows   [][]string `json:"rows"`
			} `json:"table"`
		} `json:"facts"`
	} `json:"result"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchResponse mirrors the finsight batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// batchStatusResponse mirrors the finsight batch status API response.
type batchStatusResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Results   []json.RawMessage `json:"results"`
}

func main() {
	apiURL := os.Getenv("FINSIGHT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FINSIGHT_API_KEY")

	s := server.NewMCPServer(
		"finsight",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	acquireTool := mcp.NewTool("acquire_financial_page",
		mcp.WithDescription("Acquire a financial web page and return the extracted facts (currency amounts, percentages, dates, keyword mentions, tables). Escalates to a headless browser for JavaScript-heavy pages and anti-bot challenges. Provide either url, or symbol plus site/page."),
		mcp.WithString("url",
			mcp.Description("The URL of the financial page to acquire"),
		),
		mcp.WithString("symbol",
			mcp.Description("Ticker symbol, e.g. 'AAPL' (alternative to url)"),
		),
		mcp.WithString("site",
			mcp.Description("Site for symbol mode (default: 'morningstar')"),
			mcp.Enum("morningstar", "yahoo", "marketwatch", "google"),
		),
		mcp.WithString("page",
			mcp.Description("Page kind for symbol mode (default: 'dividends')"),
			mcp.Enum("dividends", "financials", "quote"),
		),
		mcp.WithString("method",
			mcp.Description("Acquisition method: 'auto' (default, escalates as needed), 'fast' (HTTP fetch only), or 'rendered' (headless browser only)"),
			mcp.Enum("auto", "fast", "rendered"),
		),
		mcp.WithString("content_format",
			mcp.Description("Include the page content in the result: 'none' (default, facts only), 'markdown', 'text', or 'html'"),
			mcp.Enum("none", "markdown", "text", "html"),
		),
	)
	s.AddTool(acquireTool, handleAcquire(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_acquire",
		mcp.WithDescription("Acquire multiple financial pages in parallel and return the extracted facts for each. Useful for comparing several tickers or sources at once."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to acquire"),
		),
		mcp.WithString("method",
			mcp.Description("Acquisition method applied to every URL: 'auto' (default), 'fast', or 'rendered'"),
			mcp.Enum("auto", "fast", "rendered"),
		),
		mcp.WithString("content_format",
			mcp.Description("Include page content per result: 'none' (default), 'markdown', 'text', or 'html'"),
			mcp.Enum("none", "markdown", "text", "html"),
		),
	)
	s.AddTool(batchTool, handleBatchAcquire(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the finsight API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			if apiKey != "" {
				req.Header.Set("X-API-Key", apiKey)
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

func handleAcquire(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 150 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqBody := acquireRequest{
			URL:           request.GetString("url", ""),
			Symbol:        request.GetString("symbol", ""),
			Site:          request.GetString("site", ""),
			Page:          request.GetString("page", ""),
			Method:        request.GetString("method", ""),
			ContentFormat: request.GetString("content_format", ""),
		}
		if reqBody.URL == "" && reqBody.Symbol == "" {
			return mcp.NewToolResultError("either url or symbol is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/acquire", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp acquireResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}

		return mcp.NewToolResultText(formatAcquireResult(&resp)), nil
	}
}

func handleBatchAcquire(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		payload := map[string]interface{}{
			"urls": urls,
			"options": map[string]interface{}{
				"method":         request.GetString("method", ""),
				"content_format": request.GetString("content_format", ""),
			},
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/batch/acquire", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var batchResp batchResponse
		if err := json.Unmarshal(respBody, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}
		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/batch/"+batchResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var statusResp batchStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Batch %s: %s (%d/%d completed)\n\n",
			statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total))

		for i, raw := range statusResp.Results {
			var ar acquireResponse
			if err := json.Unmarshal(raw, &ar); err != nil {
				sb.WriteString(fmt.Sprintf("--- Result %d: parse error ---\n\n", i+1))
				continue
			}
			title := ""
			if ar.Result != nil {
				title = ar.Result.Title
			}
			sb.WriteString(fmt.Sprintf("--- [%d] %s ---\n%s\n\n", i+1, title, formatAcquireResult(&ar)))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatAcquireResult renders an API response as readable text for the agent.
func formatAcquireResult(resp *acquireResponse) string {
	var sb strings.Builder

	if resp.Result != nil {
		r := resp.Result
		sb.WriteString(fmt.Sprintf("Title: %s\nSource: %s\nMethod: %s (score %d, success=%t)\n\n",
			r.Title, r.URL, r.Method, r.Score, resp.Success))

		if len(r.Facts) == 0 {
			sb.WriteString("No financial facts extracted.\n")
		}
		for _, f := range r.Facts {
			switch f.Kind {
			case "currency":
				sb.WriteString(fmt.Sprintf("- currency: %.2f %s (%q)\n", f.Value, f.Currency, f.Raw))
			case "percentage":
				sb.WriteString(fmt.Sprintf("- percentage: %.2f%% (%q)\n", f.Value, f.Raw))
			case "date":
				sb.WriteString(fmt.Sprintf("- date: %s (%q)\n", f.ISODate, f.Raw))
			case "keyword":
				sb.WriteString(fmt.Sprintf("- keyword %q: %s\n", f.Term, f.Context))
			case "table":
				if f.Table != nil {
					sb.WriteString(fmt.Sprintf("- table (%d rows): %s\n",
						len(f.Table.Rows), strings.Join(f.Table.Header, " | ")))
				}
			}
		}
	} else if !resp.Success {
		sb.WriteString("Acquisition failed with no result.\n")
	}

	if resp.Content != "" {
		sb.WriteString("\n---\n")
		sb.WriteString(resp.Content)
	}

	return sb.String()
}
