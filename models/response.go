package models

// AcquireResponse is the response for POST /api/v1/acquire.
type AcquireResponse struct {
	// Success mirrors Result.Success: at least one attempt met the
	// profile's quality threshold.
	Success bool `json:"success"`

	// Result is the structured acquisition outcome (facts, attempts, errors).
	Result *Result `json:"result,omitempty"`

	// Content is the chosen attempt's content rendered in the requested
	// format ("markdown", "text", "html"); empty when not requested.
	Content string `json:"content,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only for request-level failures (bad input,
	// driver launch failure). Attempt-level errors live on Result.Errors.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// AcquireMs is the time spent fetching and/or rendering the page.
	AcquireMs int64 `json:"acquire_ms"`

	// ReportMs is the time spent rendering the optional content report.
	ReportMs int64 `json:"report_ms,omitempty"`
}

// BatchRequest is the payload for POST /api/v1/batch/acquire.
type BatchRequest struct {
	// URLs lists the target pages. Max 50 per batch.
	URLs []string `json:"urls" binding:"required,min=1"`

	// Options are shared acquisition options applied to every URL.
	Options BatchOptions `json:"options,omitempty"`

	// WebhookURL, when set, receives a signed batch.completed event.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// BatchOptions mirrors the per-request knobs shared across a batch.
type BatchOptions struct {
	Timeout       int      `json:"timeout,omitempty"`
	Threshold     int      `json:"threshold,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Method        string   `json:"method,omitempty"`
	ContentFormat string   `json:"content_format,omitempty"`
}

// BatchJob tracks an in-flight or completed batch acquisition.
type BatchJob struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // "processing", "completed", "partial", "failed"
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Results   []*AcquireResponse `json:"results"`
	CreatedAt int64              `json:"created_at"`
}

// BatchResponse acknowledges batch creation.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*AcquireResponse `json:"results"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports browser session usage.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
