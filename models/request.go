package models

// AcquireRequest is the payload for POST /api/v1/acquire.
type AcquireRequest struct {
	// URL is the target page to acquire. Required unless Symbol is set.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// Symbol is a ticker symbol; combined with Site it is expanded to a URL
	// by the site profile's URL builder (e.g. "AAPL" + "morningstar").
	Symbol string `json:"symbol,omitempty"`

	// Site selects the URL builder for Symbol mode.
	// Allowed: "morningstar" (default), "yahoo", "marketwatch", "google".
	Site string `json:"site,omitempty" binding:"omitempty,oneof=morningstar yahoo marketwatch google"`

	// Page is the site page kind for Symbol mode ("dividends", "financials",
	// "quote"). Default: "dividends".
	Page string `json:"page,omitempty"`

	// Timeout is the maximum duration in seconds for the entire acquisition.
	// Default: profile timeout. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Threshold overrides the profile's minimum quality score.
	Threshold int `json:"threshold,omitempty" binding:"omitempty,min=0"`

	// Keywords are appended to the profile's financial keyword set.
	Keywords []string `json:"keywords,omitempty"`

	// Method forces an acquisition path.
	// "auto" (default): fast first, escalate to rendered when quality is low.
	// "fast": lightweight fetch only. "rendered": headless browser only.
	Method string `json:"method,omitempty" binding:"omitempty,oneof=auto fast rendered"`

	// ContentFormat controls the optional content report in the response.
	// "none" (default): facts only. "markdown"/"text": include the chosen
	// attempt's content rendered for human review. "html": raw content.
	ContentFormat string `json:"content_format,omitempty" binding:"omitempty,oneof=none markdown text html"`

	// MaxAge enables cache lookup: a cached response younger than MaxAge
	// seconds is returned without re-acquiring. 0 disables caching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *AcquireRequest) Defaults() {
	if r.Site == "" {
		r.Site = "morningstar"
	}
	if r.Page == "" {
		r.Page = "dividends"
	}
	if r.Method == "" {
		r.Method = "auto"
	}
	if r.ContentFormat == "" {
		r.ContentFormat = "none"
	}
}
