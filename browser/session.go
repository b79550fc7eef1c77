package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/models"
)

// Session is one borrowed browser tab, hardened before first navigation.
// It must be released with Close on every exit path; the page pool has a
// fixed size and a leaked session is a permanently lost slot.
type Session struct {
	driver *Driver
	page   *rod.Page
	bound  *rod.Page
	router *rod.HijackRouter
	closed bool
}

// NewSession borrows a tab from the pool and installs stealth JS and the
// resource-blocking hijack router. Both must be in place before the first
// navigation or they have no effect on it.
func (d *Driver) NewSession(ctx context.Context) (acquire.Session, error) {
	page, err := d.acquirePage()
	if err != nil {
		return nil, models.NewAcquireError(
			models.ErrCodeDriverLaunch,
			"failed to acquire page from pool",
			err,
		)
	}
	d.activeSessions.Add(1)

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", evalErr,
		)
	}

	router := setupHijack(page, d.cfg.BlockedResourceTypes)

	return &Session{
		driver: d,
		page:   page,
		bound:  page.Context(ctx),
		router: router,
	}, nil
}

// Navigate loads the URL and waits for the initial load to settle. A Google
// search referer is attached so the visit looks like an organic arrival.
func (s *Session) Navigate(ctx context.Context, targetURL string) error {
	if u, parseErr := url.Parse(targetURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(s.page)
	}

	p := s.page.Context(ctx)
	s.bound = p
	if err := p.Navigate(targetURL); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	return nil
}

// WaitStable blocks until the DOM stops mutating, up to the ctx deadline.
// Non-convergence is not an error; the current DOM is used as is.
func (s *Session) WaitStable(ctx context.Context, d time.Duration) {
	if err := s.page.Context(ctx).WaitDOMStable(d, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
}

// HTML returns the current rendered document.
func (s *Session) HTML() (string, error) {
	html, err := s.bound.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

// Title returns the current document title, best-effort.
func (s *Session) Title() string {
	return evalStringOrEmpty(s.bound, `() => document.title`)
}

// StatusCode returns the navigation HTTP status via the performance API,
// or 0 when unavailable. No CDP event listeners are involved, so it cannot
// conflict with the hijack router's Fetch domain usage.
func (s *Session) StatusCode() int {
	res, err := s.bound.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// Close parks the tab on about:blank and returns it to the pool. The parking
// navigation uses the original page reference, so cleanup succeeds even after
// the request context has expired. Close is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.router != nil {
		_ = s.router.Stop()
	}
	if navErr := s.page.Navigate("about:blank"); navErr != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
	}
	s.driver.pagePool.Put(s.page)
	s.driver.activeSessions.Add(-1)
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed AcquireErrors so callers can
// map them to attempt-level error entries.
func categorizeError(err error, msg string) *models.AcquireError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAcquireError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAcquireError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewAcquireError(models.ErrCodeNavigation, msg, err)
	}
}
