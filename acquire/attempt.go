package acquire

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finsight-hq/finsight/challenge"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
	"github.com/finsight-hq/finsight/quality"
)

// fastAttempt runs the HTTP path and scores whatever came back.
func (e *Engine) fastAttempt(ctx context.Context, targetURL string, p profile.Profile) models.Attempt {
	started := time.Now()
	at := models.Attempt{Method: models.MethodFast}

	res, err := e.fetcher.Fetch(ctx, targetURL, p.Timeout)
	at.ElapsedMs = time.Since(started).Milliseconds()

	if res != nil {
		at.StatusCode = res.StatusCode
		at.Title = res.Title
		at.Content = res.HTML
		at.ContentLength = len(res.HTML)
	}
	if err != nil {
		at.Error = detailFor(err)
		return at
	}

	at.Score = quality.Score(res.HTML, p)
	return at
}

// renderedAttempt runs the browser path.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Politeness delay      – per-site pacing before touching the server
//  2. Acquire session       – borrow a hardened tab from the driver
//  3. DEFER: release        – guaranteed on every exit path below
//  4. Navigate              – triggers page load
//  5. Settle                – let interstitials present themselves
//  6. Challenge loop        – poll until the interstitial clears or the
//     retry budget runs out
//  7. Content wait          – poll until financial markup appears
//  8. Final snapshot        – HTML, title, status, score
func (e *Engine) renderedAttempt(ctx context.Context, targetURL string, p profile.Profile, threshold int) models.Attempt {
	started := time.Now()
	at := models.Attempt{Method: models.MethodRendered}
	finish := func() models.Attempt {
		at.ElapsedMs = time.Since(started).Milliseconds()
		at.ContentLength = len(at.Content)
		return at
	}

	if e.driver == nil {
		at.Error = &models.ErrorDetail{
			Code:    models.ErrCodeDriverLaunch,
			Message: "no browser driver configured",
		}
		return finish()
	}

	// ── 1. Politeness delay ───────────────────────────────────────────
	if err := sleepCtx(ctx, p.DownloadDelay); err != nil {
		at.Error = timeoutDetail()
		return finish()
	}

	// ── 2. Acquire session ────────────────────────────────────────────
	session, err := e.driver.NewSession(ctx)
	if err != nil {
		at.Error = detailFor(err)
		return finish()
	}

	// ── 3. CRITICAL DEFER: release the tab on every exit path ─────────
	defer session.Close()

	// ── 4. Navigate ───────────────────────────────────────────────────
	if err := session.Navigate(ctx, targetURL); err != nil {
		at.Error = detailFor(err)
		return finish()
	}

	// ── 5. Settle ─────────────────────────────────────────────────────
	if err := sleepCtx(ctx, e.cfg.SettleWait); err != nil {
		at.Error = timeoutDetail()
		return finish()
	}
	// The initial load gets at most the site's wait budget to stabilise;
	// heavy SPA sites (Morningstar) declare a longer one than static pages.
	wait := p.WaitTime
	if wait <= 0 {
		wait = e.cfg.SettleWait
	}
	stableCtx, cancelStable := context.WithTimeout(ctx, wait)
	session.WaitStable(stableCtx, 300*time.Millisecond)
	cancelStable()

	html, err := session.HTML()
	if err != nil {
		at.Error = detailFor(err)
		return finish()
	}
	title := session.Title()

	// ── 6. Challenge loop ─────────────────────────────────────────────
	tracker := challenge.NewTracker()
	if e.detector.Detect(title, html) == challenge.StateDetected {
		tracker.MarkDetected()
		tracker.MarkResolving()

		budget := time.Now().Add(e.cfg.ChallengeBudget)
		for round := 0; round < e.cfg.ChallengeRetries && time.Now().Before(budget); round++ {
			if err := sleepCtx(ctx, e.cfg.ChallengePoll); err != nil {
				break
			}
			h, hErr := session.HTML()
			if hErr != nil {
				continue
			}
			html, title = h, session.Title()
			if e.detector.Detect(title, html) == challenge.StateNone {
				tracker.MarkResolved()
				break
			}
		}

		if tracker.State() != challenge.StateResolved {
			tracker.MarkExhausted()
			at.Challenge = tracker.State().String()
			at.Title = title
			at.Content = html
			at.Score = quality.Score(html, p)
			if ctx.Err() != nil {
				at.Error = timeoutDetail()
			} else {
				at.Error = &models.ErrorDetail{
					Code:    models.ErrCodeChallengeExhausted,
					Message: "challenge did not resolve within the retry budget",
				}
			}
			return finish()
		}
	}
	at.Challenge = tracker.State().String()

	// ── 7. Content wait ───────────────────────────────────────────────
	// JavaScript-built tables often land well after the document settles.
	for poll := 0; poll < e.cfg.ContentPolls && !contentReady(html, p, threshold); poll++ {
		if err := sleepCtx(ctx, e.cfg.ContentPoll); err != nil {
			break
		}
		if h, hErr := session.HTML(); hErr == nil {
			html, title = h, session.Title()
		}
	}

	// ── 8. Final snapshot ─────────────────────────────────────────────
	at.StatusCode = session.StatusCode()
	at.Title = title
	at.Content = html
	at.Score = quality.Score(html, p)
	return finish()
}

// contentReady reports whether the rendered document already shows enough to
// stop waiting: a profile table selector present, or the score threshold met.
func contentReady(html string, p profile.Profile, threshold int) bool {
	if quality.Score(html, p) >= threshold {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	for _, sel := range p.TableSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

func timeoutDetail() *models.ErrorDetail {
	return &models.ErrorDetail{
		Code:    models.ErrCodeTimeout,
		Message: "acquisition deadline exceeded",
	}
}
