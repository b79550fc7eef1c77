// Package acquire runs the adaptive acquisition state machine: a cheap HTTP
// fetch first, escalating to full browser rendering when the fetched content
// scores below the profile's quality threshold. Attempt failures are recorded
// as data on the Result; Acquire itself does not fail.
package acquire

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/finsight-hq/finsight/challenge"
	"github.com/finsight-hq/finsight/config"
	"github.com/finsight-hq/finsight/extract"
	"github.com/finsight-hq/finsight/fetch"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
)

// Fetcher is the fast acquisition path.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (*fetch.Result, error)
}

// Driver hands out rendering sessions.
type Driver interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is one browser tab under the orchestrator's control. Close must be
// safe to call on every exit path, including after errors.
type Session interface {
	Navigate(ctx context.Context, url string) error
	HTML() (string, error)
	Title() string
	StatusCode() int
	WaitStable(ctx context.Context, d time.Duration)
	Close()
}

// Options carries per-request knobs that are not part of the profile.
type Options struct {
	// Method forces a single path: "fast" or "rendered". Empty or "auto"
	// runs the normal fast-then-escalate machine.
	Method string
}

// Engine is the acquisition orchestrator. It is stateless apart from the
// per-host method memory and safe for concurrent use.
type Engine struct {
	cfg      config.AcquireConfig
	fetcher  Fetcher
	driver   Driver
	detector *challenge.Detector
	memory   *methodMemory
}

// New builds an Engine. driver may be nil, in which case rendered attempts
// fail with a DRIVER_LAUNCH_FAILED attempt error instead of panicking.
func New(cfg config.AcquireConfig, fetcher Fetcher, driver Driver) *Engine {
	return &Engine{
		cfg:      cfg,
		fetcher:  fetcher,
		driver:   driver,
		detector: challenge.NewDetector(),
		memory:   newMethodMemory(cfg.MemoryTTL),
	}
}

// machine states for one acquisition.
type state int

const (
	stateFast state = iota
	stateRendered
	stateDone
)

// Acquire runs the state machine for one URL. It always returns a Result;
// attempt-level failures surface in Result.Attempts and Result.Errors, and
// Success reports whether any attempt met the quality threshold.
func (e *Engine) Acquire(ctx context.Context, targetURL string, p profile.Profile, opts Options) *models.Result {
	started := time.Now()

	threshold := p.MinScore
	if threshold <= 0 {
		threshold = e.cfg.MinScore
	}
	timeout := p.Timeout
	if timeout <= 0 || timeout > e.cfg.MaxTimeout {
		timeout = e.cfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	host := hostOf(targetURL)
	log := slog.With("url", targetURL, "profile", p.Name)

	// The per-host memory only biases escalation patience. The fast path is
	// cheap enough that it is never skipped in auto mode, which also keeps
	// the attempt order stable for callers.
	expectRender := p.RequiresRender
	if m, ok := e.memory.Preferred(host); ok && m == models.MethodRendered {
		expectRender = true
	}

	result := &models.Result{
		URL:        targetURL,
		AcquiredAt: started,
	}

	st := stateFast
	if opts.Method == string(models.MethodRendered) {
		st = stateRendered
	}

	for st != stateDone {
		switch st {
		case stateFast:
			at := e.fastAttempt(ctx, targetURL, p)
			result.Attempts = append(result.Attempts, at)
			log.Info("fast attempt finished",
				"score", at.Score, "threshold", threshold, "status", at.StatusCode)

			if opts.Method == string(models.MethodFast) {
				st = stateDone
				break
			}
			// A passing score on an SPA shell is keyword noise from the
			// loader markup, not data; escalate anyway.
			if at.Error == nil && at.Score >= threshold && !expectRender &&
				!fetch.NeedsRender(at.Content) {
				st = stateDone
				break
			}
			st = stateRendered

		case stateRendered:
			at := e.renderedAttempt(ctx, targetURL, p, threshold)
			result.Attempts = append(result.Attempts, at)
			log.Info("rendered attempt finished",
				"score", at.Score, "threshold", threshold, "challenge", at.Challenge)
			st = stateDone
		}
	}

	e.finish(result, p, threshold, host, log)
	result.ElapsedMs = time.Since(started).Milliseconds()
	return result
}

// finish picks the winning attempt, extracts facts from it, and folds the
// attempt errors into the result.
func (e *Engine) finish(result *models.Result, p profile.Profile, threshold int, host string, log *slog.Logger) {
	for _, at := range result.Attempts {
		if at.Error != nil {
			result.Errors = append(result.Errors, *at.Error)
		}
	}

	chosen := chooseAttempt(result.Attempts, threshold)
	if chosen == nil {
		result.Success = false
		return
	}

	result.Method = chosen.Method
	result.Score = chosen.Score
	result.Title = chosen.Title
	result.RawHTML = chosen.Content
	result.Success = chosen.Error == nil && chosen.Score >= threshold

	if chosen.Content != "" {
		result.Facts = extract.Facts(chosen.Content, p)
	}

	if result.Success {
		e.memory.Record(host, chosen.Method)
		return
	}
	if chosen.Error == nil {
		result.Errors = append(result.Errors, models.ErrorDetail{
			Code:    models.ErrCodeInsufficient,
			Message: "no attempt met the quality threshold",
		})
	}
	log.Warn("no attempt met the quality threshold",
		"bestScore", chosen.Score, "threshold", threshold)
}

// chooseAttempt picks the attempt to report: the last one that met the
// threshold, otherwise the best-effort highest scorer. Later attempts win
// score ties, so rendered content supersedes the fast snapshot of the same
// page.
func chooseAttempt(attempts []models.Attempt, threshold int) *models.Attempt {
	var passed, best *models.Attempt
	for i := range attempts {
		at := &attempts[i]
		if at.Error == nil && at.Score >= threshold {
			passed = at
		}
		if best == nil || at.Score >= best.Score {
			best = at
		}
	}
	if passed != nil {
		return passed
	}
	return best
}

// sleepCtx pauses for d or until the context ends, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

// detailFor converts any error into an attempt-level ErrorDetail.
func detailFor(err error) *models.ErrorDetail {
	var ae *models.AcquireError
	if errors.As(err, &ae) {
		return ae.ToDetail()
	}
	return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}
