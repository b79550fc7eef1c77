// Package browser is the rendered acquisition path: a managed headless
// Chrome with stealth hardening, a reusable page pool, and per-session
// resource blocking.
package browser

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/finsight-hq/finsight/config"
	"github.com/finsight-hq/finsight/models"
)

// Driver manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Driver struct {
	browser        *rod.Browser
	pagePool       rod.Pool[rod.Page]
	cfg            config.BrowserConfig
	activeSessions atomic.Int32
	startTime      time.Time
}

// NewDriver launches a headless browser and initialises the reusable page pool.
func NewDriver(cfg config.BrowserConfig) (*Driver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAcquireError(
			models.ErrCodeDriverLaunch,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewAcquireError(
			models.ErrCodeDriverLaunch,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxSessions)
	slog.Info("session pool created", "maxSessions", cfg.MaxSessions)

	return &Driver{
		browser:   browser,
		pagePool:  pool,
		cfg:       cfg,
		startTime: time.Now(),
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (d *Driver) Stats() models.SessionStats {
	return models.SessionStats{
		MaxSessions:    d.cfg.MaxSessions,
		ActiveSessions: int(d.activeSessions.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (d *Driver) Close() {
	slog.Info("browser driver shutting down: draining session pool")
	d.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("browser driver shutting down: closing browser")
	d.browser.MustClose()
	slog.Info("browser driver shutdown complete")
}

func (d *Driver) acquirePage() (*rod.Page, error) {
	return d.pagePool.Get(func() (*rod.Page, error) {
		return d.browser.Page(proto.TargetCreateTarget{})
	})
}
