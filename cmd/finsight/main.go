// Package main provides the finsight command: an HTTP API server and a
// one-shot CLI for acquiring financial facts from web pages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/api"
	"github.com/finsight-hq/finsight/api/handler"
	"github.com/finsight-hq/finsight/browser"
	"github.com/finsight-hq/finsight/cache"
	"github.com/finsight-hq/finsight/config"
	"github.com/finsight-hq/finsight/fetch"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
	"github.com/finsight-hq/finsight/report"
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Adaptive acquisition and extraction of financial facts from web pages",
	Long: "finsight fetches financial web pages with a fast HTTP client, escalates to a\n" +
		"headless browser when pages need JavaScript or present anti-automation\n" +
		"challenges, and extracts structured financial facts from the result.",
}

func main() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(acquireCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the finsight HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func runServe() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("finsight starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxSessions", cfg.Browser.MaxSessions,
	)

	// ── 3. Launch the browser driver ────────────────────────────────
	// A launch failure is not fatal: the service degrades to fast-only
	// acquisition and reports rendered attempts as failed.
	var drv acquire.Driver
	var sp handler.StatsProvider
	bd, err := browser.NewDriver(cfg.Browser)
	if err != nil {
		slog.Warn("browser launch failed, running fetch-only", "error", err)
	} else {
		defer bd.Close()
		drv = bd
		sp = bd
	}

	// ── 4. Build the acquisition engine ─────────────────────────────
	fetcher := fetch.NewClient(cfg.Browser.Proxy)
	engine := acquire.New(cfg.Acquire, fetcher, drv)
	renderer := report.NewRenderer()
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(engine, sp, renderer, cfg, cc, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("finsight stopped")
}

func acquireCmd() *cobra.Command {
	var (
		targetURL string
		symbol    string
		site      string
		page      string
		method    string
		format    string
		timeout   int
		threshold int
		keywords  []string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Acquire a single page and print the extracted facts as JSON",
		Example: "  finsight acquire --url https://www.morningstar.com/stocks/xnas/aapl/dividends\n" +
			"  finsight acquire --symbol AAPL --site yahoo --page financials --format markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAcquire(oneShot{
				url:       targetURL,
				symbol:    symbol,
				site:      site,
				page:      page,
				method:    method,
				format:    format,
				timeout:   timeout,
				threshold: threshold,
				keywords:  keywords,
				output:    output,
			})
		},
	}

	cmd.Flags().StringVar(&targetURL, "url", "", "target page URL")
	cmd.Flags().StringVar(&symbol, "symbol", "", "ticker symbol (alternative to --url)")
	cmd.Flags().StringVar(&site, "site", "morningstar", "site for symbol mode: morningstar, yahoo, marketwatch, google")
	cmd.Flags().StringVar(&page, "page", "dividends", "page kind for symbol mode: dividends, financials, quote")
	cmd.Flags().StringVar(&method, "method", "auto", "acquisition method: auto, fast, rendered")
	cmd.Flags().StringVar(&format, "format", "none", "content report format: none, markdown, text, html")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "acquisition timeout in seconds (0 uses the site profile)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "minimum quality score override")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "extra financial keywords")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON response to a file instead of stdout")

	return cmd
}

type oneShot struct {
	url       string
	symbol    string
	site      string
	page      string
	method    string
	format    string
	timeout   int
	threshold int
	keywords  []string
	output    string
}

func runAcquire(o oneShot) error {
	cfg := config.Load()

	// One-shot runs log to stderr so stdout stays parseable JSON.
	initLoggerTo(os.Stderr, cfg.Log)

	target := o.url
	if target == "" {
		if o.symbol == "" {
			return fmt.Errorf("either --url or --symbol is required")
		}
		target = profile.PageURL(o.site, o.symbol, o.page)
		if target == "" {
			return fmt.Errorf("unknown site %q", o.site)
		}
	}

	// Rendered attempts need a browser; skip the launch when the caller
	// forces the fast path.
	var drv acquire.Driver
	if o.method != "fast" {
		bd, err := browser.NewDriver(cfg.Browser)
		if err != nil {
			if o.method == "rendered" {
				return fmt.Errorf("browser launch failed: %w", err)
			}
			slog.Warn("browser launch failed, running fetch-only", "error", err)
		} else {
			defer bd.Close()
			drv = bd
		}
	}

	engine := acquire.New(cfg.Acquire, fetch.NewClient(cfg.Browser.Proxy), drv)

	p := profile.Resolve(target).With(profile.Overrides{
		ExtraKeywords: o.keywords,
		Timeout:       time.Duration(o.timeout) * time.Second,
		MinScore:      o.threshold,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	result := engine.Acquire(ctx, target, p, acquire.Options{Method: o.method})

	resp := &models.AcquireResponse{
		Success: result.Success,
		Result:  result,
		Timing:  models.TimingInfo{AcquireMs: time.Since(started).Milliseconds()},
	}

	if result.RawHTML != "" && o.format != report.FormatNone {
		content, err := report.NewRenderer().Render(result.RawHTML, target, o.format)
		if err != nil {
			return fmt.Errorf("render content report: %w", err)
		}
		resp.Content = content
	}
	resp.Timing.TotalMs = time.Since(started).Milliseconds()

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}

	if o.output != "" {
		path := o.output
		if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
			name := o.symbol
			if name == "" {
				name = hostForFilename(target)
			}
			path = fmt.Sprintf("%s/%s_%s.json", path, name, time.Now().Format("20060102_150405"))
		}
		if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "wrote", path)
		return nil
	}
	fmt.Println(string(out))
	return nil
}

func hostForFilename(target string) string {
	h := hostOf(target)
	return strings.ReplaceAll(h, ".", "_")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "page"
	}
	return u.Hostname()
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	initLoggerTo(os.Stdout, cfg)
}

func initLoggerTo(w *os.File, cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
