package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/cache"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/profile"
	"github.com/finsight-hq/finsight/report"
)

// Acquire returns the handler for POST /api/v1/acquire.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults, expand symbol to URL.
//  2. Cache lookup (when max_age is set).
//  3. Engine.Acquire → facts, attempts, winning content   (acquire_ms)
//  4. Renderer.Render → optional content report           (report_ms)
//  5. Fill timing, store in cache, return 200.
//
// An acquisition that ran but found insufficient content is still HTTP 200;
// Success=false and Result.Errors tell the caller why. Only malformed
// requests produce non-200 responses here.
func Acquire(engine *acquire.Engine, renderer *report.Renderer, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AcquireRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AcquireResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		targetURL, detail := resolveTarget(&req)
		if detail != nil {
			c.JSON(http.StatusBadRequest, models.AcquireResponse{
				Success: false,
				Error:   detail,
			})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(targetURL, req.ContentFormat)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				cached.CacheStatus = "hit"
				cached.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3-4. Acquire and render ─────────────────────────────────
		resp := acquireOne(c.Request.Context(), engine, renderer, targetURL, &req)
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		// ── 5. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// resolveTarget returns the URL to acquire, expanding symbol mode via the
// site URL builders.
func resolveTarget(req *models.AcquireRequest) (string, *models.ErrorDetail) {
	switch {
	case req.URL != "":
		return req.URL, nil
	case req.Symbol != "":
		return profile.PageURL(req.Site, req.Symbol, req.Page), nil
	default:
		return "", &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: "either url or symbol is required",
		}
	}
}

// acquireOne runs one acquisition plus the optional content report. Shared
// by the single and batch handlers.
func acquireOne(ctx context.Context, engine *acquire.Engine, renderer *report.Renderer, targetURL string, req *models.AcquireRequest) *models.AcquireResponse {
	p := profile.Resolve(targetURL).With(profile.Overrides{
		ExtraKeywords: req.Keywords,
		Timeout:       time.Duration(req.Timeout) * time.Second,
		MinScore:      req.Threshold,
	})

	acquireStart := time.Now()
	result := engine.Acquire(ctx, targetURL, p, acquire.Options{Method: req.Method})
	acquireMs := time.Since(acquireStart).Milliseconds()

	resp := &models.AcquireResponse{
		Success: result.Success,
		Result:  result,
		Timing:  models.TimingInfo{AcquireMs: acquireMs},
	}

	if result.RawHTML != "" && req.ContentFormat != report.FormatNone {
		reportStart := time.Now()
		content, err := renderer.Render(result.RawHTML, targetURL, req.ContentFormat)
		resp.Timing.ReportMs = time.Since(reportStart).Milliseconds()
		if err != nil {
			resp.Error = &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: err.Error(),
			}
		} else {
			resp.Content = content
		}
	}

	return resp
}
