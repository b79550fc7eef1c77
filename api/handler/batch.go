package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/report"
	"github.com/finsight-hq/finsight/webhook"
)

// maxBatchURLs bounds one batch job.
const maxBatchURLs = 50

// batchConcurrency bounds simultaneous acquisitions inside a batch, keeping
// one job from monopolizing the browser session pool.
const batchConcurrency = 3

// batchStore holds all in-flight and completed batch jobs.
var batchStore sync.Map

// batchJob guards the mutable job state shared between the worker goroutines
// and the status handler. Every read or write of the embedded BatchJob after
// creation goes through mu; ID, Total, and CreatedAt are immutable.
type batchJob struct {
	mu  sync.Mutex
	job models.BatchJob
}

// snapshot copies the job state for a response. The Results slice is copied
// so marshaling never races with a worker filling the next slot.
func (b *batchJob) snapshot() models.BatchStatusResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.BatchStatusResponse{
		ID:        b.job.ID,
		Status:    b.job.Status,
		Completed: b.job.Completed,
		Total:     b.job.Total,
		Results:   append([]*models.AcquireResponse(nil), b.job.Results...),
	}
}

func init() {
	// Background goroutine to expire batch jobs older than 1 hour.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour).Unix()
			batchStore.Range(func(key, value any) bool {
				if value.(*batchJob).job.CreatedAt < cutoff {
					batchStore.Delete(key)
				}
				return true
			})
		}
	}()
}

// PostBatch returns the handler for POST /api/v1/batch/acquire.
// It validates the request, registers a job, and acquires the URLs in the
// background. Progress is polled via GetBatch or pushed via webhook.
func PostBatch(engine *acquire.Engine, renderer *report.Renderer, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		if len(req.URLs) > maxBatchURLs {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "maximum 50 URLs per batch",
				},
			})
			return
		}

		jobID := "batch-" + randomID()
		b := &batchJob{job: models.BatchJob{
			ID:        jobID,
			Status:    "processing",
			Total:     len(req.URLs),
			Results:   make([]*models.AcquireResponse, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}}
		batchStore.Store(jobID, b)

		go runBatch(engine, renderer, b, req, webhookSecret)

		c.JSON(http.StatusOK, models.BatchResponse{
			ID:     jobID,
			Status: "processing",
			Total:  len(req.URLs),
		})
	}
}

// GetBatch returns the handler for GET /api/v1/batch/:id.
func GetBatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("id")
		val, ok := batchStore.Load(jobID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "batch job not found",
				},
			})
			return
		}

		c.JSON(http.StatusOK, val.(*batchJob).snapshot())
	}
}

// runBatch acquires every URL with bounded concurrency, then finalizes the
// job status and fires the completion webhook.
func runBatch(engine *acquire.Engine, renderer *report.Renderer, b *batchJob, req models.BatchRequest, webhookSecret string) {
	shared := &models.AcquireRequest{
		Timeout:       req.Options.Timeout,
		Threshold:     req.Options.Threshold,
		Keywords:      req.Options.Keywords,
		Method:        req.Options.Method,
		ContentFormat: req.Options.ContentFormat,
	}
	shared.Defaults()

	succeeded := 0

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(batchConcurrency)
	for i, rawURL := range req.URLs {
		g.Go(func() error {
			resp := acquireOne(ctx, engine, renderer, rawURL, shared)
			resp.Timing.TotalMs = resp.Timing.AcquireMs + resp.Timing.ReportMs

			b.mu.Lock()
			b.job.Results[i] = resp
			b.job.Completed++
			if resp.Success {
				succeeded++
			}
			b.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	b.mu.Lock()
	switch {
	case succeeded == 0:
		b.job.Status = "failed"
	case succeeded < b.job.Total:
		b.job.Status = "partial"
	default:
		b.job.Status = "completed"
	}
	b.mu.Unlock()

	final := b.snapshot()
	slog.Info("batch job finished",
		"id", final.ID,
		"status", final.Status,
		"succeeded", succeeded,
		"total", final.Total,
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, webhookSecret, &webhook.Event{
			Type:      "batch.completed",
			JobID:     final.ID,
			Timestamp: time.Now().Unix(),
			Data:      final,
		})
	}
}

// randomID generates a short random hex string for job IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
