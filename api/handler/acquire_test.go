package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finsight-hq/finsight/acquire"
	"github.com/finsight-hq/finsight/cache"
	"github.com/finsight-hq/finsight/config"
	"github.com/finsight-hq/finsight/fetch"
	"github.com/finsight-hq/finsight/models"
	"github.com/finsight-hq/finsight/report"
)

var testPage = `<html><head><title>AAPL Dividends</title></head><body><p>` +
	strings.Repeat("quarterly dividend yield history with payout amounts listed ", 8) +
	`</p><table><tr><td>2024-02-09</td><td>$0.24</td></tr></table></body></html>`

// stubFetcher serves a fixed page and records the URLs it was asked for.
// Batch workers fetch concurrently, so the record is mutex-guarded.
type stubFetcher struct {
	mu   sync.Mutex
	html string
	urls []string
}

func (s *stubFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (*fetch.Result, error) {
	s.mu.Lock()
	s.urls = append(s.urls, url)
	s.mu.Unlock()
	return &fetch.Result{StatusCode: 200, HTML: s.html, Title: "AAPL Dividends"}, nil
}

func (s *stubFetcher) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func testEngine(f acquire.Fetcher) *acquire.Engine {
	cfg := config.AcquireConfig{
		MinScore:   5,
		MaxTimeout: 5 * time.Second,
		MemoryTTL:  time.Hour,
	}
	return acquire.New(cfg, f, nil)
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter(f acquire.Fetcher, cc *cache.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/acquire", Acquire(testEngine(f), report.NewRenderer(), cc))
	return r
}

func TestAcquireHandler_MissingTarget(t *testing.T) {
	r := newTestRouter(&stubFetcher{html: testPage}, nil)

	w := postJSON(r, "/acquire", `{"method":"fast"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp models.AcquireResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %+v, want %s", resp.Error, models.ErrCodeInvalidInput)
	}
}

func TestAcquireHandler_Success(t *testing.T) {
	r := newTestRouter(&stubFetcher{html: testPage}, nil)

	w := postJSON(r, "/acquire", `{"url":"https://example.com/aapl","method":"fast","content_format":"markdown"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp models.AcquireResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("Success = false: %s", w.Body.String())
	}
	if resp.Result == nil || len(resp.Result.Facts) == 0 {
		t.Error("response carries no facts")
	}
	if !strings.Contains(resp.Content, "$0.24") {
		t.Errorf("markdown content missing table data: %q", resp.Content)
	}
}

func TestAcquireHandler_SymbolMode(t *testing.T) {
	f := &stubFetcher{html: testPage}
	r := newTestRouter(f, nil)

	w := postJSON(r, "/acquire", `{"symbol":"AAPL","method":"fast"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := f.fetched(); len(got) != 1 || got[0] != "https://www.morningstar.com/stocks/xnas/aapl/dividends" {
		t.Errorf("fetched %v, want the morningstar dividends URL", got)
	}
}

func TestAcquireHandler_CacheRoundTrip(t *testing.T) {
	f := &stubFetcher{html: testPage}
	r := newTestRouter(f, cache.New(10))

	body := `{"url":"https://example.com/aapl","method":"fast","max_age":60}`

	first := postJSON(r, "/acquire", body)
	var miss models.AcquireResponse
	if err := json.Unmarshal(first.Body.Bytes(), &miss); err != nil {
		t.Fatal(err)
	}
	if miss.CacheStatus != "miss" {
		t.Errorf("first CacheStatus = %q, want miss", miss.CacheStatus)
	}

	second := postJSON(r, "/acquire", body)
	var hit models.AcquireResponse
	if err := json.Unmarshal(second.Body.Bytes(), &hit); err != nil {
		t.Fatal(err)
	}
	if hit.CacheStatus != "hit" {
		t.Errorf("second CacheStatus = %q, want hit", hit.CacheStatus)
	}
	if got := f.fetched(); len(got) != 1 {
		t.Errorf("engine ran %d times, want 1 (second call cached)", len(got))
	}
}

func TestHealthHandler_NilProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(nil, time.Now().Add(-time.Minute), "test"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
}

func TestBatchHandler_RoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &stubFetcher{html: testPage}
	r := gin.New()
	r.POST("/batch/acquire", PostBatch(testEngine(f), report.NewRenderer(), ""))
	r.GET("/batch/:id", GetBatch())

	w := postJSON(r, "/batch/acquire",
		`{"urls":["https://example.com/a","https://example.com/b"],"options":{"method":"fast"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var created models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Total != 2 || created.Status != "processing" {
		t.Fatalf("created = %+v", created)
	}

	// Fast-path acquisitions finish in milliseconds; poll briefly.
	var status models.BatchStatusResponse
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		g := httptest.NewRecorder()
		r.ServeHTTP(g, httptest.NewRequest(http.MethodGet, "/batch/"+created.ID, nil))
		if g.Code != http.StatusOK {
			t.Fatalf("status poll = %d", g.Code)
		}
		if err := json.Unmarshal(g.Body.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if status.Status != "processing" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status.Status != "completed" {
		t.Fatalf("final status = %q, want completed", status.Status)
	}
	if status.Completed != 2 || len(status.Results) != 2 {
		t.Errorf("completed = %d, results = %d", status.Completed, len(status.Results))
	}
	for _, res := range status.Results {
		if res == nil || !res.Success {
			t.Errorf("batch result = %+v, want success", res)
		}
	}
}

func TestBatchHandler_StatusReadableWhileRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &stubFetcher{html: testPage}
	r := gin.New()
	r.POST("/batch/acquire", PostBatch(testEngine(f), report.NewRenderer(), ""))
	r.GET("/batch/:id", GetBatch())

	urls, _ := json.Marshal(map[string]any{
		"urls": []string{
			"https://example.com/a", "https://example.com/b",
			"https://example.com/c", "https://example.com/d",
			"https://example.com/e", "https://example.com/f",
		},
		"options": map[string]string{"method": "fast"},
	})
	w := postJSON(r, "/batch/acquire", string(urls))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var created models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// Hammer the status endpoint from several readers while the workers
	// fill in results; every snapshot must be internally consistent.
	var wg sync.WaitGroup
	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				g := httptest.NewRecorder()
				r.ServeHTTP(g, httptest.NewRequest(http.MethodGet, "/batch/"+created.ID, nil))
				var status models.BatchStatusResponse
				if err := json.Unmarshal(g.Body.Bytes(), &status); err != nil {
					t.Errorf("unparseable status mid-run: %v", err)
					return
				}
				filled := 0
				for _, res := range status.Results {
					if res != nil {
						filled++
					}
				}
				if filled < status.Completed {
					t.Errorf("snapshot reports %d completed but only %d results", status.Completed, filled)
					return
				}
				if status.Status != "processing" {
					return
				}
			}
		}()
	}
	wg.Wait()

	g := httptest.NewRecorder()
	r.ServeHTTP(g, httptest.NewRequest(http.MethodGet, "/batch/"+created.ID, nil))
	var final models.BatchStatusResponse
	if err := json.Unmarshal(g.Body.Bytes(), &final); err != nil {
		t.Fatal(err)
	}
	if final.Status != "completed" || final.Completed != 6 {
		t.Errorf("final status = %q with %d completed, want completed/6", final.Status, final.Completed)
	}
}

func TestBatchHandler_TooManyURLs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/batch/acquire", PostBatch(testEngine(&stubFetcher{html: testPage}), report.NewRenderer(), ""))

	urls := make([]string, maxBatchURLs+1)
	for i := range urls {
		urls[i] = "https://example.com/x"
	}
	body, _ := json.Marshal(models.BatchRequest{URLs: urls})

	w := postJSON(r, "/batch/acquire", string(body))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
