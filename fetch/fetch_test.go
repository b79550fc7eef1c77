package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finsight-hq/finsight/models"
)

func TestFetch_SuccessAndTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Chrome") {
			t.Errorf("User-Agent = %q, want a Chrome UA", ua)
		}
		w.Write([]byte(`<html><head><title>AAPL Dividends</title></head><body><p>$0.25</p></body></html>`))
	}))
	defer srv.Close()

	got, err := NewClient("").Fetch(context.Background(), srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", got.StatusCode)
	}
	if got.Title != "AAPL Dividends" {
		t.Errorf("title = %q", got.Title)
	}
	if !strings.Contains(got.HTML, "$0.25") {
		t.Error("body content missing from result")
	}
}

func TestFetch_HTTPErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	got, err := NewClient("").Fetch(context.Background(), srv.URL, 5*time.Second)
	if err == nil {
		t.Fatal("expected an error for HTTP 403")
	}
	var ae *models.AcquireError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeNetwork {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeNetwork)
	}
	if got == nil || got.StatusCode != http.StatusForbidden {
		t.Errorf("partial result = %+v, want status 403", got)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient("").Fetch(context.Background(), srv.URL, 30*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var ae *models.AcquireError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeTimeout {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeTimeout)
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient("").Fetch(context.Background(), srv.URL, time.Second)
	var ae *models.AcquireError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeNetwork {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeNetwork)
	}
}

func TestNeedsRender(t *testing.T) {
	richBody := strings.Repeat("dividend history row with amounts and dates listed plainly ", 10)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			"server rendered content",
			"<html><body><p>" + richBody + "</p></body></html>",
			false,
		},
		{
			"thin body",
			`<html><body><div id="app-mount"></div></body></html>`,
			true,
		},
		{
			"empty spa root",
			`<html><body><div id="root"></div><p>` + richBody + `</p></body></html>`,
			true,
		},
		{
			"noscript warning",
			`<html><body><noscript>Please enable JavaScript to view quotes.</noscript><p>` + richBody + `</p></body></html>`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRender(tt.html); got != tt.want {
				t.Errorf("NeedsRender = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibleText_SkipsScripts(t *testing.T) {
	got := VisibleText(`<html><body><p>shown</p><script>var hidden = 1;</script></body></html>`)
	if !strings.Contains(got, "shown") || strings.Contains(got, "hidden") {
		t.Errorf("visible text = %q", got)
	}
}
