// Package fetch is the fast acquisition path: a plain HTTP GET wearing a
// Chrome TLS fingerprint, with no JavaScript execution. It is always tried
// before browser rendering because it is an order of magnitude cheaper.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls2 "github.com/refraction-networking/utls"

	"github.com/finsight-hq/finsight/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps response reads; financial pages past this size are
// tracking payload, not data.
const maxBodyBytes = 10 * 1024 * 1024

// Result is one completed fast fetch.
type Result struct {
	StatusCode int
	HTML       string
	Title      string
}

// Client performs HTTP requests with a Chrome TLS fingerprint (utls).
type Client struct {
	proxy string
}

// NewClient creates a fast-path client. proxy may be empty.
func NewClient(proxy string) *Client {
	return &Client{proxy: proxy}
}

// Fetch retrieves the URL within the given timeout. HTTP status >= 400 is
// returned as a NETWORK_ERROR alongside the partial Result so callers can
// record the status on the attempt.
func (c *Client) Fetch(ctx context.Context, targetURL string, timeout time.Duration) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, c.proxy)
		},
	}
	if c.proxy != "" {
		proxyURL, err := url.Parse(c.proxy)
		if err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewAcquireError(models.ErrCodeInvalidInput, "build request", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, models.NewAcquireError(models.ErrCodeTimeout, "fetch timed out", err)
		}
		return nil, models.NewAcquireError(models.ErrCodeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, models.NewAcquireError(models.ErrCodeNetwork, "read body", err)
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		Title:      extractTitle(body),
	}
	if resp.StatusCode >= 400 {
		return result, models.NewAcquireError(models.ErrCodeNetwork,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, targetURL), nil)
	}
	return result, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	var rawConn net.Conn
	var err error

	dialer := &net.Dialer{}

	if proxy != "" {
		proxyURL, parseErr := url.Parse(proxy)
		if parseErr == nil && (proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socksConn, socksErr := dialer.DialContext(ctx, "tcp", proxyURL.Host)
			if socksErr != nil {
				return nil, fmt.Errorf("socks5 dial: %w", socksErr)
			}
			rawConn = socksConn
		}
	}

	if rawConn == nil {
		rawConn, err = dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName:         host,
		InsecureSkipVerify: false,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
