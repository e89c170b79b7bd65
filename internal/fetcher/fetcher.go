// Package fetcher issues the HTTP probes behind live-mode checking.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Probe is the outcome of checking one URL against the serving origin.
type Probe struct {
	URL          string
	StatusCode   int
	ResponseTime time.Duration
	Err          error
	TimedOut     bool
}

// Fetcher probes URLs with a bounded per-request timeout. It never reads
// response bodies beyond what connection reuse requires: link checking only
// needs the status line.
type Fetcher struct {
	client    *http.Client
	transport *http.Transport
	timeout   time.Duration
	userAgent string
}

// NewFetcher creates a fetcher with a tuned transport.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		transport: transport,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Check probes a URL. HEAD first; origins that reject HEAD with 405 get one
// GET retry, since plenty of legacy server setups never learned HEAD.
func (f *Fetcher) Check(ctx context.Context, rawURL string) Probe {
	start := time.Now()
	probe := Probe{URL: rawURL}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	status, err := f.do(reqCtx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = f.do(reqCtx, http.MethodGet, rawURL)
	}

	probe.ResponseTime = time.Since(start)
	if err != nil {
		probe.TimedOut = isTimeout(err)
		probe.Err = categorizeError(err)
		return probe
	}
	probe.StatusCode = status
	return probe
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	// Drain a little so the connection can be reused, then close.
	io.CopyN(io.Discard, resp.Body, 512)
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

// isTimeout reports whether an error is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// categorizeError wraps network errors with a stable category prefix.
func categorizeError(err error) error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return fmt.Errorf("timeout: %w", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("DNS error: %w", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("connection failed: %w", err)
	}

	return err
}
