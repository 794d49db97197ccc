package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/karimelhady/signupbot/core/telegram/netutil"
)

// Client timeouts for Telegram API calls. The overall timeout must exceed the
// long poll timeout, which holds the getUpdates request open server-side.
const (
	dialTimeout     = 5 * time.Second
	responseTimeout = 5 * time.Second
	clientTimeout   = 30 * time.Second

	retryAttempts = 3
	retryBackoff  = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: clientTimeout,
		Transport: &retryTransport{
			base:    transport,
			retries: retryAttempts,
			backoff: retryBackoff,
		},
	}
}

// retryTransport retries transient network failures of Telegram API calls.
// Only the round trip itself is replayed; a send that reached the API once is
// never repeated at the application level.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		r, err := replayable(req, attempt)
		if err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= t.retries || !netutil.ShouldRetry(err) {
			return nil, lastErr
		}
		if err := sleep(req.Context(), t.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}
}

// replayable returns the request to send on this attempt. Retries need a
// fresh body; a consumed body without GetBody cannot be replayed.
func replayable(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.GetBody == nil {
		if req.Body != nil {
			return nil, errors.New("request body cannot be replayed")
		}
		return clone, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
