package engine

import (
	"context"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// BrowserClient is the Chrome-fingerprinted client used for watch pages.
type BrowserClient = stealth.BrowserClient

// DefaultRetryConfig paces innertube and timedtext retries.
var DefaultRetryConfig = stealth.DefaultRetryConfig

func RandomUserAgent() string         { return stealth.RandomUserAgent() }
func IsRetryableStatus(code int) bool { return stealth.IsRetryableStatus(code) }

// WatchPageHeaders returns Chrome headers for a watch page GET. The consent
// cookie keeps EU requests from landing on consent.youtube.com.
func WatchPageHeaders() map[string]string {
	h := stealth.ChromeHeaders()
	h["accept-language"] = "en-US,en;q=0.9"
	h["cookie"] = "CONSENT=YES+1; SOCS=CAI"
	return h
}

// RetryHTTP retries fn on transport errors and retryable statuses.
func RetryHTTP(ctx context.Context, rc stealth.RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}
