package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// Browser-like headers the upstream journal API expects on every request.
const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	defaultReferer   = "https://journal.top-academy.ru/"
	defaultOrigin    = "https://journal.top-academy.ru"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly.
//
// Example usage:
//
//	client := utils.NewHTTPClient("https://msapi.top-academy.ru", 15*time.Second)
//	resp, err := client.R().Get("/api/v2/settings/user-info")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates an HTTPClient bound to baseURL with the given
// per-request timeout, following redirects and sending JSON by default.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeaders(map[string]string{
			"User-Agent":   defaultUserAgent,
			"Content-Type": "application/json",
			"Referer":      defaultReferer,
			"Origin":       defaultOrigin,
		})

	return &HTTPClient{Client: client}
}
