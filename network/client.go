// Package network provides the tuned HTTP client shared by every backend call.
package network

import (
	"net/http"
	"time"

	"github.com/shortplay/shortplay/constant"
)

// Client is the shared HTTP client. Its timeout is an outer bound; callers set tighter
// per-request deadlines through their contexts.
var Client = NewClient(time.Minute)

// NewClient returns a client with a pooled transport that stamps the application user agent.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: newTransport()},
	}
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", constant.UserAgent)
	return u.base.RoundTrip(clone)
}
