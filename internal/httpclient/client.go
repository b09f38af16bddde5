// Package httpclient provides the HTTP transport used by the object-store
// endpoint.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds connection setup and the wait for response headers
// when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// NewTransport returns a keep-alive transport whose per-request phases are
// bounded by timeout. A zero timeout falls back to DefaultTimeout. Object
// bodies can be streamed for longer than timeout; only connection setup and
// the wait for response headers are bounded.
func NewTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
}
