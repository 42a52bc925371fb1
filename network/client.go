// Package network holds the HTTP client used to talk to the plst4 server.
package network

import (
	"net/http"
	"time"

	"github.com/plst4-cli/plst4/constant"
)

// Client is shared by every outbound HTTP request of the client.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: &userAgentTransport{base: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 15 * time.Second
	return t
}

// userAgentTransport stamps requests that don't set their own User-Agent.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return t.base.RoundTrip(req)
}
