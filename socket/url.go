package socket

import (
	"fmt"
	"net/url"
)

// URL derives the watch websocket address of a session from the server base URL.
// The scheme mirrors the base: http becomes ws, https becomes wss.
func URL(base *url.URL, session string) (string, error) {
	var scheme string
	switch base.Scheme {
	case "http", "ws":
		scheme = "ws"
	case "https", "wss":
		scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", base.Scheme)
	}

	if base.Host == "" {
		return "", fmt.Errorf("server url %q has no host", base.String())
	}

	u := url.URL{
		Scheme: scheme,
		Host:   base.Host,
		Path:   "/ws/" + session,
	}
	return u.String(), nil
}
