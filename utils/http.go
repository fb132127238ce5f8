// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the outbound API clients unless they are given their own.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// NewHTTPClient returns a client with its own timeout, falling back to HTTPClient's.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return HTTPClient
	}
	return &http.Client{Timeout: timeout}
}
