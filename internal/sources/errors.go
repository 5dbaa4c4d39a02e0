package sources

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// HTTPStatusError is returned when a source replies with a non-2xx status.
// Body holds the full response body so callers can inspect source-specific
// error documents.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, body)
}

// IsTransient reports whether err is worth retrying: rate limiting or
// upstream unavailability (HTTP 429, 502, 503), network timeouts, and
// connection resets. Everything else is permanent and propagates
// immediately.
func IsTransient(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET)
}
