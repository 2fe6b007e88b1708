package pushover

import (
	"net/http"
	"time"

	"github.com/kart-io/pushover/logger"
	"github.com/kart-io/pushover/observability"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Timeouts and
// transport settings configured on it apply to every operation.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the API base endpoint. Useful for testing
// against a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			if baseURL[len(baseURL)-1] != '/' {
				baseURL += "/"
			}
			c.baseURL = baseURL
		}
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithTelemetry enables tracing and metrics around API operations.
func WithTelemetry(t *observability.Telemetry) Option {
	return func(c *Client) {
		c.telemetry = t
	}
}
