package beacon

import (
	"net/http"
	"time"
)

// ClientOpt is a functional option for the Client type (http.Client wrapper).
type ClientOpt func(*Client)

// WithTimeout sets the .Timeout attribute of the wrapped http.Client.
func WithTimeout(timeout time.Duration) ClientOpt {
	return func(c *Client) {
		c.hc.Timeout = timeout
	}
}

// WithCustomTransport replaces the underlying http's transport with a custom one.
func WithCustomTransport(t http.RoundTripper) ClientOpt {
	return func(c *Client) {
		c.hc.Transport = t
	}
}

// WithMaxRetries sets the number of attempts made for transient failures.
func WithMaxRetries(retries int) ClientOpt {
	return func(c *Client) {
		c.maxRetries = retries
	}
}
