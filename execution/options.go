package execution

import "time"

// Option for the execution client.
type Option func(c *Client) error

// WithTimeout sets the per call timeout applied to every RPC request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.cfg.callTimeout = timeout
		return nil
	}
}

// WithMaxRetries sets the number of attempts made for transient failures.
func WithMaxRetries(retries int) Option {
	return func(c *Client) error {
		c.cfg.maxRetries = retries
		return nil
	}
}

// WithRetryBackoff sets the base delay between retry attempts.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(c *Client) error {
		c.cfg.retryBackoff = backoff
		return nil
	}
}
