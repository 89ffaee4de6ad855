// Package beacon provides a REST client for the subset of the consensus node
// API the ejector depends on: sync status, genesis information, the head
// state fork, validator lookups and voluntary exit submission.
package beacon

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultMaxRetries = 3

// Client is a wrapper object around the HTTP client.
type Client struct {
	hc         *http.Client
	baseURL    *url.URL
	maxRetries int
}

// NewClient constructs a new client with the provided options (ex WithTimeout).
// `host` is the base host + port used to construct request urls. This value can be
// a URL string, or NewClient will assume an http endpoint if just `host:port` is used.
func NewClient(host string, opts ...ClientOpt) (*Client, error) {
	u, err := urlForHost(host)
	if err != nil {
		return nil, err
	}
	c := &Client{
		hc:         &http.Client{Timeout: 30 * time.Second},
		baseURL:    u,
		maxRetries: defaultMaxRetries,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func urlForHost(h string) (*url.URL, error) {
	// try to parse as url (being permissive)
	u, err := url.Parse(h)
	if err == nil && u.Host != "" {
		return u, nil
	}
	// try to parse as host:port
	host, port, err := net.SplitHostPort(h)
	if err != nil {
		return nil, ErrMalformedHostname
	}
	return &url.URL{Host: net.JoinHostPort(host, port), Scheme: "http"}, nil
}

// NodeURL returns a human-readable string representation of the beacon node base url.
func (c *Client) NodeURL() string {
	return c.baseURL.String()
}

// Get is a generic, opinionated GET function to reduce boilerplate amongst the getters in this package.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post sends a json body to the given path.
func (c *Client) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	var b []byte
	var err error
	for i := 0; i < c.maxRetries; i++ {
		b, err = c.doOnce(ctx, method, u.String(), body)
		if err == nil {
			return b, nil
		}
		if ctx.Err() != nil || !retryableAPIErr(err) {
			return nil, err
		}
		log.WithError(err).WithField("url", u.Redacted()).Debug("Retrying transient API failure")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(i+1)):
		}
	}
	return nil, err
}

func (c *Client) doOnce(ctx context.Context, method, u string, body []byte) (res []byte, err error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := r.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if r.StatusCode != http.StatusOK {
		return nil, non200Err(r)
	}
	res, err = io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading http response body")
	}
	return res, nil
}

// retryableAPIErr treats transport faults and server side errors as
// transient. Decode failures and 4xx responses are not retried.
func retryableAPIErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "code=429") {
		return true
	}
	for _, code := range []string{"code=500", "code=502", "code=503", "code=504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
