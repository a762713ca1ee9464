// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pdiddy/libgen-fetch/pkg/types"
)

const (
	// DefaultUserAgent identifies the fetcher to catalog sites.
	DefaultUserAgent = "Mozilla/5.0 (compatible; libgen-fetch/0.1)"

	defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	maxRedirects  = 10
)

// Client is the process-wide HTTP configuration handed to every component
// that issues requests. It is constructed once and shared; Reconfigure swaps
// the underlying client atomically, so readers never observe a half-applied
// change. Requests already in flight finish on the client they started with.
type Client struct {
	state atomic.Pointer[clientState]
}

type clientState struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a Client from cfg.
func NewClient(cfg types.HTTPConfig) (*Client, error) {
	c := &Client{}
	if err := c.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Reconfigure replaces the headers, proxy and timeout used by new requests.
func (c *Client) Reconfigure(cfg types.HTTPConfig) error {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,

		// Bodies may stream for a long time; only the wait for headers is bounded.
		ResponseHeaderTimeout: cfg.Timeout,
	}

	if p := strings.TrimSpace(cfg.Proxy); p != "" {
		proxyURL, err := url.Parse(p)
		if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
			return fmt.Errorf("invalid proxy URL %q", p)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	hc := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max: %d)", maxRedirects)
			}
			return nil
		},
	}

	old := c.state.Swap(&clientState{http: hc, userAgent: ua})
	if old != nil {
		if t, ok := old.http.Transport.(*http.Transport); ok {
			// Only idle connections are closed; in-flight requests complete.
			t.CloseIdleConnections()
		}
	}
	return nil
}

// HTTP returns the current *http.Client snapshot.
func (c *Client) HTTP() *http.Client {
	return c.state.Load().http
}

// UserAgent returns the User-Agent applied to new requests.
func (c *Client) UserAgent() string {
	return c.state.Load().userAgent
}

// NewRequest builds a request carrying the configured default headers.
func (c *Client) NewRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent())
	req.Header.Set("Accept", defaultAccept)
	return req, nil
}

// Do sends req using the current client snapshot.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTP().Do(req)
}

// IsHTML reports whether a Content-Type header value denotes an HTML page.
func IsHTML(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
