// Package client drives HTTP/1.1 request/response transactions:
// it normalizes request descriptors, runs one transaction per
// connection, and follows redirects and Basic auth retries across
// transactions.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"httpwire/transport"
	"httpwire/uri"
	"httpwire/wire"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Client struct {
	dialer transport.ConnDialer
	opts   Options

	logger *slog.Logger
	clock  clock.Clock
}

func New(d transport.ConnDialer, logger *slog.Logger, clk clock.Clock, opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}

	return &Client{
		dialer: d,
		opts:   opts,
		logger: logger,
		clock:  clk,
	}
}

// Default returns a client over a TCP dialer with [DefaultOptions].
func Default() *Client {
	clk := clock.New()
	dialer := transport.NewNetDialer(DefaultOptions.Timeout, clk)

	return New(dialer, slog.Default(), clk, DefaultOptions)
}

// Response is the final outcome of a transaction. The body is not part
// of it: body bytes go to the request's sink.
type Response struct {
	Code       uint
	Headers    wire.HeaderMap
	StatusLine string
}

// Do runs the exchange req describes, following 301/302 redirects and
// retrying once with Basic credentials on a 401. Each attempt opens a
// brand-new connection. req itself is never mutated.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	r := req.clone()
	for {
		canon, err := c.normalize(r)
		if err != nil {
			return nil, err
		}

		res, retry, err := c.attempt(ctx, r, canon)
		if err != nil {
			return nil, err
		}
		if retry == nil {
			return res, nil
		}

		r = retry
	}
}

// Fetch is the string-in/string-out convenience form. A non-empty body
// implies POST with the body sent as-is; the response body is buffered
// and returned.
func (c *Client) Fetch(ctx context.Context, rawURL, body string) (string, uint, wire.HeaderMap, string, error) {
	var buf bytes.Buffer

	req := &Request{URL: rawURL, Sink: &buf}
	if body != "" {
		req.Method = "POST"
		req.Body = strings.NewReader(body)
		req.Headers = wire.HeaderMap{}
		req.Headers.Set("content-length", strconv.Itoa(len(body)))
		req.Headers.Set("content-type", "application/x-www-form-urlencoded")
	}

	res, err := c.Do(ctx, req)
	if err != nil {
		return "", 0, nil, "", err
	}

	return buf.String(), res.Code, res.Headers, res.StatusLine, nil
}

// attempt runs one transaction. It returns either the final response,
// or the derived request for the next attempt. The connection is
// closed on every exit path.
func (c *Client) attempt(ctx context.Context, r *Request, canon *canonicalRequest) (_ *Response, retry *Request, _ error) {
	c.logger.Debug("starting transaction",
		"method", canon.method,
		"target", canon.target,
		"addr", canon.addr.String(),
		"nredirects", r.nredirects,
	)

	start := c.clock.Now()

	t, err := c.open(ctx, canon)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		t.close()
		c.logger.Debug("transaction finished", "elapsed", c.clock.Since(start))
	}()

	if err := t.sendRequest(canon); err != nil {
		return nil, nil, errors.Wrap(err, "sending request")
	}

	code, statusLine, err := wire.ReadStatusLine(t)
	if err != nil {
		return nil, nil, errors.Wrap(err, "receiving status line")
	}

	headers, err := wire.ReadHeaders(t)
	if err != nil {
		return nil, nil, errors.Wrap(err, "receiving headers")
	}

	// Redirect wins over the auth retry; at most one of them fires.
	if next, ok := c.redirect(r, canon, code, headers); ok {
		location, _ := headers.Get("location")
		c.logger.Debug("following redirect", "code", code, "location", location)
		return nil, next, nil
	}

	if next, ok := c.authorize(r, canon, code); ok {
		c.logger.Debug("retrying with credentials", "user", canon.user)
		return nil, next, nil
	}

	if shouldReceiveBody(canon.method, code) {
		sink := canon.sink
		if sink == nil {
			sink = io.Discard
		}

		if err := t.receiveBody(headers, sink, canon.step); err != nil {
			return nil, nil, errors.Wrap(err, "receiving body")
		}
	}

	return &Response{Code: code, Headers: headers, StatusLine: statusLine}, nil, nil
}

// redirect decides whether the response sends us elsewhere, and
// derives the follow-up request when it does.
func (c *Client) redirect(r *Request, canon *canonicalRequest, code uint, headers wire.HeaderMap) (*Request, bool) {
	location, ok := headers.Get("location")
	switch {
	case !ok || location == "":
		return nil, false
	case r.DisableRedirect:
		return nil, false
	case code != 301 && code != 302:
		return nil, false
	case r.Method != "" && r.Method != "GET" && r.Method != "HEAD":
		return nil, false
	case r.nredirects >= c.opts.MaxRedirects:
		return nil, false
	}

	resolved, err := uri.ResolveReference(canon.url, location)
	if err != nil {
		// An unusable location leaves the response as final.
		return nil, false
	}

	next := r.clone()
	next.URL = resolved.String()
	// The overrides described the original target; the redirect URL
	// replaces them wholesale.
	next.Scheme, next.Host, next.Port = "", "", 0
	next.Path, next.Query, next.Fragment = "", "", ""
	next.nredirects++

	return next, true
}

// authorize decides whether a 401 warrants a retry carrying Basic
// credentials.
func (c *Client) authorize(r *Request, canon *canonicalRequest, code uint) (*Request, bool) {
	switch {
	case code != 401:
		return nil, false
	case canon.user == "" || canon.password == "":
		return nil, false
	case canon.headers.Has("authorization"):
		// Credentials were already presented and rejected.
		return nil, false
	}

	next := r.clone()
	if next.Headers == nil {
		next.Headers = wire.HeaderMap{}
	}
	next.Headers.Set("authorization", basicCredentials(canon.user, canon.password))

	return next, true
}

// Reference: https://datatracker.ietf.org/doc/html/rfc7617#section-2
func basicCredentials(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// shouldReceiveBody reports whether the response carries a body at
// all, per RFC 7230 section 3.3.3.
func shouldReceiveBody(method string, code uint) bool {
	if method == "HEAD" {
		return false
	}
	if code == 204 || code == 304 {
		return false
	}
	if 100 <= code && code < 200 {
		return false
	}

	return true
}
