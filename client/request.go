package client

import (
	"context"
	"io"
	"strings"

	"httpwire/transport"
	"httpwire/uri"
	"httpwire/wire"

	"github.com/pkg/errors"
)

var ErrMissingHost = errors.New("request has no host")

// Request describes one logical HTTP exchange. Do never mutates it:
// every attempt works on a derived copy.
type Request struct {
	// URL is the target. The explicit component fields below override
	// whatever it parses to.
	URL string

	Method  string // empty means GET
	Headers wire.HeaderMap

	Body io.Reader // request body source; nil means no body
	Sink io.Writer // response body sink; nil discards the body

	// StepSize overrides the client's body pump transfer unit.
	StepSize uint

	// User and Password, when both set, enable the Basic auth retry
	// on a 401 response. URL userinfo fills them when empty.
	User     string
	Password string

	// Proxy overrides the client's default forward proxy.
	Proxy string

	// DisableRedirect turns off following of 301/302 responses.
	DisableRedirect bool

	// Dial overrides how the transaction connects.
	Dial DialFunc

	// Component overrides.
	Scheme   string
	Host     string
	Port     uint16
	Path     string
	Query    string
	Fragment string

	nredirects uint
}

// DialFunc opens the byte-stream connection a transaction runs over.
type DialFunc func(ctx context.Context, addr transport.Addr) (transport.Conn, error)

func (r *Request) clone() *Request {
	clone := *r
	if r.Headers != nil {
		clone.Headers = r.Headers.Clone()
	}
	return &clone
}

// canonicalRequest is the normalized form one transaction runs on.
type canonicalRequest struct {
	method  string
	target  string
	headers wire.HeaderMap
	body    io.Reader
	sink    io.Writer
	step    uint

	url  uri.URI        // absolute request URL, base for redirects
	addr transport.Addr // proxy or origin
	dial DialFunc

	user, password string
}

// normalize converts a descriptor into its canonical form: resolved
// URL, connect address (proxy aware), request-target and the default
// headers filled in.
func (c *Client) normalize(r *Request) (*canonicalRequest, error) {
	var u uri.URI
	if r.URL != "" {
		var err error
		if u, err = uri.Parse(r.URL); err != nil {
			return nil, errors.Wrap(err, "parsing url")
		}
	}

	applyOverrides(&u, r)

	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Authority == nil || u.Authority.Host == "" {
		return nil, ErrMissingHost
	}

	user, password := r.User, r.Password
	if user == "" && u.Authority.UserInfo != "" {
		user, password, _ = strings.Cut(u.Authority.UserInfo, ":")
	}

	canon := &canonicalRequest{
		method:   r.Method,
		body:     r.Body,
		sink:     r.Sink,
		step:     r.StepSize,
		url:      u,
		dial:     r.Dial,
		user:     user,
		password: password,
	}

	if canon.method == "" {
		canon.method = "GET"
	}
	if canon.step == 0 {
		canon.step = c.opts.StepSize
	}

	originPort := DefaultPort
	if u.Authority.Port != nil {
		originPort = *u.Authority.Port
	}

	proxy := r.Proxy
	if proxy == "" {
		proxy = c.opts.Proxy
	}

	if proxy != "" {
		addr, err := parseProxyAddr(proxy)
		if err != nil {
			return nil, errors.Wrap(err, "resolving proxy")
		}

		canon.addr = addr
		// A forward proxy requires the absolute-form target.
		// Userinfo never goes on the wire.
		abs := u
		abs.Authority = &uri.Authority{Host: u.Authority.Host, Port: u.Authority.Port}
		canon.target = abs.String()
	} else {
		canon.addr = transport.Addr{Host: u.Authority.Host, Port: originPort}
		canon.target = u.RequestTarget()
	}

	canon.headers = c.normalizeHeaders(r, u.Authority.Host)

	return canon, nil
}

func applyOverrides(u *uri.URI, r *Request) {
	if r.Scheme != "" {
		u.Scheme = r.Scheme
	}
	if r.Host != "" || r.Port != 0 {
		if u.Authority == nil {
			u.Authority = &uri.Authority{}
		}
		if r.Host != "" {
			u.Authority.Host = r.Host
		}
		if r.Port != 0 {
			port := r.Port
			u.Authority.Port = &port
		}
	}
	if r.Path != "" {
		u.Path = r.Path
	}
	if r.Query != "" {
		query := r.Query
		u.Query = &query
	}
	if r.Fragment != "" {
		fragment := r.Fragment
		u.Fragment = &fragment
	}
}

// normalizeHeaders lower-cases the supplied names and fills in the
// defaults: user-agent, host (always the origin, never the proxy), and
// transfer-encoding for a body without a declared length.
func (c *Client) normalizeHeaders(r *Request, originHost string) wire.HeaderMap {
	headers := wire.HeaderMap{}
	for name, value := range r.Headers {
		headers.Add(name, value)
	}

	if !headers.Has("user-agent") {
		headers.Set("user-agent", c.opts.UserAgent)
	}
	if !headers.Has("host") {
		headers.Set("host", originHost)
	}
	if r.Body != nil && !headers.Has("content-length") && !headers.Has("transfer-encoding") {
		headers.Set("transfer-encoding", "chunked")
	}

	return headers
}

func parseProxyAddr(proxy string) (transport.Addr, error) {
	pu, err := uri.Parse(proxy)
	if err != nil {
		return transport.Addr{}, errors.Wrap(err, "parsing proxy url")
	}

	if pu.Authority == nil || pu.Authority.Host == "" {
		return transport.Addr{}, ErrMissingHost
	}

	port := DefaultProxyPort
	if pu.Authority.Port != nil {
		port = *pu.Authority.Port
	}

	return transport.Addr{Host: pu.Authority.Host, Port: port}, nil
}
