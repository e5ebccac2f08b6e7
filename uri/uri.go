// Package uri implements the subset of RFC 3986 URI handling that an
// HTTP client needs: parsing, serialization and reference resolution.
package uri

import (
	"strconv"
	"strings"

	"httpwire/util/rule"

	"github.com/pkg/errors"
)

type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	Query     *string
	Fragment  *string
}

type Authority struct {
	UserInfo string
	Host     string

	// Port is practically in range of 0 ~ 65535, so uint16 it is.
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
	Port *uint16
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u *URI) IsRelativeRef() bool { return u.Scheme == "" }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	b := new(strings.Builder)
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	if u.Authority != nil {
		b.WriteString("//")
		if u.Authority.UserInfo != "" {
			b.WriteString(u.Authority.UserInfo)
			b.WriteByte('@')
		}
		b.WriteString(u.Authority.Host)
		if u.Authority.Port != nil {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(*u.Authority.Port), 10))
		}
	}

	b.WriteString(u.Path)

	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(*u.Query)
	}

	if u.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*u.Fragment)
	}

	return b.String()
}

// RequestTarget builds the origin-form target: path, query and fragment
// only, never scheme or authority. An empty path becomes "/".
func (u *URI) RequestTarget() string {
	rel := URI{Path: u.Path, Query: u.Query, Fragment: u.Fragment}
	if rel.Path == "" {
		rel.Path = "/"
	}
	return rel.String()
}

func Parse(rawURL string) (URI, error) {
	if containsCTL(rawURL) {
		return URI{}, errors.New("URI should not contain CTL bytes")
	}

	var uri URI

	scheme, rest, err := cutScheme(rawURL)
	if err != nil {
		return URI{}, errors.Wrap(err, "getting scheme")
	}
	// Scheme is case-insensitive, lowercase is the normal form.
	uri.Scheme = strings.ToLower(scheme)

	if strings.HasPrefix(rest, "//") {
		var authorityRaw string
		authorityRaw, rest = rest[2:], ""
		if i := strings.IndexAny(authorityRaw, "/?#"); i >= 0 {
			authorityRaw, rest = authorityRaw[:i], authorityRaw[i:]
		}

		authority, err := parseAuthority(authorityRaw)
		if err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}

		uri.Authority = &authority
	}

	path, query, frag := splitPathQueryFrag(rest)
	uri.Path = path

	if len(query) > 0 {
		// Strip '?' from query.
		query = query[1:]
		uri.Query = &query
	}

	if len(frag) > 0 {
		// Strip '#' from fragment.
		frag = frag[1:]
		uri.Fragment = &frag
	}

	return uri, nil
}

// cutScheme cuts the scheme off rawURL. A colon appearing before any of
// "/?#" marks a scheme; an invalid scheme is an error.
func cutScheme(rawURL string) (scheme, rest string, err error) {
	idx := strings.IndexByte(rawURL, ':')
	if idx < 0 || strings.IndexAny(rawURL, "/?#") >= 0 && strings.IndexAny(rawURL, "/?#") < idx {
		return "", rawURL, nil
	}

	scheme, rest = rawURL[:idx], rawURL[idx+1:]
	if err := assertValidScheme(scheme); err != nil {
		return "", "", err
	}

	return scheme, rest, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func assertValidScheme(s string) error {
	if len(s) == 0 {
		return errors.New("scheme is empty")
	}

	for i, r := range s {
		switch {
		case rule.IsAlpha(r):
		case i > 0 && (rule.IsDigit(r) || r == '+' || r == '-' || r == '.'):
		default:
			return errors.Errorf("invalid character in scheme: %q", r)
		}
	}

	return nil
}

func parseAuthority(raw string) (authority Authority, err error) {
	host := raw
	if i := strings.Index(raw, "@"); i >= 0 {
		authority.UserInfo, host = raw[:i], raw[i+1:]
	}

	host, portPart, err := splitHostPort(host)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing host")
	}

	port, hasPort, err := ParsePort(portPart)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing port")
	}

	if hasPort {
		authority.Port = &port
	}

	authority.Host = strings.ToLower(host)

	return authority, nil
}

func splitHostPort(raw string) (host string, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// IP literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP literal")
		}

		return raw[:idx+1], raw[idx+1:], nil
	}

	// ipv4 or reg-name.
	host = raw
	if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		host = raw[:idx]
		portPart = raw[idx:]
	}

	return host, portPart, nil
}

// ParsePort parses a ":<digits>" port part. An empty string means
// no port was present.
func ParsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}

	s = s[1:]

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	return uint16(n), true, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.LastIndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	path = raw
	return
}

func containsCTL(s string) bool {
	for _, c := range []byte(s) {
		if c < 0x20 || c == 0x7F {
			return true
		}
	}
	return false
}
