package wire

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// lineSource feeds canned lines to the decoder.
type lineSource struct {
	lines []string
	err   error
}

func (ls *lineSource) ReadLine() ([]byte, error) {
	if len(ls.lines) == 0 {
		if ls.err != nil {
			return nil, ls.err
		}
		return nil, errors.New("no more lines")
	}

	line := ls.lines[0]
	ls.lines = ls.lines[1:]
	return []byte(line), nil
}

type StatusLineTestSuite struct {
	suite.Suite
}

func TestStatusLineTestSuite(t *testing.T) {
	suite.Run(t, new(StatusLineTestSuite))
}

func (s *StatusLineTestSuite) TestReadStatusLine() {
	testcases := []struct {
		desc     string
		line     string
		expected uint
		wantErr  error
	}{
		{
			desc:     "ok",
			line:     "HTTP/1.1 200 OK",
			expected: 200,
		},
		{
			desc:     "no reason phrase",
			line:     "HTTP/1.1 204",
			expected: 204,
		},
		{
			desc:     "http 1.0",
			line:     "HTTP/1.0 301 Moved Permanently",
			expected: 301,
		},
		{
			desc:    "no code",
			line:    "HTTP/1.1 OK",
			wantErr: ErrMalformedStatusLine,
		},
		{
			desc:    "two digit code",
			line:    "HTTP/1.1 99",
			wantErr: ErrMalformedStatusLine,
		},
		{
			desc:    "four digit code",
			line:    "HTTP/1.1 2000",
			wantErr: ErrMalformedStatusLine,
		},
		{
			desc:    "not http",
			line:    "ICY 200 OK",
			wantErr: ErrMalformedStatusLine,
		},
		{
			desc:    "missing dot",
			line:    "HTTP/11 200 OK",
			wantErr: ErrMalformedStatusLine,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			code, raw, err := ReadStatusLine(&lineSource{lines: []string{tc.line}})
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal(tc.expected, code)
			s.Equal(tc.line, raw)
		})
	}
}

func (s *StatusLineTestSuite) TestReadError() {
	boom := errors.New("boom")
	_, _, err := ReadStatusLine(&lineSource{err: boom})
	s.ErrorIs(err, boom)
}

type HeadersTestSuite struct {
	suite.Suite
}

func TestHeadersTestSuite(t *testing.T) {
	suite.Run(t, new(HeadersTestSuite))
}

func (s *HeadersTestSuite) TestReadHeaders() {
	testcases := []struct {
		desc     string
		lines    []string
		expected HeaderMap
		wantErr  error
	}{
		{
			desc:     "empty block",
			lines:    []string{""},
			expected: HeaderMap{},
		},
		{
			desc: "simple fields",
			lines: []string{
				"Host: example.com",
				"Content-Length: 5",
				"",
			},
			expected: HeaderMap{
				"host":           "example.com",
				"content-length": "5",
			},
		},
		{
			desc: "names are lowercased",
			lines: []string{
				"X-CUSTOM: value",
				"",
			},
			expected: HeaderMap{"x-custom": "value"},
		},
		{
			desc: "value whitespace is trimmed",
			lines: []string{
				"Server:   gorox  ",
				"",
			},
			expected: HeaderMap{"server": "gorox"},
		},
		{
			desc: "duplicate names joined in arrival order",
			lines: []string{
				"Set-Cookie: a=1",
				"set-cookie: b=2",
				"SET-COOKIE: c=3",
				"",
			},
			expected: HeaderMap{"set-cookie": "a=1, b=2, c=3"},
		},
		{
			desc: "folded line appended verbatim",
			lines: []string{
				"X-Long: first",
				" second",
				"\tthird",
				"",
			},
			expected: HeaderMap{"x-long": "first second\tthird"},
		},
		{
			desc: "fold followed by another field",
			lines: []string{
				"A: one",
				"  two",
				"B: three",
				"",
			},
			expected: HeaderMap{"a": "one  two", "b": "three"},
		},
		{
			desc:    "missing colon",
			lines:   []string{"not a header", ""},
			wantErr: ErrMalformedFieldLine,
		},
		{
			desc:    "empty name",
			lines:   []string{": value", ""},
			wantErr: ErrMalformedFieldLine,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			headers, err := ReadHeaders(&lineSource{lines: tc.lines})
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal(tc.expected, headers)
		})
	}
}

func (s *HeadersTestSuite) TestFoldEqualsUnfolded() {
	folded, err := ReadHeaders(&lineSource{lines: []string{
		"X-Value: alpha",
		" beta",
		"",
	}})
	s.Require().NoError(err)

	unfolded, err := ReadHeaders(&lineSource{lines: []string{
		"X-Value: alpha beta",
		"",
	}})
	s.Require().NoError(err)

	s.Equal(unfolded, folded)
}
