// Package wire encodes and decodes the HTTP/1.1 message framing:
// request lines, status lines and header blocks.
package wire

import (
	"bytes"
	"strconv"
	"strings"

	"httpwire/util/rule"

	"github.com/pkg/errors"
)

// LineReader produces one wire line at a time, without the CRLF.
type LineReader interface {
	ReadLine() ([]byte, error)
}

var (
	ErrMalformedStatusLine = errors.New("status line is malformed")
	ErrMalformedFieldLine  = errors.New("field line is malformed")
)

// ReadStatusLine reads and parses one status line. It returns the
// numeric status code along with the raw line text.
func ReadStatusLine(r LineReader) (code uint, raw string, err error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, "", errors.Wrap(err, "reading status line")
	}

	code, ok := parseStatusLine(line)
	if !ok {
		return 0, "", errors.Wrapf(ErrMalformedStatusLine, "%q", string(line))
	}

	return code, string(line), nil
}

// parseStatusLine matches "HTTP/<digits>.<digits> <3-digit-code>".
func parseStatusLine(line []byte) (uint, bool) {
	rest, found := bytes.CutPrefix(line, []byte("HTTP/"))
	if !found {
		return 0, false
	}

	rest = skipDigits(rest)
	if rest, found = bytes.CutPrefix(rest, []byte{'.'}); !found {
		return 0, false
	}

	rest = skipDigits(rest)
	if rest, found = bytes.CutPrefix(rest, []byte{rule.SP}); !found {
		return 0, false
	}

	if len(rest) < 3 {
		return 0, false
	}
	if len(rest) > 3 && rest[3] != rule.SP {
		return 0, false
	}

	code, err := strconv.ParseUint(string(rest[:3]), 10, 64)
	if err != nil {
		return 0, false
	}

	return uint(code), true
}

func skipDigits(b []byte) []byte {
	for len(b) > 0 && rule.IsDigit(rune(b[0])) {
		b = b[1:]
	}
	return b
}

// ReadHeaders reads field lines up to the empty line that terminates
// the header block. Obsolete line folding is unwrapped: a line starting
// with whitespace has its entire content appended, untrimmed, to the
// value of the preceding field.
func ReadHeaders(r LineReader) (HeaderMap, error) {
	headers := HeaderMap{}

	line, err := r.ReadLine()
	if err != nil {
		return nil, errors.Wrap(err, "reading line")
	}

	for len(line) > 0 {
		name, value, found := bytes.Cut(line, []byte{':'})
		if !found || len(name) == 0 {
			return nil, errors.Wrapf(ErrMalformedFieldLine, "%q", string(line))
		}

		value = bytes.Trim(value, string(rule.OWS))

		// Consume fold continuations.
		for {
			line, err = r.ReadLine()
			if err != nil {
				return nil, errors.Wrap(err, "reading line")
			}

			if len(line) == 0 || !rule.IsOWS(line[0]) {
				break
			}

			value = append(value, line...)
		}

		headers.Add(strings.ToLower(string(name)), string(value))
	}

	return headers, nil
}
