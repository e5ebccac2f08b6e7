package transfer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ChunkedReaderTestSuite struct {
	suite.Suite
}

func TestChunkedReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedReaderTestSuite))
}

func (s *ChunkedReaderTestSuite) TestRead() {
	input := []byte("" +
		"5;ext=foo\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLNMO\r\n" +
		"0\r\n" + // last chunk
		"Hello: World\r\n" + // trailer, discarded
		"\r\n",
	)

	cr := NewChunkedReader(bytes.NewReader(input))

	buf := make([]byte, 2)
	// First read reads only AB.
	n, err := cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("AB"), buf)

	buf = make([]byte, 10)
	// Second read reads the rest of the first chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal([]byte("CDE"), buf[:n])

	// Third read reads all the data in the second chunk.
	n, err = cr.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal([]byte("FGHIJKLNMO"), buf)

	// Fourth read hits the last chunk.
	n, err = cr.Read(buf)
	s.Require().ErrorIs(err, io.EOF)
	s.Zero(n)

	// Reads past the end keep returning EOF.
	n, err = cr.Read(buf)
	s.Require().ErrorIs(err, io.EOF)
	s.Zero(n)
}

func (s *ChunkedReaderTestSuite) TestReadSizes() {
	testcases := []struct {
		desc     string
		input    string
		expected string
		wantErr  error
	}{
		{
			desc:     "empty body",
			input:    "0\r\n\r\n",
			expected: "",
		},
		{
			desc:     "extension with whitespace",
			input:    "5 ; ext=foo\r\nABCDE\r\n0\r\n\r\n",
			expected: "ABCDE",
		},
		{
			desc:     "uppercase hex size",
			input:    "A\r\n0123456789\r\n0\r\n\r\n",
			expected: "0123456789",
		},
		{
			desc:    "non-hex size",
			input:   "zz\r\nABCDE\r\n",
			wantErr: ErrInvalidChunkSize,
		},
		{
			desc:    "negative size",
			input:   "-5\r\nABCDE\r\n",
			wantErr: ErrInvalidChunkSize,
		},
		{
			desc:    "missing chunk delimiter",
			input:   "3\r\nABCDE\r\n0\r\n\r\n",
			wantErr: ErrMissingChunkDelimiter,
		},
		{
			desc:    "truncated data",
			input:   "5\r\nAB",
			wantErr: io.ErrUnexpectedEOF,
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			cr := NewChunkedReader(strings.NewReader(tc.input))

			out, err := io.ReadAll(cr)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}

			s.Require().NoError(err)
			s.Equal(tc.expected, string(out))
		})
	}
}

type ChunkedWriterTestSuite struct {
	suite.Suite
}

func TestChunkedWriterTestSuite(t *testing.T) {
	suite.Run(t, new(ChunkedWriterTestSuite))
}

func (s *ChunkedWriterTestSuite) TestWrite() {
	var buf bytes.Buffer
	cw := NewChunkedWriter(&buf)

	n, err := cw.Write([]byte("ABCDE"))
	s.Require().NoError(err)
	s.Equal(5, n)

	n, err = cw.Write([]byte("FGHIJKLNMO"))
	s.Require().NoError(err)
	s.Equal(10, n)

	s.Require().NoError(cw.Close())

	expected := "" +
		"5\r\n" +
		"ABCDE\r\n" +
		"a\r\n" +
		"FGHIJKLNMO\r\n" +
		"0\r\n" +
		"\r\n"
	s.Equal(expected, buf.String())
}

func (s *ChunkedWriterTestSuite) TestWriteEmpty() {
	var buf bytes.Buffer
	cw := NewChunkedWriter(&buf)

	// Zero length writes must not produce a terminal chunk.
	n, err := cw.Write(nil)
	s.Require().NoError(err)
	s.Zero(n)
	s.Zero(buf.Len())

	s.Require().NoError(cw.Close())
	s.Equal("0\r\n\r\n", buf.String())
}

func (s *ChunkedWriterTestSuite) TestRoundTrip() {
	payloads := [][]byte{
		[]byte("Hello, World!"),
		bytes.Repeat([]byte("x"), 10000),
		{},
	}

	for _, payload := range payloads {
		var buf bytes.Buffer
		cw := NewChunkedWriter(&buf)

		for chunk := payload; len(chunk) > 0; {
			n := min(len(chunk), 1024)
			_, err := cw.Write(chunk[:n])
			s.Require().NoError(err)
			chunk = chunk[n:]
		}
		s.Require().NoError(cw.Close())

		out, err := io.ReadAll(NewChunkedReader(&buf))
		s.Require().NoError(err)
		s.Equal(payload, append([]byte{}, out...))
	}
}
