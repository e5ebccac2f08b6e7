package client

import (
	"context"
	"io"
	"strconv"

	iolib "httpwire/lib/io"
	"httpwire/transfer"
	"httpwire/transport"
	"httpwire/util/rule"
	"httpwire/wire"

	"github.com/pkg/errors"
)

// bodyMode selects how a message body is framed on the wire.
type bodyMode int

const (
	// modeKeepOpen streams the body raw, the conn stays open for the
	// reply. Chosen for sending when content-length is declared.
	modeKeepOpen bodyMode = iota
	// modeChunked frames the body with the chunked transfer coding.
	modeChunked
	// modeByLength reads exactly content-length bytes.
	modeByLength
	// modeDefault reads until the peer closes the connection.
	modeDefault
)

// transaction owns one connection for one request/response exchange.
// It is opened at the start of an attempt and closed at its end,
// never shared across attempts.
type transaction struct {
	conn transport.Conn
	r    *iolib.UntilReader
}

func (c *Client) open(ctx context.Context, canon *canonicalRequest) (*transaction, error) {
	dial := canon.dial
	if dial == nil {
		dial = c.dialer.Dial
	}

	conn, err := dial(ctx, canon.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", canon.addr)
	}

	return &transaction{conn: conn, r: iolib.NewUntilReader(conn)}, nil
}

func (t *transaction) close() { _ = t.conn.Close() }

// ReadLine reads one wire line, excluding the CRLF.
func (t *transaction) ReadLine() ([]byte, error) {
	line, err := t.r.ReadUntil(rule.CRLF)
	if err != nil {
		return nil, err
	}

	return line[:len(line)-2], nil
}

var _ wire.LineReader = (*transaction)(nil)

func (t *transaction) sendRequest(canon *canonicalRequest) error {
	if err := wire.WriteRequestLine(t.conn, canon.method, canon.target); err != nil {
		return err
	}

	if err := wire.WriteHeaders(t.conn, canon.headers); err != nil {
		return err
	}

	if canon.body == nil {
		return nil
	}

	return t.sendBody(canon)
}

func (t *transaction) sendBody(canon *canonicalRequest) error {
	var w io.WriteCloser
	if canon.headers.Has("content-length") {
		// modeKeepOpen: raw passthrough.
		w = iolib.NopWriteCloser(t.conn)
	} else {
		// modeChunked.
		w = transfer.NewChunkedWriter(t.conn)
	}

	if err := iolib.Pump(w, canon.body, canon.step); err != nil {
		return errors.Wrap(err, "sending body")
	}

	return errors.Wrap(w.Close(), "finishing body")
}

// receiveBodyMode picks the decode mode from the response headers.
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-3.3.3
func receiveBodyMode(headers wire.HeaderMap) (bodyMode, uint) {
	if te, ok := headers.Get("transfer-encoding"); ok && te != "identity" {
		return modeChunked, 0
	}

	if v, ok := headers.Get("content-length"); ok {
		if length, err := strconv.ParseUint(v, 10, 64); err == nil {
			return modeByLength, uint(length)
		}
	}

	return modeDefault, 0
}

func (t *transaction) receiveBody(headers wire.HeaderMap, sink io.Writer, step uint) error {
	var src io.Reader

	mode, length := receiveBodyMode(headers)
	switch mode {
	case modeChunked:
		src = transfer.NewChunkedReader(t.r)
	case modeByLength:
		src = &exactReader{r: &iolib.LimitedReader{R: t.r, N: length}}
	default:
		// Delimited by the peer closing the connection.
		src = t.r
	}

	return iolib.Pump(sink, src, step)
}

// exactReader drains its limited source in full, reporting a
// premature EOF as [io.ErrUnexpectedEOF].
type exactReader struct {
	r *iolib.LimitedReader
}

func (er *exactReader) Read(p []byte) (int, error) {
	n, err := er.r.Read(p)
	if err == io.EOF && er.r.N > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}
