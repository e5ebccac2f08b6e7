package transport

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// NetDialer dials TCP connections through the standard net package.
// A non-zero Timeout bounds the connect and, on the returned conn,
// every single read and write.
type NetDialer struct {
	Timeout time.Duration

	clock clock.Clock
}

var _ ConnDialer = (*NetDialer)(nil)

func NewNetDialer(timeout time.Duration, clk clock.Clock) *NetDialer {
	return &NetDialer{Timeout: timeout, clock: clk}
}

func (d *NetDialer) Dial(ctx context.Context, addr Addr) (Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}

	con, err := nd.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, errors.Wrapf(mapNetError(err), "dialing %s", addr)
	}

	return &netConn{con: con, timeout: d.Timeout, clock: d.clock}, nil
}

// netConn applies the dialer's per-operation timeout before each read
// and write, so a stalled peer cannot block a transaction forever.
type netConn struct {
	con     net.Conn
	timeout time.Duration
	clock   clock.Clock
}

var _ Conn = (*netConn)(nil)

func (c *netConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		_ = c.con.SetReadDeadline(c.clock.Now().Add(c.timeout))
	}

	n, err := c.con.Read(p)
	return n, mapNetError(err)
}

func (c *netConn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		_ = c.con.SetWriteDeadline(c.clock.Now().Add(c.timeout))
	}

	n, err := c.con.Write(p)
	return n, mapNetError(err)
}

func (c *netConn) Close() error { return c.con.Close() }

func (c *netConn) SetReadDeadLine(t time.Time)  { _ = c.con.SetReadDeadline(t) }
func (c *netConn) SetWriteDeadLine(t time.Time) { _ = c.con.SetWriteDeadline(t) }

// mapNetError converts net errors into the transport sentinels.
// io.EOF passes through untouched: a close-delimited body depends on it.
func mapNetError(err error) error {
	switch {
	case err == nil, err == io.EOF:
		return err
	case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return errors.Wrap(ErrConnClosed, err.Error())
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Wrap(ErrDeadLineExceeded, err.Error())
	}

	return err
}
