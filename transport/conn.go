// Package transport provides the byte-stream connection a transaction
// runs over: a dialer, a bidirectional conn with deadline support, and
// the errors both can surface.
package transport

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrConnClosed       = errors.New("connection is closed")
	ErrDeadLineExceeded = errors.New("deadline exceeded")
)

// Addr locates a peer to connect to.
type Addr struct {
	Host string
	Port uint16
}

func (a Addr) String() string {
	host := a.Host
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	return host + ":" + strconv.FormatUint(uint64(a.Port), 10)
}

type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}
