package client

import "time"

const (
	// DefaultUserAgent identifies this client on the wire when the
	// request supplies no user-agent of its own.
	DefaultUserAgent = "httpwire/0.1"

	DefaultPort      uint16 = 80
	DefaultProxyPort uint16 = 3128

	DefaultMaxRedirects uint = 5

	DefaultTimeout = 60 * time.Second
)

type Options struct {
	// Timeout bounds the connect and every single send/receive of a
	// transaction. It is applied by the dialer [Default] constructs;
	// callers providing their own dialer configure the timeout there.
	Timeout time.Duration

	// UserAgent replaces [DefaultUserAgent].
	UserAgent string

	// Proxy is the forward proxy URL used when the request names none.
	// Empty means direct origin connections.
	Proxy string

	// StepSize is the transfer unit for body pumps. Zero uses
	// [iolib.DefaultStepSize].
	StepSize uint

	// MaxRedirects bounds how many redirect hops Do follows.
	// Zero means [DefaultMaxRedirects].
	MaxRedirects uint
}

var DefaultOptions = Options{
	Timeout: DefaultTimeout,
}
