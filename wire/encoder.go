package wire

import (
	"bytes"
	"io"
	"sort"

	"httpwire/util/rule"

	"github.com/pkg/errors"
)

const versionText = "HTTP/1.1"

// WriteRequestLine writes "<METHOD> <target> HTTP/1.1\r\n".
func WriteRequestLine(w io.Writer, method, target string) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(method)
	buf.WriteByte(rule.SP)
	buf.WriteString(target)
	buf.WriteByte(rule.SP)
	buf.WriteString(versionText)
	buf.Write(rule.CRLF)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing request line")
	}

	return nil
}

// WriteHeaders writes each field as "<name>: <value>\r\n" and a
// terminating empty line. Names are written in sorted order so the
// block is stable within one call.
func WriteHeaders(w io.Writer, headers HeaderMap) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := bytes.NewBuffer(nil)
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(headers[name])
		buf.Write(rule.CRLF)
	}
	buf.Write(rule.CRLF)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing headers")
	}

	return nil
}
