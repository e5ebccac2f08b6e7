// Package transfer implements the chunked transfer coding.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-4.1
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "httpwire/util/bytes"
	"httpwire/util/rule"

	"github.com/pkg/errors"
)

var (
	ErrInvalidChunkSize      = errors.New("chunk size is not a valid hex number")
	ErrMissingChunkDelimiter = errors.New("CRLF delimiter not found after chunk data")
)

// ChunkedReader converts a chunked message body into a plain byte
// stream. Chunk extensions are discarded, and so are trailers.
type ChunkedReader struct {
	br *bufio.Reader

	remain  uint // bytes left in the current chunk
	inChunk bool
	done    bool
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	return &ChunkedReader{br: bufio.NewReader(r)}
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if !cr.inChunk {
		size, err := cr.readChunkSize()
		if err != nil {
			return 0, errors.Wrap(err, "decoding chunk size")
		}

		if size == 0 {
			// Last chunk. Trailers follow, up to an empty line.
			if err := cr.discardTrailers(); err != nil {
				return 0, errors.Wrap(err, "discarding trailers")
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = size
		cr.inChunk = true
	}

	if uint(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	cr.remain -= uint(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remain == 0 {
		if err := cr.readChunkDelimiter(); err != nil {
			return n, err
		}
		cr.inChunk = false
	}

	return n, nil
}

func (cr *ChunkedReader) readChunkSize() (uint, error) {
	line, err := readLine(cr.br)
	if err != nil {
		return 0, err
	}

	// Cut off chunk extensions.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.Trim(sizeRaw, string(rule.OWS))

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidChunkSize, "%q", string(sizeRaw))
	}

	return uint(size), nil
}

func (cr *ChunkedReader) readChunkDelimiter() error {
	var crlf [2]byte
	if _, err := io.ReadFull(cr.br, crlf[:]); err != nil {
		return errors.Wrap(err, "reading chunk delimiter")
	}

	if !bytes.Equal(crlf[:], rule.CRLF) {
		return ErrMissingChunkDelimiter
	}

	return nil
}

func (cr *ChunkedReader) discardTrailers() error {
	for {
		line, err := readLine(cr.br)
		if err != nil {
			return err
		}

		if len(line) == 0 {
			// Empty line ends the trailer section.
			return nil
		}
	}
}

// ChunkedWriter frames everything written to it as chunks. Close writes
// the terminal zero-size chunk; it does not close the underlying writer.
type ChunkedWriter struct {
	w io.Writer
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w}
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		// A zero length chunk would mean EOF. Ignore it.
		return 0, nil
	}

	if err := writeLine(cw.w, []byte(strconv.FormatUint(uint64(len(p)), 16))); err != nil {
		return 0, errors.Wrap(err, "writing chunk size")
	}

	if _, err := cw.w.Write(p); err != nil {
		return 0, errors.Wrap(err, "writing chunk data")
	}

	if err := writeLine(cw.w, nil); err != nil {
		return len(p), errors.Wrap(err, "writing chunk delimiter")
	}

	return len(p), nil
}

func (cw *ChunkedWriter) Close() error {
	// Last chunk, no trailers.
	if err := writeLine(cw.w, []byte{'0'}); err != nil {
		return errors.Wrap(err, "writing last chunk")
	}
	if err := writeLine(cw.w, nil); err != nil {
		return errors.Wrap(err, "writing last trailer line")
	}

	return nil
}

// readLine reads until CRLF and cuts it.
func readLine(br *bufio.Reader) (line []byte, err error) {
	line, err = bytesutil.ReadUntil(br, rule.CRLF)
	if err != nil {
		return nil, err
	}

	return line[:len(line)-2], nil
}

func writeLine(w io.Writer, line []byte) error {
	if _, err := w.Write(append(line, rule.CRLF...)); err != nil {
		return err
	}

	return nil
}
