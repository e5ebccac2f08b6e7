package iolib

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultStepSize is the transfer unit used by [Pump] when none is given.
const DefaultStepSize uint = 2048

// Pump moves bytes from src to dst in steps of at most step bytes,
// until src is exhausted or either side fails. Each step is fully
// written out before the next one is read.
func Pump(dst io.Writer, src io.Reader, step uint) error {
	if step == 0 {
		step = DefaultStepSize
	}

	buf := make([]byte, step)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := WriteFull(dst, buf[:n]); werr != nil {
				return errors.Wrap(werr, "writing to sink")
			}
		}

		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "reading from source")
		}
	}
}
