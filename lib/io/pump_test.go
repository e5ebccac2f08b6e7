package iolib

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPump(t *testing.T) {
	data := strings.Repeat("ABCD", 1000)

	var buf bytes.Buffer
	err := Pump(&buf, strings.NewReader(data), 3)
	require.NoError(t, err)
	assert.Equal(t, data, buf.String())
}

func TestPumpDefaultStep(t *testing.T) {
	data := []byte("Hello, World!")

	var buf bytes.Buffer
	err := Pump(&buf, bytes.NewReader(data), 0)
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
}

func TestPumpEmptySource(t *testing.T) {
	var buf bytes.Buffer
	err := Pump(&buf, strings.NewReader(""), 0)
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestPumpSourceError(t *testing.T) {
	boom := errors.New("boom")

	err := Pump(io.Discard, failingReader{err: boom}, 0)
	assert.ErrorIs(t, err, boom)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestPumpSinkError(t *testing.T) {
	boom := errors.New("boom")

	err := Pump(failingWriter{err: boom}, strings.NewReader("data"), 0)
	assert.ErrorIs(t, err, boom)
}
