package pipeline

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMonitor struct {
	bytes int64
}

func (m *countingMonitor) Count(n int) {
	m.bytes += int64(n)
}

func TestRun_CopiesExactly(t *testing.T) {
	data := make([]byte, 1<<20+37)
	_, err := rand.Read(data)
	require.NoError(t, err)

	var mon countingMonitor
	var dst bytes.Buffer
	err = Run(context.Background(), bytes.NewReader(data), &mon, &dst, Options{ChunkSize: 4096, Depth: 4})
	require.NoError(t, err)

	assert.Equal(t, data, dst.Bytes())
	assert.Equal(t, int64(len(data)), mon.bytes)
}

func TestRun_ProducerError(t *testing.T) {
	broken := io.MultiReader(
		strings.NewReader("some bytes before the stream breaks"),
		iotest{err: errors.New("stream truncated")},
	)

	var mon countingMonitor
	var dst bytes.Buffer
	err := Run(context.Background(), broken, &mon, &dst, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading stream")
}

type iotest struct{ err error }

func (r iotest) Read([]byte) (int, error) { return 0, r.err }

type failingWriter struct {
	allow int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.allow <= 0 {
		return 0, errors.New("sink rejected write")
	}
	w.allow--
	return len(p), nil
}

func TestRun_ConsumerErrorStopsProducer(t *testing.T) {
	// An endless producer must not hang once the consumer fails.
	endless := endlessReader{}
	var mon countingMonitor

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), endless, &mon, &failingWriter{allow: 2}, Options{ChunkSize: 1024, Depth: 2})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "writing stream")
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after consumer failure")
	}
}

type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0xab
	}
	return len(p), nil
}

func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, endlessReader{}, &countingMonitor{}, io.Discard, Options{})
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func TestRun_EmptyStream(t *testing.T) {
	var mon countingMonitor
	var dst bytes.Buffer
	err := Run(context.Background(), strings.NewReader(""), &mon, &dst, Options{})
	require.NoError(t, err)
	assert.Zero(t, dst.Len())
	assert.Zero(t, mon.bytes)
}
