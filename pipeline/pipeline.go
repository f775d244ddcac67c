// Package pipeline moves a serialized snapshot stream from a producer to a
// consumer through a monitor stage. The three stages run as separate
// goroutines joined by bounded channels, so a slow consumer backpressures
// the producer instead of buffering the stream in memory.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize = 128 * 1024
	DefaultDepth     = 16
)

// Monitor observes chunk sizes as they pass between producer and consumer.
type Monitor interface {
	Count(n int)
}

type Options struct {
	ChunkSize int // bytes per chunk read from the producer
	Depth     int // capacity of each inter-stage channel
}

func (opts Options) withDefaults() Options {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	return opts
}

// Run streams src into dst until EOF, counting every chunk through mon.
// If any stage fails, or ctx is canceled, the other stages stop promptly
// and Run returns the first error. The bytes are never altered in flight.
func Run(ctx context.Context, src io.Reader, mon Monitor, dst io.Writer, opts Options) error {
	opts = opts.withDefaults()

	g, ctx := errgroup.WithContext(ctx)
	serialized := make(chan []byte, opts.Depth)
	monitored := make(chan []byte, opts.Depth)

	// producer
	g.Go(func() error {
		defer close(serialized)
		for {
			buf := make([]byte, opts.ChunkSize)
			n, err := src.Read(buf)
			if n > 0 {
				select {
				case serialized <- buf[:n]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading stream: %w", err)
			}
		}
	})

	// monitor
	g.Go(func() error {
		defer close(monitored)
		for {
			var chunk []byte
			var ok bool
			select {
			case chunk, ok = <-serialized:
				if !ok {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}

			mon.Count(len(chunk))

			select {
			case monitored <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// consumer
	g.Go(func() error {
		for {
			select {
			case chunk, ok := <-monitored:
				if !ok {
					return nil
				}
				if _, err := dst.Write(chunk); err != nil {
					return fmt.Errorf("writing stream: %w", err)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}
