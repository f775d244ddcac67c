// Package progress tracks how many bytes have moved through a transfer
// pipeline and reports throughput while a transfer runs. It never touches
// the bytes themselves.
package progress

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"monks.co/backupcloser/atom"
	"monks.co/backupcloser/logger"
)

type sample struct {
	bytes int64
	at    time.Time
}

// Meter counts bytes as the pipeline's monitor stage sees them. Counting
// happens on the pipeline goroutine while Log and Total read from others,
// so all state lives behind atoms.
type Meter struct {
	logs    logger.Logger
	total   *atom.Atom[int64]
	samples *atom.Atom[[]sample]
	now     func() time.Time
}

func NewMeter(logs logger.Logger) *Meter {
	return &Meter{
		logs:    logs,
		total:   atom.New[int64](0),
		samples: atom.New[[]sample](nil),
		now:     time.Now,
	}
}

func (m *Meter) Count(n int) {
	now := m.now()
	m.total.Swap(func(t int64) int64 { return t + int64(n) })
	m.samples.Swap(func(ss []sample) []sample {
		ss = append(ss, sample{bytes: int64(n), at: now})

		// drop samples older than the rate window
		cutoff := now.Add(-time.Minute)
		i := 0
		for i < len(ss) && ss[i].at.Before(cutoff) {
			i++
		}
		return ss[i:]
	})
}

func (m *Meter) Total() int64 {
	return m.total.Deref()
}

// Rate returns bytes per second over the last minute.
func (m *Meter) Rate() float64 {
	ss := m.samples.Deref()
	if len(ss) == 0 {
		return 0
	}

	var bytes int64
	for _, s := range ss {
		bytes += s.bytes
	}
	elapsed := m.now().Sub(ss[0].at).Seconds()
	if elapsed < 1 {
		elapsed = 1
	}
	return float64(bytes) / elapsed
}

func (m *Meter) Log() {
	m.logs.Printf("transferred %s (%s/sec over the last minute)",
		humanize.Bytes(uint64(m.Total())),
		humanize.Bytes(uint64(m.Rate())))
}

// Watch logs throughput every interval until ctx is canceled. Run it in its
// own goroutine; it returns when the transfer's context ends.
func (m *Meter) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Log()
		}
	}
}
