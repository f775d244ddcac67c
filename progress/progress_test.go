package progress

import (
	"testing"
	"time"

	"monks.co/backupcloser/logger"
)

func TestMeter_Total(t *testing.T) {
	m := NewMeter(logger.Nop())

	m.Count(100)
	m.Count(50)

	if m.Total() != 150 {
		t.Fatalf("Total() = %d; want 150", m.Total())
	}
}

func TestMeter_Rate(t *testing.T) {
	m := NewMeter(logger.Nop())

	base := time.Unix(1000, 0)
	now := base
	m.now = func() time.Time { return now }

	m.Count(1000)
	now = base.Add(10 * time.Second)
	m.Count(1000)

	rate := m.Rate()
	if rate < 150 || rate > 250 {
		t.Fatalf("Rate() = %f; want ~200", rate)
	}
}

func TestMeter_RateDropsOldSamples(t *testing.T) {
	m := NewMeter(logger.Nop())

	base := time.Unix(1000, 0)
	now := base
	m.now = func() time.Time { return now }

	m.Count(1 << 30)
	now = base.Add(2 * time.Minute)
	m.Count(100)

	ss := m.samples.Deref()
	if len(ss) != 1 {
		t.Fatalf("len(samples) = %d; want 1 after window expiry", len(ss))
	}
	if m.Total() != 1<<30+100 {
		t.Fatalf("Total() = %d; want window expiry to leave the total alone", m.Total())
	}
}
