package xiao

import (
	"strconv"
	"testing"
	"time"

	"xiaosense-go/hal/fake"
)

// stubSleep records requested delays instead of sleeping.
func stubSleep(t *testing.T, log *fake.Log) *[]time.Duration {
	t.Helper()
	var got []time.Duration
	old := sleep
	sleep = func(d time.Duration) {
		got = append(got, d)
		if log != nil {
			log.Mark("sleep:" + d.String())
		}
	}
	t.Cleanup(func() { sleep = old })
	return &got
}

func mustPin(t *testing.T, p *fake.Provider, n int) *fake.Pin {
	t.Helper()
	pin, ok := p.FakePin(n)
	if !ok {
		t.Fatalf("no fake pin %d", n)
	}
	return pin
}

func before(t *testing.T, log *fake.Log, a, b string) {
	t.Helper()
	ia, ib := log.Index(a), log.Index(b)
	if ia < 0 || ib < 0 {
		t.Fatalf("missing event (%q at %d, %q at %d) in %v", a, ia, b, ib, log.Events())
	}
	if ia >= ib {
		t.Fatalf("%q should come before %q: %v", a, b, log.Events())
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
