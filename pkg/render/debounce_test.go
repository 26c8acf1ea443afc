package render

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCancelAndReschedule(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var runs atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		i := i
		d.Schedule("a", func() {
			runs.Add(1)
			last.Store(int32(i))
		})
	}
	time.Sleep(80 * time.Millisecond)

	if runs.Load() != 1 || last.Load() != 5 {
		t.Fatalf("expected only the last task to run, runs=%d last=%d", runs.Load(), last.Load())
	}
}

func TestDebouncerIndependentKeys(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var runs atomic.Int32
	d.Schedule("a", func() { runs.Add(1) })
	d.Schedule("b", func() { runs.Add(1) })
	d.Cancel("b")
	time.Sleep(50 * time.Millisecond)

	if runs.Load() != 1 {
		t.Fatalf("expected one run, got %d", runs.Load())
	}
}

func TestDebouncerStop(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var runs atomic.Int32
	d.Schedule("a", func() { runs.Add(1) })
	d.Stop()
	d.Schedule("b", func() { runs.Add(1) })
	time.Sleep(40 * time.Millisecond)

	if runs.Load() != 0 || d.Pending() != 0 {
		t.Fatalf("expected nothing to run after stop, runs=%d pending=%d", runs.Load(), d.Pending())
	}
}

func TestDebouncerZeroWaitRunsInline(t *testing.T) {
	d := newDebouncer(0)
	ran := false
	d.Schedule("a", func() { ran = true })
	if !ran {
		t.Fatalf("expected inline run")
	}
}
