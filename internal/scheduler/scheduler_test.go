package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestAfterFiresOnce(t *testing.T) {
	mock := quartz.NewMock(t)
	s := New(mock)

	var fired atomic.Int32
	s.After(time.Second, func() { fired.Add(1) })

	mock.Advance(time.Second).MustWait(context.Background())
	if fired.Load() != 1 {
		t.Fatalf("fired %d times, want 1", fired.Load())
	}

	mock.Advance(time.Minute)
	if fired.Load() != 1 {
		t.Fatal("one-shot fired again")
	}
}

func TestAfterCancelPreventsFire(t *testing.T) {
	mock := quartz.NewMock(t)
	s := New(mock)

	var fired atomic.Int32
	cancel := s.After(time.Second, func() { fired.Add(1) })
	cancel()
	cancel() // idempotent

	mock.Advance(time.Minute)
	if fired.Load() != 0 {
		t.Fatal("cancelled timer fired")
	}
}

func TestEveryRepeats(t *testing.T) {
	mock := quartz.NewMock(t)
	s := New(mock)

	var fired atomic.Int32
	cancel := s.Every(time.Second, func() { fired.Add(1) })

	for i := 0; i < 3; i++ {
		mock.Advance(time.Second).MustWait(context.Background())
	}
	if fired.Load() != 3 {
		t.Fatalf("fired %d times, want 3", fired.Load())
	}

	cancel()
	mock.Advance(10 * time.Second)
	if fired.Load() != 3 {
		t.Fatal("periodic kept firing after cancel")
	}
}

func TestStopCancelsEverything(t *testing.T) {
	mock := quartz.NewMock(t)
	s := New(mock)

	var fired atomic.Int32
	s.After(time.Second, func() { fired.Add(1) })
	s.Every(time.Second, func() { fired.Add(1) })
	s.Stop()

	mock.Advance(time.Minute)
	if fired.Load() != 0 {
		t.Fatal("timers fired after Stop")
	}

	// New work after Stop is rejected quietly.
	s.After(time.Second, func() { fired.Add(1) })
	mock.Advance(time.Minute)
	if fired.Load() != 0 {
		t.Fatal("timer armed after Stop")
	}
}

func TestCancelFromInsideCallbackStopsPeriodic(t *testing.T) {
	mock := quartz.NewMock(t)
	s := New(mock)

	var fired atomic.Int32
	var cancel Cancel
	cancel = s.Every(time.Second, func() {
		if fired.Add(1) == 2 {
			cancel()
		}
	})

	for i := 0; i < 5; i++ {
		mock.Advance(time.Second).MustWait(context.Background())
	}
	if fired.Load() != 2 {
		t.Fatalf("fired %d times, want 2", fired.Load())
	}
}
