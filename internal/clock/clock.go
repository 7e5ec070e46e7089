// Package clock abstracts wall time and tickers so that polling loops can be
// driven by a virtual clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by the chat engine.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors the parts of time.Ticker the engine uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is backed by the time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Fake is a manually advanced clock. Tickers fire only from Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	added   chan struct{}
}

// NewFake returns a Fake clock starting at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, added: make(chan struct{}, 64)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	f.mu.Lock()
	t := &fakeTicker{
		clock:  f,
		period: d,
		next:   f.now.Add(d),
		ch:     make(chan time.Time, 1),
	}
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()

	select {
	case f.added <- struct{}{}:
	default:
	}
	return t
}

// Advance moves the clock forward and fires every ticker whose deadline passed.
// Like time.Ticker, a tick is dropped when the previous one was not consumed.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	active := make([]*fakeTicker, 0, len(f.tickers))
	for _, t := range f.tickers {
		if !t.stopped {
			active = append(active, t)
		}
	}
	f.tickers = active
	f.mu.Unlock()

	for _, t := range active {
		t.fire(now)
	}
}

// Set jumps to an absolute time without firing tickers.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// WaitForTickers blocks until n tickers were created since the clock was built
// or the timeout expires. Tests use it to avoid advancing before a loop started.
func (f *Fake) WaitForTickers(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-f.added:
		case <-deadline:
			return false
		}
	}
	return true
}

type fakeTicker struct {
	clock   *Fake
	period  time.Duration
	next    time.Time
	stopped bool
	ch      chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}

func (t *fakeTicker) fire(now time.Time) {
	t.clock.mu.Lock()
	if t.stopped || now.Before(t.next) {
		t.clock.mu.Unlock()
		return
	}
	for !now.Before(t.next) {
		t.next = t.next.Add(t.period)
	}
	t.clock.mu.Unlock()

	select {
	case t.ch <- now:
	default:
	}
}
