package clock

import (
	"sync"
	"time"
)

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
}

// Stopper cancels a scheduled task. Stop is safe to call more than once.
type Stopper interface {
	Stop()
}

// Scheduler runs a callback on a fixed interval until stopped.
//
// Every returned Stopper owns exactly one underlying timer, so a countdown
// never needs to re-schedule itself.
type Scheduler interface {
	Clocker
	Every(interval time.Duration, fn func(now time.Time)) Stopper
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Every starts a time.Ticker that calls fn on each tick.
func (*TimeClocker) Every(interval time.Duration, fn func(now time.Time)) Stopper {
	t := &tickerTask{ticker: time.NewTicker(interval), done: make(chan struct{})}
	go t.loop(fn)
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) loop(fn func(now time.Time)) {
	for {
		select {
		case <-t.done:
			return
		case now := <-t.ticker.C:
			select {
			case <-t.done:
				return
			default:
				fn(now)
			}
		}
	}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
