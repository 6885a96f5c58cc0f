package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually driven Scheduler for tests.
//
// Callbacks run synchronously inside Advance, in due-time order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*fakeTask
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Every registers a periodic task that fires when Advance passes its due time.
func (f *Fake) Every(interval time.Duration, fn func(now time.Time)) Stopper {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTask{interval: interval, next: f.now.Add(interval), fn: fn}
	f.tasks = append(f.tasks, t)
	return t
}

// Active reports how many tasks are still scheduled.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.tasks {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every task that falls due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		due := f.dueTasks(target)
		if len(due) == 0 {
			f.now = target
			f.mu.Unlock()
			return
		}
		t := due[0]
		f.now = t.next
		t.next = t.next.Add(t.interval)
		now := f.now
		f.mu.Unlock()

		t.fn(now)
	}
}

// Set jumps the clock to at without firing any task.
func (f *Fake) Set(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = at
}

func (f *Fake) dueTasks(target time.Time) []*fakeTask {
	alive := f.tasks[:0]
	for _, t := range f.tasks {
		if !t.isStopped() {
			alive = append(alive, t)
		}
	}
	f.tasks = alive

	due := make([]*fakeTask, 0, len(alive))
	for _, t := range alive {
		if !t.next.After(target) {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })
	return due
}

type fakeTask struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	fn       func(now time.Time)
	stopped  bool
}

func (t *fakeTask) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTask) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
