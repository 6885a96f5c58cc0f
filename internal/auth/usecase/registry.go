package usecase

import (
	"sync"
	"time"

	"github.com/shandysiswandi/portal/internal/pkg/clock"
)

// registry keeps the live verification sessions of this instance.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*runtime
	sched    clock.Scheduler
	sweeper  clock.Stopper
	closed   bool
}

func newRegistry(sched clock.Scheduler, sweepEvery time.Duration) *registry {
	r := &registry{
		sessions: make(map[string]*runtime),
		sched:    sched,
	}
	if sweepEvery > 0 {
		r.sweeper = sched.Every(sweepEvery, r.sweep)
	}
	return r
}

func (r *registry) add(rt *runtime) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		rt.dispose()
		return false
	}
	r.sessions[rt.v.ID] = rt
	return true
}

func (r *registry) get(id string) (*runtime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.sessions[id]
	return rt, ok
}

// remove drops and disposes the session. It reports whether it was present.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	rt, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		rt.dispose()
	}
	return ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *registry) sweep(now time.Time) {
	r.mu.Lock()
	var idle []*runtime
	for id, rt := range r.sessions {
		rt.mu.Lock()
		expired := rt.v.Expired(now)
		rt.mu.Unlock()

		if expired {
			idle = append(idle, rt)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, rt := range idle {
		rt.dispose()
	}
}

// shutdown disposes every session and refuses new ones.
func (r *registry) shutdown() {
	r.mu.Lock()
	r.closed = true
	all := r.sessions
	r.sessions = make(map[string]*runtime)
	sweeper := r.sweeper
	r.sweeper = nil
	r.mu.Unlock()

	if sweeper != nil {
		sweeper.Stop()
	}
	for _, rt := range all {
		rt.dispose()
	}
}
