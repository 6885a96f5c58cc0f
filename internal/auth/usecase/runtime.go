package usecase

import (
	"sync"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"go.uber.org/atomic"
)

const (
	blockTickInterval  = time.Minute
	resendTickInterval = time.Second
)

// runtime owns one verification session and its two countdown tickers.
//
// Every access to v goes through mu. Remote calls are made with mu released
// while the machine reports Busy, so a second verify or resend is refused by
// the machine itself.
type runtime struct {
	mu    sync.Mutex
	v     *entity.Verification
	sched clock.Scheduler

	blockTicker  clock.Stopper
	resendTicker clock.Stopper

	disposed atomic.Bool
}

func newRuntime(v *entity.Verification, sched clock.Scheduler) *runtime {
	rt := &runtime{v: v, sched: sched}

	rt.mu.Lock()
	rt.syncTimers()
	rt.mu.Unlock()

	return rt
}

// syncTimers starts the tickers the current state needs. Callers hold mu.
func (rt *runtime) syncTimers() {
	if rt.disposed.Load() {
		return
	}

	now := rt.sched.Now()

	if rt.v.State() == entity.StateBlocked && rt.blockTicker == nil {
		rt.blockTicker = rt.sched.Every(blockTickInterval, rt.onBlockTick)
	}

	if now.Before(rt.v.ResendAvailableAt()) && rt.resendTicker == nil {
		rt.resendTicker = rt.sched.Every(resendTickInterval, rt.onResendTick)
	}
}

func (rt *runtime) onBlockTick(now time.Time) {
	if rt.disposed.Load() {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.disposed.Load() {
		return
	}

	if rt.v.TickBlock(now) {
		stop(&rt.blockTicker)
	}
}

func (rt *runtime) onResendTick(now time.Time) {
	if rt.disposed.Load() {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.disposed.Load() {
		return
	}

	if rt.v.TickResend(now) {
		stop(&rt.resendTicker)
	}
}

// dispose cancels both tickers. Later callbacks and completions are ignored.
func (rt *runtime) dispose() {
	if !rt.disposed.CompareAndSwap(false, true) {
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	stop(&rt.blockTicker)
	stop(&rt.resendTicker)
}

func stop(s *clock.Stopper) {
	if *s != nil {
		(*s).Stop()
		*s = nil
	}
}
