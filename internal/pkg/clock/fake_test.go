package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var got []string
	f.Every(time.Second, func(time.Time) { got = append(got, "s") })
	f.Every(time.Minute, func(time.Time) { got = append(got, "m") })

	f.Advance(61 * time.Second)

	assert.Len(t, got, 62)
	assert.Equal(t, "m", got[60])
	assert.Equal(t, start.Add(61*time.Second), f.Now())
}

func TestFake_StopCancelsTask(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	calls := 0
	s := f.Every(time.Second, func(time.Time) { calls++ })
	f.Advance(2 * time.Second)
	s.Stop()
	s.Stop()
	f.Advance(10 * time.Second)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, f.Active())
}

func TestFake_StopFromCallback(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	calls := 0
	var s Stopper
	s = f.Every(time.Second, func(time.Time) {
		calls++
		if calls == 3 {
			s.Stop()
		}
	})
	f.Advance(time.Minute)

	assert.Equal(t, 3, calls)
}

func TestTimeClocker_EveryStops(t *testing.T) {
	c := New()
	ticks := make(chan struct{}, 10)
	s := c.Every(5*time.Millisecond, func(time.Time) { ticks <- struct{}{} })

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
	s.Stop()
	s.Stop()
}
