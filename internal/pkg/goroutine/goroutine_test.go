package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GoAndWait(t *testing.T) {
	m := NewManager(4)

	var ran atomic.Int32
	boom := errors.New("boom")

	for i := range 3 {
		ok := m.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			if i == 1 {
				return boom
			}
			return nil
		})
		require.True(t, ok)
	}

	err := m.Wait()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), ran.Load())

	// closed after Wait
	ok := m.Go(context.Background(), func(context.Context) error {
		ran.Add(1)
		return nil
	})
	assert.False(t, ok)
	assert.Equal(t, int32(3), ran.Load())
}

func TestManager_DropsAtLimit(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	require.True(t, m.Go(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	assert.NoError(t, m.Wait())
}

func TestManager_CanceledContext(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	m.Go(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.NoError(t, m.Wait())
	assert.False(t, ran.Load())
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)
	m.Go(context.Background(), func(context.Context) error {
		panic("kaboom")
	})
	err := m.Wait()
	require.ErrorIs(t, err, errPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.NoError(t, m.Wait())
}
