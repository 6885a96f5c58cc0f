package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, *clock.Fake) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewFake(t0)
	return NewCache(client, clk, instrument.NewNoop()), mr, clk
}

func session(id, userID string) entity.AuthSession {
	return entity.AuthSession{
		ID:           id,
		BackendToken: "backend-" + id,
		User:         entity.User{ID: userID, Name: "Demo", Email: "demo@x.com"},
		Identifier:   "de***o@x.com",
		Method:       entity.LoginMethodOTP,
		CreatedAt:    t0,
		ExpiresAt:    t0.Add(24 * time.Hour),
	}
}

func TestCache_Session(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newTestCache(t)

	sess := session("s1", "cus_1")
	require.NoError(t, c.SaveSession(ctx, sess))
	assert.Equal(t, 24*time.Hour, mr.TTL(keySession+"s1"))

	got, err := c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, *got)

	require.NoError(t, c.DeleteSession(ctx, sess))
	_, err = c.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	expired := session("s2", "cus_1")
	expired.ExpiresAt = t0
	assert.Error(t, c.SaveSession(ctx, expired))
}

func TestCache_DeleteUserSessions(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newTestCache(t)

	require.NoError(t, c.SaveSession(ctx, session("a", "cus_1")))
	require.NoError(t, c.SaveSession(ctx, session("b", "cus_1")))
	require.NoError(t, c.SaveSession(ctx, session("other", "cus_2")))

	// one session already gone from redis
	mr.Del(keySession + "b")

	n, err := c.DeleteUserSessions(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists(keyUserSet+"cus_1:sessions"))

	_, err = c.GetSession(ctx, "other")
	assert.NoError(t, err)

	n, err = c.DeleteUserSessions(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_Lockout(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newTestCache(t)

	_, err := c.GetLockout(ctx, "k")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	until := t0.Add(30 * time.Minute)
	require.NoError(t, c.SetLockout(ctx, "k", entity.Lockout{Until: until, Attempts: 5}))
	assert.Equal(t, 30*time.Minute, mr.TTL(keyLockout+"k"))

	l, err := c.GetLockout(ctx, "k")
	require.NoError(t, err)
	assert.True(t, until.Equal(l.Until))
	assert.Equal(t, 5, l.Attempts)

	mr.FastForward(30 * time.Minute)
	_, err = c.GetLockout(ctx, "k")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, c.SetLockout(ctx, "past", entity.Lockout{Until: t0.Add(-time.Second)}))
	assert.False(t, mr.Exists(keyLockout+"past"))
}

func TestCache_DailyFailures(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newTestCache(t)

	n, err := c.GetDailyFailures(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		mr.FastForward(time.Hour)
		n, err = c.IncrDailyFailures(ctx, "k", 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// the window is fixed at the first failure
	assert.Equal(t, 22*time.Hour, mr.TTL(keyFailures+"k"))

	n, err = c.GetDailyFailures(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCache_T1PayState(t *testing.T) {
	ctx := context.Background()
	c, mr, _ := newTestCache(t)

	require.NoError(t, c.SaveT1PayState(ctx, "st", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL(keyT1Pay+"st"))

	ok, err := c.ConsumeT1PayState(ctx, "st")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ConsumeT1PayState(ctx, "st")
	require.NoError(t, err)
	assert.False(t, ok, "a state is consumed once")
}
