// Package idempotency runs side-effecting calls at most once per key and
// replays the stored result to repeated requests.
//
// A key moves from pending to done. A call that fails releases its key so the
// client may retry with the same one.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInProgress means another request with the same key is still running.
	ErrInProgress = errors.New("idempotency: request in progress")
	// ErrKeyReused means the key was first used for a different request.
	ErrKeyReused = errors.New("idempotency: key reused with different request")
)

const (
	statusPending = "pending"
	statusDone    = "done"

	defaultLockTTL   = 30 * time.Second
	defaultResultTTL = 24 * time.Hour
)

type record struct {
	Status      string          `json:"status"`
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Idempotency is what usecases depend on.
type Idempotency interface {
	// Do runs fn once for key. fingerprint identifies the request body; a
	// stored result is replayed only to a request with the same fingerprint.
	// fn must return JSON. replayed reports whether result came from an
	// earlier run.
	Do(ctx context.Context, key, fingerprint string, fn func(context.Context) ([]byte, error), opts ...Option) (result []byte, replayed bool, err error)
}

type Option func(*options)

type options struct {
	lockTTL   time.Duration
	resultTTL time.Duration
}

// WithLockTTL bounds how long a crashed run keeps the key pending.
func WithLockTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockTTL = d
		}
	}
}

// WithResultTTL sets how long a finished result is replayed.
func WithResultTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.resultTTL = d
		}
	}
}

type Redis struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Redis backed Idempotency. Keys are stored under prefix.
func New(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) Do(ctx context.Context, key, fingerprint string, fn func(context.Context) ([]byte, error), opts ...Option) ([]byte, bool, error) {
	o := options{lockTTL: defaultLockTTL, resultTTL: defaultResultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	fk := s.prefix + key
	pending, err := json.Marshal(record{Status: statusPending, Fingerprint: fingerprint})
	if err != nil {
		return nil, false, err
	}

	acquired, err := s.client.SetNX(ctx, fk, pending, o.lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		res, err := s.existing(ctx, fk, fingerprint)
		return res, err == nil, err
	}

	res, err := fn(ctx)
	if err != nil {
		// released even when ctx is already cancelled
		if delErr := s.client.Del(context.WithoutCancel(ctx), fk).Err(); delErr != nil {
			return nil, false, errors.Join(err, delErr)
		}
		return nil, false, err
	}

	done, err := json.Marshal(record{Status: statusDone, Fingerprint: fingerprint, Result: res})
	if err != nil {
		return nil, false, err
	}
	if err := s.client.Set(ctx, fk, done, o.resultTTL).Err(); err != nil {
		return nil, false, err
	}

	return res, false, nil
}

func (s *Redis) existing(ctx context.Context, fk, fingerprint string) ([]byte, error) {
	raw, err := s.client.Get(ctx, fk).Bytes()
	if errors.Is(err, redis.Nil) {
		// released between SETNX and GET, the caller retries as a new request
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	switch {
	case rec.Fingerprint != fingerprint:
		return nil, ErrKeyReused
	case rec.Status == statusDone:
		return rec.Result, nil
	default:
		return nil, ErrInProgress
	}
}
