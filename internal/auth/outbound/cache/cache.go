package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keySession  = "portal:auth:session:"
	keyUserSet  = "portal:auth:user:"
	keyLockout  = "portal:auth:lockout:"
	keyFailures = "portal:auth:failures:"
	keyT1Pay    = "portal:auth:t1pay:"
)

type Cache struct {
	client redis.UniversalClient
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, clk clock.Clocker, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, clock: clk, ins: ins}
}

type sessionModel struct {
	ID           string             `json:"id"`
	BackendToken string             `json:"backend_token"`
	User         userModel          `json:"user"`
	Identifier   string             `json:"identifier"`
	Method       entity.LoginMethod `json:"method"`
	CreatedAt    time.Time          `json:"created_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

type userModel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type lockoutModel struct {
	Until    time.Time `json:"until"`
	Attempts int       `json:"attempts"`
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Cache) mapError(err error) error {
	if errors.Is(err, redis.Nil) {
		return goerror.ErrNotFound
	}
	return err
}

func (s *Cache) ttlUntil(at time.Time) time.Duration {
	return at.Sub(s.clock.Now())
}

func (s *Cache) SaveSession(ctx context.Context, sess entity.AuthSession) (err error) {
	ctx, span := s.startSpan(ctx, "SaveSession")
	defer func() { s.endSpan(span, err) }()

	ttl := s.ttlUntil(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("cache: session already expired")
	}

	body, err := json.Marshal(sessionModel{
		ID:           sess.ID,
		BackendToken: sess.BackendToken,
		User:         userModel(sess.User),
		Identifier:   sess.Identifier,
		Method:       sess.Method,
		CreatedAt:    sess.CreatedAt,
		ExpiresAt:    sess.ExpiresAt,
	})
	if err != nil {
		return err
	}

	setKey := keyUserSet + sess.User.ID + ":sessions"
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, keySession+sess.ID, body, ttl)
		p.SAdd(ctx, setKey, sess.ID)
		// every session shares the same lifetime, so the newest one bounds the set
		p.Expire(ctx, setKey, ttl)
		return nil
	})
	return err
}

func (s *Cache) GetSession(ctx context.Context, id string) (_ *entity.AuthSession, err error) {
	ctx, span := s.startSpan(ctx, "GetSession")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keySession+id).Bytes()
	if err != nil {
		return nil, s.mapError(err)
	}

	var m sessionModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return &entity.AuthSession{
		ID:           m.ID,
		BackendToken: m.BackendToken,
		User:         entity.User(m.User),
		Identifier:   m.Identifier,
		Method:       m.Method,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
	}, nil
}

func (s *Cache) DeleteSession(ctx context.Context, sess entity.AuthSession) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keySession+sess.ID)
		p.SRem(ctx, keyUserSet+sess.User.ID+":sessions", sess.ID)
		return nil
	})
	return err
}

// DeleteUserSessions removes every session of the user and reports how many
// were still alive.
func (s *Cache) DeleteUserSessions(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "DeleteUserSessions")
	defer func() { s.endSpan(span, err) }()

	setKey := keyUserSet + userID + ":sessions"
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, keySession+id)
	}

	var del *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(keys) > 0 {
			del = p.Del(ctx, keys...)
		}
		p.Del(ctx, setKey)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if del == nil {
		return 0, nil
	}

	return int(del.Val()), nil
}

func (s *Cache) GetLockout(ctx context.Context, key string) (_ *entity.Lockout, err error) {
	ctx, span := s.startSpan(ctx, "GetLockout")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keyLockout+key).Bytes()
	if err != nil {
		return nil, s.mapError(err)
	}

	var m lockoutModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	return &entity.Lockout{Until: m.Until, Attempts: m.Attempts}, nil
}

// SetLockout keeps the record exactly until the block ends.
func (s *Cache) SetLockout(ctx context.Context, key string, l entity.Lockout) (err error) {
	ctx, span := s.startSpan(ctx, "SetLockout")
	defer func() { s.endSpan(span, err) }()

	ttl := s.ttlUntil(l.Until)
	if ttl <= 0 {
		return nil
	}

	body, err := json.Marshal(lockoutModel{Until: l.Until, Attempts: l.Attempts})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, keyLockout+key, body, ttl).Err()
}

func (s *Cache) GetDailyFailures(ctx context.Context, key string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "GetDailyFailures")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keyFailures+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(raw)
}

// IncrDailyFailures counts one failure. The window starts at the first
// failure and is not extended by later ones.
func (s *Cache) IncrDailyFailures(ctx context.Context, key string, window time.Duration) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "IncrDailyFailures")
	defer func() { s.endSpan(span, err) }()

	n, err := s.client.Incr(ctx, keyFailures+key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, keyFailures+key, window).Err(); err != nil {
			return 0, err
		}
	}

	return int(n), nil
}

func (s *Cache) SaveT1PayState(ctx context.Context, state string, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "SaveT1PayState")
	defer func() { s.endSpan(span, err) }()

	return s.client.Set(ctx, keyT1Pay+state, "1", ttl).Err()
}

// ConsumeT1PayState deletes the state and reports whether it existed.
func (s *Cache) ConsumeT1PayState(ctx context.Context, state string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeT1PayState")
	defer func() { s.endSpan(span, err) }()

	n, err := s.client.Del(ctx, keyT1Pay+state).Result()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}
