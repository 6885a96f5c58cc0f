package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/clock"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/goroutine"
	"github.com/shandysiswandi/portal/internal/pkg/hash"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

var demoUser = entity.User{ID: "cus_1", Name: "Demo", Email: "demo@x.com"}

type fakeStore struct {
	mu sync.Mutex

	sendCalls   int
	verifyCodes []string
	resendCalls int

	sendResult   entity.SendResult
	sendErr      error
	resendResult entity.SendResult
	resendErr    error
	verifyFn     func(code string) (entity.VerifyResult, error)

	verifySessionErr error
	logoutErr        error
	logoutAllErr     error
	exchangeFn       func(code string) (entity.VerifyResult, error)
}

func (f *fakeStore) SendCode(context.Context, entity.Identifier) (entity.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeStore) VerifyCode(_ context.Context, _ entity.Identifier, code string) (entity.VerifyResult, error) {
	f.mu.Lock()
	f.verifyCodes = append(f.verifyCodes, code)
	fn := f.verifyFn
	f.mu.Unlock()

	if fn == nil {
		if code == "123456" {
			return entity.VerifyResult{Token: "backend-token", User: demoUser}, nil
		}
		return entity.VerifyResult{}, entity.ErrCodeRejected
	}
	return fn(code)
}

func (f *fakeStore) ResendCode(context.Context, entity.Identifier) (entity.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resendCalls++
	return f.resendResult, f.resendErr
}

func (f *fakeStore) VerifySession(context.Context, string) error { return f.verifySessionErr }
func (f *fakeStore) Logout(context.Context, string) error        { return f.logoutErr }
func (f *fakeStore) LogoutAll(context.Context, string) error     { return f.logoutAllErr }

func (f *fakeStore) ExchangeT1Pay(_ context.Context, code string) (entity.VerifyResult, error) {
	if f.exchangeFn != nil {
		return f.exchangeFn(code)
	}
	return entity.VerifyResult{Token: "t1pay-token", User: demoUser}, nil
}

func (f *fakeStore) codes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verifyCodes...)
}

func (f *fakeStore) resends() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resendCalls
}

type fakeCache struct {
	mu       sync.Mutex
	sessions map[string]entity.AuthSession
	byUser   map[string]map[string]struct{}
	lockouts map[string]entity.Lockout
	failures map[string]int
	states   map[string]struct{}

	saveErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		sessions: map[string]entity.AuthSession{},
		byUser:   map[string]map[string]struct{}{},
		lockouts: map[string]entity.Lockout{},
		failures: map[string]int{},
		states:   map[string]struct{}{},
	}
}

func (f *fakeCache) SaveSession(_ context.Context, sess entity.AuthSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[sess.ID] = sess
	if f.byUser[sess.User.ID] == nil {
		f.byUser[sess.User.ID] = map[string]struct{}{}
	}
	f.byUser[sess.User.ID][sess.ID] = struct{}{}
	return nil
}

func (f *fakeCache) GetSession(_ context.Context, id string) (*entity.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &sess, nil
}

func (f *fakeCache) DeleteSession(_ context.Context, sess entity.AuthSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sess.ID)
	delete(f.byUser[sess.User.ID], sess.ID)
	return nil
}

func (f *fakeCache) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id := range f.byUser[userID] {
		delete(f.sessions, id)
		n++
	}
	delete(f.byUser, userID)
	return n, nil
}

func (f *fakeCache) GetLockout(_ context.Context, key string) (*entity.Lockout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lockouts[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &l, nil
}

func (f *fakeCache) SetLockout(_ context.Context, key string, l entity.Lockout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockouts[key] = l
	return nil
}

func (f *fakeCache) GetDailyFailures(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[key], nil
}

func (f *fakeCache) IncrDailyFailures(_ context.Context, key string, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key]++
	return f.failures[key], nil
}

func (f *fakeCache) SaveT1PayState(_ context.Context, state string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state] = struct{}{}
	return nil
}

func (f *fakeCache) ConsumeT1PayState(_ context.Context, state string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.states[state]
	delete(f.states, state)
	return ok, nil
}

type fakeAudit struct {
	mu        sync.Mutex
	rows      []entity.AuditEntry
	published []entity.AuditEntry
	dbErr     error
}

func (f *fakeAudit) CreateLoginEvent(_ context.Context, entry entity.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dbErr != nil {
		return f.dbErr
	}
	f.rows = append(f.rows, entry)
	return nil
}

func (f *fakeAudit) PublishLoginEvent(_ context.Context, entry entity.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, entry)
	return nil
}

func (f *fakeAudit) events() []entity.LoginEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.LoginEvent, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r.Event)
	}
	return out
}

type suite struct {
	uc    *Usecase
	clock *clock.Fake
	store *fakeStore
	cache *fakeCache
	audit *fakeAudit
	gm    *goroutine.Manager
	jwt   jwt.JWT
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	clk := clock.NewFake(t0)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeNode(1)
	require.NoError(t, err)

	uuid := uid.NewUUID()
	j, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("k"), 64),
		Issuer:    "portal",
		Audiences: []string{"portal"},
		TTL:       24 * time.Hour,
		Clock:     clk,
		UUID:      uuid,
	})
	require.NoError(t, err)

	s := &suite{
		clock: clk,
		store: &fakeStore{},
		cache: newFakeCache(),
		audit: &fakeAudit{},
		gm:    goroutine.NewManager(8),
		jwt:   j,
	}

	s.uc = New(Dependency{
		Store:         s.store,
		RepoCache:     s.cache,
		RepoDB:        s.audit,
		RepoMessaging: s.audit,
		Validator:     v,
		HMAC:          hash.NewHMACSHA256("identifier-secret"),
		UID:           sf,
		UUID:          uuid,
		Clock:         clk,
		JWT:           j,
		Instrument:    instrument.NewNoop(),
		Goroutine:     s.gm,
		T1Pay: &oauth2.Config{
			ClientID:    "portal",
			RedirectURL: "https://portal.test/cuenta/login/t1pay-callback",
			Endpoint:    oauth2.Endpoint{AuthURL: "https://t1pay.test/auth"},
		},
	})
	t.Cleanup(s.uc.Shutdown)

	return s
}

func (s *suite) sendCode(t *testing.T, identifier string) entity.Snapshot {
	t.Helper()
	out, err := s.uc.SendCode(context.Background(), SendCodeInput{Identifier: identifier})
	require.NoError(t, err)
	return out.Snapshot
}

// drain waits for the audit goroutines. The manager refuses work afterwards.
func (s *suite) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, s.gm.Wait())
}

func requireCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "want *goerror.Error, got %v", err)
	require.Equal(t, code, gerr.Code())
	return gerr
}
